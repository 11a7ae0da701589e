//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/atinyakov/GophNotes/internal/db"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/atinyakov/GophNotes/internal/repository"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "gophnotes_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/gophnotes_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_Postgres(t *testing.T) {
	ctx := context.Background()
	conn, err := db.InitPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Migrations are idempotent.
	require.NoError(t, db.Migrate(ctx, conn))

	users := repository.NewPostgresUserRepository(conn)
	notes := repository.NewPostgresNoteRepository(conn)
	now := time.Now().UTC().Truncate(time.Microsecond)

	alice := &models.User{ID: models.NewID(), Email: "alice@example.com", FullName: "Alice", PasswordHash: "$2a$04$x", CreatedAt: now, IsActive: true}
	bob := &models.User{ID: models.NewID(), Email: "bob@example.com", FullName: "Bob", PasswordHash: "$2a$04$y", CreatedAt: now, IsActive: true}

	t.Run("users", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, alice))
		require.NoError(t, users.Create(ctx, bob))

		dup := *alice
		dup.ID = models.NewID()
		assert.ErrorIs(t, users.Create(ctx, &dup), models.ErrConflict)

		got, err := users.FindByEmail(ctx, alice.Email)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.True(t, got.CreatedAt.Equal(now))

		_, err = users.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("notes", func(t *testing.T) {
		local := "device-1"
		older := &models.Note{ID: models.NewID(), OwnerID: alice.ID, Title: "older", Description: "d", CreatedAt: now, UpdatedAt: now, LocalID: &local}
		tie := &models.Note{ID: models.NewID(), OwnerID: alice.ID, Title: "tie", Description: "d", CreatedAt: now, UpdatedAt: now}
		newer := &models.Note{ID: models.NewID(), OwnerID: alice.ID, Title: "newer", Description: "d", CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second)}
		for _, n := range []*models.Note{older, tie, newer} {
			require.NoError(t, notes.Create(ctx, n))
		}

		list, err := notes.ListByOwner(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{newer.ID, older.ID, tie.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
		require.NotNil(t, list[1].LocalID)
		assert.Equal(t, local, *list[1].LocalID)

		empty, err := notes.ListByOwner(ctx, bob.ID)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		_, err = notes.GetByID(ctx, bob.ID, older.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		title := "renamed"
		updated, err := notes.Update(ctx, alice.ID, older.ID, models.NotePatch{Title: &title}, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, "d", updated.Description)
		assert.True(t, updated.UpdatedAt.Equal(now.Add(time.Minute)))

		_, err = notes.Update(ctx, bob.ID, older.ID, models.NotePatch{Title: &title}, now.Add(time.Hour))
		assert.ErrorIs(t, err, models.ErrNotFound)

		removed, err := notes.Delete(ctx, bob.ID, older.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, removed)

		removed, err = notes.Delete(ctx, alice.ID, older.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		_, err = notes.GetByID(ctx, alice.ID, older.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
