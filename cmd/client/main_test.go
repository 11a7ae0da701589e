package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/GophNotes/internal/client"
	"github.com/atinyakov/GophNotes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNoteID = "5d1f6a4e-1c1b-4f57-8f0e-2a9c6c3b7e21"

func newShell(t *testing.T, handler http.Handler, input string) (*shell, *bytes.Buffer) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	api := client.New(ts.URL, ts.Client())
	api.SetToken("tok")
	out := &bytes.Buffer{}
	return &shell{
		api:         api,
		in:          strings.NewReader(input),
		out:         out,
		sessionPath: filepath.Join(t.TempDir(), "session.json"),
	}, out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestShell_AddListDelete(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	note := models.Note{ID: testNoteID, Title: "Groceries", Description: "milk", OwnerID: "u-1", CreatedAt: ts, UpdatedAt: ts}

	var created client.NoteInput
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/notes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&created)
		writeJSON(w, http.StatusCreated, note)
	})
	mux.HandleFunc("GET /api/notes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Note{note})
	})
	mux.HandleFunc("DELETE /api/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
	})

	sh, out := newShell(t, mux, "add\nGroceries\nmilk\n\nlist\ndelete "+testNoteID+"\nexit\nlist\n")
	sh.repl(context.Background())

	assert.Equal(t, "Groceries", created.Title)
	assert.Equal(t, "milk", created.Description)
	require.NotNil(t, created.LocalID)
	assert.True(t, models.IsValidID(*created.LocalID))

	got := out.String()
	assert.Contains(t, got, "Note created: "+testNoteID)
	assert.Contains(t, got, testNoteID+"  ")
	assert.Contains(t, got, "Groceries")
	assert.Contains(t, got, "Note deleted")
	assert.True(t, strings.HasSuffix(got, "Bye\n"))
}

func TestShell_ReportsAPIErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "note not found"})
	})

	sh, out := newShell(t, mux, "get nope\nedit nope\nget\nfrobnicate\n")
	sh.repl(context.Background())

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "Error: server returned 404: note not found"))
	assert.Contains(t, got, "Usage: get <id>")
	assert.Contains(t, got, "Unknown command")
}

func TestShell_EditSkipsEmptyFields(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	note := models.Note{ID: testNoteID, Title: "t", Description: "d", OwnerID: "u-1", CreatedAt: ts, UpdatedAt: ts}

	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, note)
	})
	mux.HandleFunc("PUT /api/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, note)
	})

	sh, out := newShell(t, mux, "edit "+testNoteID+"\n\nnew description\n")
	sh.repl(context.Background())

	assert.Equal(t, map[string]any{"description": "new description"}, body)
	assert.Contains(t, out.String(), "Note updated")
}

func TestShell_LogoutClearsSession(t *testing.T) {
	sh, out := newShell(t, http.NotFoundHandler(), "logout\n")
	require.NoError(t, (&client.Session{Email: "a@x.com", Token: "tok"}).Save(sh.sessionPath))

	sh.repl(context.Background())

	assert.Contains(t, out.String(), "Logged out")
	assert.Empty(t, sh.api.Token())
	_, err := os.Stat(sh.sessionPath)
	assert.True(t, os.IsNotExist(err))
}

// stubTerminal replaces the terminal seams for the duration of the test.
func stubTerminal(t *testing.T, terminal bool, read func(fd int) ([]byte, error)) {
	t.Helper()
	origRead, origIsTerminal := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origIsTerminal })
	isTerminal = func(int) bool { return terminal }
	readPassword = read
}

// loginAPI accepts password "secret1" and records every password it sees.
func loginAPI(t *testing.T, seen *[]string) *client.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		*seen = append(*seen, body["password"])
		if body["password"] != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":         map[string]string{"id": "u-1", "email": body["email"], "name": "A", "token": "tok"},
			"access_token": "tok",
			"token_type":   "bearer",
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return client.New(ts.URL, ts.Client())
}

func TestAuthenticate_TerminalReadsWithoutEcho(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("secret1"), nil })
	var seen []string
	api := loginAPI(t, &seen)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	out := &bytes.Buffer{}

	err := authenticate(context.Background(), api, strings.NewReader("typed-ahead\n"), out, "login", "a@x.com", "", sessionPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"secret1"}, seen)
	assert.Contains(t, out.String(), "Password: ")
	assert.NotContains(t, out.String(), "secret1")

	sess, err := client.LoadSession(sessionPath)
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "a@x.com", sess.Email)
}

func TestAuthenticate_NonTerminalFallsBackToLine(t *testing.T) {
	stubTerminal(t, false, func(int) ([]byte, error) {
		t.Error("terminal read used for non-terminal input")
		return nil, nil
	})
	var seen []string
	api := loginAPI(t, &seen)

	err := authenticate(context.Background(), api, strings.NewReader("secret1\n"), &bytes.Buffer{}, "login", "a@x.com", "", filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"secret1"}, seen)
}

func TestAuthenticate_Errors(t *testing.T) {
	readErr := errors.New("inappropriate ioctl for device")
	stubTerminal(t, true, func(int) ([]byte, error) { return nil, readErr })
	var seen []string
	api := loginAPI(t, &seen)
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	err := authenticate(context.Background(), api, strings.NewReader(""), &bytes.Buffer{}, "login", "a@x.com", "", sessionPath)
	assert.ErrorIs(t, err, readErr)

	err = authenticate(context.Background(), api, strings.NewReader(""), &bytes.Buffer{}, "login", "", "", sessionPath)
	assert.EqualError(t, err, "please provide -email")

	err = authenticate(context.Background(), api, strings.NewReader(""), &bytes.Buffer{}, "register", "a@x.com", "", sessionPath)
	assert.EqualError(t, err, "please provide -name")

	assert.Empty(t, seen)
	_, statErr := os.Stat(sessionPath)
	assert.True(t, os.IsNotExist(statErr))
}
