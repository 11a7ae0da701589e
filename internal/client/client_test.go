package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noteID = "5d1f6a4e-1c1b-4f57-8f0e-2a9c6c3b7e21"

// fakeAPI answers like the notes server for a single user with token "tok".
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	note := map[string]any{
		"id": noteID, "title": "t", "description": "d", "user_id": "u-1",
		"created_at": time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), "updated_at": time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		"local_id": nil,
	}
	auth := map[string]any{
		"user":         map[string]string{"id": "u-1", "email": "a@x.com", "name": "A", "token": "tok"},
		"access_token": "tok",
		"token_type":   "bearer",
	}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "could not validate credentials"})
				return
			}
			next(w, r)
		}
	}
	jsonBody := func(t *testing.T, r *http.Request) map[string]any {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return body
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		body := jsonBody(t, r)
		if body["email"] == "taken@x.com" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "email already registered"})
			return
		}
		assert.Equal(t, "A", body["full_name"])
		writeJSON(w, http.StatusCreated, auth)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if jsonBody(t, r)["password"] != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, auth)
	})
	mux.HandleFunc("GET /api/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "u-1", "email": "a@x.com", "full_name": "A", "is_active": true})
	}))
	mux.HandleFunc("POST /api/notes", authed(func(w http.ResponseWriter, r *http.Request) {
		body := jsonBody(t, r)
		assert.Equal(t, "t", body["title"])
		writeJSON(w, http.StatusCreated, note)
	}))
	mux.HandleFunc("GET /api/notes", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{note})
	}))
	mux.HandleFunc("GET /api/notes/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != noteID {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "note not found"})
			return
		}
		writeJSON(w, http.StatusOK, note)
	}))
	mux.HandleFunc("PUT /api/notes/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		body := jsonBody(t, r)
		assert.Equal(t, map[string]any{"title": "new"}, body)
		updated := map[string]any{}
		for k, v := range note {
			updated[k] = v
		}
		updated["title"] = "new"
		writeJSON(w, http.StatusOK, updated)
	}))
	mux.HandleFunc("DELETE /api/notes/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
	}))
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_AuthFlow(t *testing.T) {
	ts := fakeAPI(t)
	c := New(ts.URL+"/", nil)
	ctx := context.Background()

	res, err := c.Register(ctx, "a@x.com", "secret1", "A")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, "tok", c.Token())

	c.SetToken("")
	_, err = c.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", c.Token())

	u, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "A", u.FullName)
}

func TestClient_APIErrors(t *testing.T) {
	ts := fakeAPI(t)
	c := New(ts.URL, nil)
	ctx := context.Background()

	_, err := c.Register(ctx, "taken@x.com", "secret1", "A")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "email already registered", apiErr.Detail)

	_, err = c.Login(ctx, "a@x.com", "wrong")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Empty(t, c.Token())

	_, err = c.Me(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "could not validate credentials", apiErr.Detail)

	err = c.do(ctx, http.MethodGet, "/broken", nil, nil)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Detail)
	assert.Equal(t, "server returned 502: upstream down", apiErr.Error())
}

func TestClient_Notes(t *testing.T) {
	ts := fakeAPI(t)
	c := New(ts.URL, nil)
	c.SetToken("tok")
	ctx := context.Background()

	created, err := c.CreateNote(ctx, NoteInput{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, noteID, created.ID)
	assert.Nil(t, created.LocalID)

	list, err := c.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u-1", list[0].OwnerID)

	got, err := c.GetNote(ctx, noteID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)

	_, err = c.GetNote(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	title := "new"
	updated, err := c.UpdateNote(ctx, noteID, NoteUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)

	require.NoError(t, c.DeleteNote(ctx, noteID))
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url, nil).ListNotes(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
