// Package client is a typed HTTP client for the GophNotes REST API,
// with helpers for persisting the session and prompting for note fields.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/GophNotes/internal/models"
)

const (
	apiRegister = "/api/auth/register"
	apiLogin    = "/api/auth/login"
	apiMe       = "/api/auth/me"
	apiNotes    = "/api/notes"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// AuthResult is the answer to a successful registration or login.
type AuthResult struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NoteInput holds the fields of a new note.
type NoteInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	LocalID     *string `json:"local_id,omitempty"`
}

// NoteUpdate holds the fields to change on a note. Nil fields are omitted.
type NoteUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	LocalID     *string `json:"local_id,omitempty"`
}

// Client talks to one GophNotes server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a Client for baseURL. A nil hc uses http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"email": email, "password": password, "full_name": fullName}
	if err := c.do(ctx, http.MethodPost, apiRegister, body, &res); err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, apiLogin, body, &res); err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, apiMe, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateNote stores a new note.
func (c *Client) CreateNote(ctx context.Context, in NoteInput) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPost, apiNotes, in, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotes returns every note of the current user, newest first.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := c.do(ctx, http.MethodGet, apiNotes, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNote fetches one note.
func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodGet, notePath(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote applies upd to one note and returns the result.
func (c *Client) UpdateNote(ctx context.Context, id string, upd NoteUpdate) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPut, notePath(id), upd, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNote removes one note.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil)
}

func notePath(id string) string {
	return apiNotes + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
			apiErr.Detail = payload.Detail
		} else {
			apiErr.Detail = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
