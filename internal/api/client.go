package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"pogawedka/internal/models"
)

// Error is a non-2xx backend response. Message is the server-provided
// detail and is shown to the user verbatim by the auth panels.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// SessionInvalid reports whether the response means the current token
// is no longer good for anything and the session must end.
func (e *Error) SessionInvalid() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Client talks to the chat backend. One base URL covers every endpoint.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{},
		log:  log,
	}
}

// Register creates a user by name and returns the assigned numeric id.
func (c *Client) Register(ctx context.Context, firstName, surname string) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	body := map[string]string{"firstName": firstName, "surname": surname}
	if err := c.post(ctx, "/api/auth/register-by-name", "", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Login exchanges a user id for a token pair.
func (c *Client) Login(ctx context.Context, userID int64) (models.TokenPair, error) {
	var pair models.TokenPair
	body := map[string]int64{"userId": userID}
	if err := c.post(ctx, "/api/auth/login-by-id", "", body, &pair); err != nil {
		return models.TokenPair{}, err
	}
	return pair, nil
}

// RefreshToken exchanges a refresh token for a new pair. Unlike the
// other endpoints the failure detail is the raw response body.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error) {
	body := map[string]string{"refreshToken": refresh}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/refresh-token", "", body)
	if err != nil {
		return models.TokenPair{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.TokenPair{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TokenPair{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.TokenPair{}, &Error{Status: resp.StatusCode, Message: string(raw)}
	}

	var pair models.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	return pair, nil
}

// Users lists every user. The bearer token is attached only when present.
func (c *Client) Users(ctx context.Context, bearer string) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/api/users", bearer, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context, bearer string) (models.Profile, error) {
	var p models.Profile
	if err := c.get(ctx, "/api/users/me", bearer, &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// GetOrCreateChat resolves the chat between two users, creating it when
// it does not exist yet.
func (c *Client) GetOrCreateChat(ctx context.Context, bearer string, userA, userB int64) (int64, error) {
	var chat models.Chat
	body := map[string]int64{"userAId": userA, "userBId": userB}
	if err := c.post(ctx, "/api/chats/get-or-create", bearer, body, &chat); err != nil {
		return 0, err
	}
	return chat.ID, nil
}

func (c *Client) get(ctx context.Context, path, bearer string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, bearer, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, bearer, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, bearer string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b := &bytes.Buffer{}
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return nil, err
		}
		buf = b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("request failed")
		return &Error{Status: resp.StatusCode, Message: extractMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// extractMessage pulls the "message" field out of a JSON error body,
// falling back to the raw text.
func extractMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(raw)
}
