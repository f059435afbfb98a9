package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"pogawedka/internal/api"
	"pogawedka/internal/token"
)

var ErrBadUserID = errors.New("user id must be a number")

// Controller owns the authenticated/unauthenticated state. The only
// transitions are a successful Login and Logout; everything else reads.
type Controller struct {
	client *api.Client

	tokens *token.Store

	mu            sync.Mutex
	authenticated bool

	// OnChange fires after either transition, with the new state.
	OnChange func(authenticated bool)
}

func NewController(tokens *token.Store, client *api.Client) *Controller {
	return &Controller{
		client:        client,
		tokens:        tokens,
		authenticated: tokens.AccessToken() != "",
	}
}

func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// CurrentUserID is the identity carried by the stored access token,
// "" when absent or malformed.
func (c *Controller) CurrentUserID() string {
	return c.tokens.CurrentUserID()
}

// Login exchanges the typed-in id for a token pair and commits the
// unauthenticated -> authenticated transition.
func (c *Controller) Login(ctx context.Context, userID string) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return ErrBadUserID
	}

	pair, err := c.client.Login(ctx, id)
	if err != nil {
		return err
	}
	if err := c.tokens.SaveTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}

	c.setAuthenticated(true)
	return nil
}

// Register creates the user and returns the assigned id. It does not
// authenticate; the user logs in with the returned id afterwards.
func (c *Controller) Register(ctx context.Context, firstName, surname string) (int64, error) {
	return c.client.Register(ctx, firstName, surname)
}

// Logout clears both persisted tokens and commits the authenticated ->
// unauthenticated transition.
func (c *Controller) Logout() {
	_ = c.tokens.Clear()
	c.setAuthenticated(false)
}

func (c *Controller) setAuthenticated(v bool) {
	c.mu.Lock()
	changed := c.authenticated != v
	c.authenticated = v
	onChange := c.OnChange
	c.mu.Unlock()

	if changed && onChange != nil {
		onChange(v)
	}
}
