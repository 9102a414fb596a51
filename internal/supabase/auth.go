package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/Zachkp/folio/internal/domain"
)

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         authUser `json:"user"`
}

// SignIn exchanges an e-mail and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AdminSession, error) {
	var tok tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  "grant_type=password",
		body:   map[string]string{"email": email, "password": password},
	}, &tok)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.ExpiresAt > 0 {
		expires = time.Unix(tok.ExpiresAt, 0)
	}

	return &domain.AdminSession{
		User:         domain.AdminUser{ID: tok.User.ID, Email: tok.User.Email},
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expires,
	}, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	}, nil)
}

// GetUser returns the user the access token belongs to. A token the service no
// longer accepts yields an error matching domain.ErrUnauthenticated.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.AdminUser, error) {
	var u authUser
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	}, &u); err != nil {
		return nil, err
	}
	return &domain.AdminUser{ID: u.ID, Email: u.Email}, nil
}
