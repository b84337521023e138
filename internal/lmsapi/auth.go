package lmsapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Login exchanges credentials for an access token. The backend takes the
// email in the OAuth2 username field.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	if email == "" || password == "" {
		return LoginResponse{}, errors.New("login: email and password are required")
	}
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out LoginResponse
	if err := c.postForm(ctx, "/api/auth/login", form, &out); err != nil {
		return LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	if out.AccessToken == "" {
		return LoginResponse{}, errors.New("login: response carried no access token")
	}
	return out, nil
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if err := c.get(ctx, "/api/auth/me", &u); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	return u, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
