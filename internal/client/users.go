package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

// Login stores the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*transport.AuthUser, error) {
	var au transport.AuthUser
	if err := c.send(ctx, http.MethodPost, "/api/users/auth", transport.LoginRequest{Email: email, Password: password}, &au); err != nil {
		return nil, err
	}
	c.SetToken(au.Token)
	return &au, nil
}

func (c *Client) Register(ctx context.Context, req transport.RegisterRequest) (*transport.AuthUser, error) {
	var au transport.AuthUser
	if err := c.send(ctx, http.MethodPost, "/api/users/register", req, &au); err != nil {
		return nil, err
	}
	c.SetToken(au.Token)
	return &au, nil
}

// Logout forgets the token even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, "/api/users/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Profile(ctx context.Context) (*transport.AuthUser, error) {
	var au transport.AuthUser
	if err := c.get(ctx, "/api/users/profile", &au, TagProfile); err != nil {
		return nil, err
	}
	return &au, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req transport.ProfileRequest) (*transport.AuthUser, error) {
	var au transport.AuthUser
	if err := c.send(ctx, http.MethodPut, "/api/users/profile", req, &au, TagProfile, TagUser); err != nil {
		return nil, err
	}
	return &au, nil
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/api/users", &users, TagUser); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := c.get(ctx, "/api/users/"+id.String(), &u, Tag(TagUser, id)); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, req transport.AdminUserRequest) (*models.User, error) {
	var u models.User
	if err := c.send(ctx, http.MethodPut, "/api/users/"+id.String(), req, &u, TagUser, Tag(TagUser, id)); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.send(ctx, http.MethodDelete, "/api/users/"+id.String(), nil, nil, TagUser, Tag(TagUser, id))
}
