package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mindcareplus/mindcare/client/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns {token, user}.
func (c *Client) Register(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var out models.AuthResult
	err := c.do(ctx, call{endpoint: "auth_register", method: http.MethodPost, path: "/auth/register",
		in: credentials{Email: email, Password: password}, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges email and password for {token, user}.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var out models.AuthResult
	err := c.do(ctx, call{endpoint: "auth_login", method: http.MethodPost, path: "/auth/login",
		in: credentials{Email: email, Password: password}, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile of the credential supplied by the client's source.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var out *models.Profile
	if err := c.do(ctx, call{endpoint: "me", method: http.MethodGet, path: "/me", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

var errNotObject = errors.New("api: /me did not return an object")

// Whoami calls /me with an explicit bearer token and returns the raw object.
func (c *Client) Whoami(ctx context.Context, token string) (json.RawMessage, error) {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	var raw json.RawMessage
	if err := c.do(ctx, call{endpoint: "me", method: http.MethodGet, path: "/me", out: &raw, header: h}); err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return nil, errNotObject
	}
	return raw, nil
}

// Upgrade redeems a plan code.
func (c *Client) Upgrade(ctx context.Context, code string) (*UpgradeResult, error) {
	var out UpgradeResult
	err := c.do(ctx, call{endpoint: "billing_upgrade", method: http.MethodPost, path: "/billing/upgrade",
		in: map[string]string{"code": code}, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
