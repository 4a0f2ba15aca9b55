package gateway

import (
	"context"
	"net/http"

	"github.com/borisrunfast/auction-house/internal/model"
)

// AuthData is the login response: the user's profile snapshot plus the
// access token every authenticated call must carry.
type AuthData struct {
	model.Profile
	AccessToken string `json:"accessToken"`
}

// Login exchanges email and password for an access token and profile
// snapshot.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthData, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/auth/login", "", body)
	if err != nil {
		return nil, err
	}

	var data AuthData
	if err := decode(env, &data); err != nil {
		return nil, err
	}
	if data.AccessToken == "" || data.Name == "" {
		return nil, malformedField("accessToken")
	}
	return &data, nil
}

// Register creates a new account. The caller logs in separately; no token
// is issued here.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.Profile, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/auth/register", "", body)
	if err != nil {
		return nil, err
	}

	var profile model.Profile
	if err := decode(env, &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, malformedField("name")
	}
	return &profile, nil
}
