package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/borisrunfast/auction-house/internal/model"
)

// ProfileUpdate is the full-field overwrite sent by the profile update
// flow. Absent values are sent as empty strings, matching the remote
// contract.
type ProfileUpdate struct {
	Bio    string      `json:"bio"`
	Avatar model.Media `json:"avatar"`
	Banner model.Media `json:"banner"`
}

// GetProfile fetches a profile by its unique handle.
func (c *Client) GetProfile(ctx context.Context, token, name string) (*model.Profile, error) {
	path := "/auction/profiles/" + url.PathEscape(name)
	env, err := c.do(ctx, http.MethodGet, path, token, nil)
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

// UpdateProfile overwrites the profile's bio, avatar and banner.
func (c *Client) UpdateProfile(ctx context.Context, token, name string, update ProfileUpdate) (*model.Profile, error) {
	path := "/auction/profiles/" + url.PathEscape(name)
	env, err := c.do(ctx, http.MethodPut, path, token, update)
	if err != nil {
		return nil, err
	}

	var profile model.Profile
	if err := decode(env, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileListings fetches the listings a profile is selling.
func (c *Client) ProfileListings(ctx context.Context, token, name string) ([]model.Listing, error) {
	path := "/auction/profiles/" + url.PathEscape(name) + "/listings?_bids=true"
	env, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var listings []model.Listing
	if err := decode(env, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// ProfileBids fetches the bids a profile has placed, with each bid's
// listing embedded.
func (c *Client) ProfileBids(ctx context.Context, token, name string) ([]model.Bid, error) {
	path := "/auction/profiles/" + url.PathEscape(name) + "/bids?_listings=true"
	env, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var bids []model.Bid
	if err := decode(env, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

// ProfileWins fetches the listings a profile has won.
func (c *Client) ProfileWins(ctx context.Context, token, name string) ([]model.Listing, error) {
	path := "/auction/profiles/" + url.PathEscape(name) + "/wins"
	env, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var wins []model.Listing
	if err := decode(env, &wins); err != nil {
		return nil, err
	}
	return wins, nil
}
