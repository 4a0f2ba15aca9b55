package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/borisrunfast/auction-house/internal/model"
)

// ListingInput is the editable field set sent on create and update. The
// update operation is a full replace of these fields.
type ListingInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Media       []model.Media `json:"media"`
	EndsAt      time.Time     `json:"endsAt"`
}

// ListListings fetches one page of listings with seller and bid data
// embedded.
func (c *Client) ListListings(ctx context.Context, page, limit int) ([]model.Listing, *model.Meta, error) {
	path := fmt.Sprintf("/auction/listings?_seller=true&_bids=true&page=%d&limit=%d", page, limit)
	return c.listingPage(ctx, path)
}

// SearchListings fetches one page of listings matching the query, with
// seller and bid data embedded.
func (c *Client) SearchListings(ctx context.Context, query string, page, limit int) ([]model.Listing, *model.Meta, error) {
	path := fmt.Sprintf("/auction/listings/search?q=%s&_seller=true&_bids=true&page=%d&limit=%d",
		url.QueryEscape(query), page, limit)
	return c.listingPage(ctx, path)
}

func (c *Client) listingPage(ctx context.Context, path string) ([]model.Listing, *model.Meta, error) {
	env, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, nil, err
	}

	var listings []model.Listing
	if err := decode(env, &listings); err != nil {
		return nil, nil, err
	}
	return listings, env.Meta, nil
}

// GetListing fetches a single listing with its seller and bids embedded.
func (c *Client) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	path := fmt.Sprintf("/auction/listings/%s?_seller=true&_bids=true", url.PathEscape(id))
	env, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var listing model.Listing
	if err := decode(env, &listing); err != nil {
		return nil, err
	}
	if listing.ID == "" {
		return nil, malformedField("id")
	}
	return &listing, nil
}

// CreateListing creates a new listing owned by the token's user.
func (c *Client) CreateListing(ctx context.Context, token string, input ListingInput) (*model.Listing, error) {
	env, err := c.do(ctx, http.MethodPost, "/auction/listings", token, input)
	if err != nil {
		return nil, err
	}

	var listing model.Listing
	if err := decode(env, &listing); err != nil {
		return nil, err
	}
	if listing.ID == "" {
		return nil, malformedField("id")
	}
	return &listing, nil
}

// UpdateListing replaces the editable fields of an existing listing.
func (c *Client) UpdateListing(ctx context.Context, token, id string, input ListingInput) (*model.Listing, error) {
	path := "/auction/listings/" + url.PathEscape(id)
	env, err := c.do(ctx, http.MethodPut, path, token, input)
	if err != nil {
		return nil, err
	}

	var listing model.Listing
	if err := decode(env, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// DeleteListing removes a listing. The API answers 204 with no body.
func (c *Client) DeleteListing(ctx context.Context, token, id string) error {
	path := "/auction/listings/" + url.PathEscape(id)
	_, err := c.do(ctx, http.MethodDelete, path, token, nil)
	return err
}

// PlaceBid submits a bid of amount credits against the listing.
func (c *Client) PlaceBid(ctx context.Context, token, id string, amount int) (*model.Listing, error) {
	path := fmt.Sprintf("/auction/listings/%s/bids", url.PathEscape(id))
	env, err := c.do(ctx, http.MethodPost, path, token, map[string]int{"amount": amount})
	if err != nil {
		return nil, err
	}

	var listing model.Listing
	if err := decode(env, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}
