// Package service contains the business logic between the page handlers
// and the gateway: input normalization, bid rules, pagination, and the
// orchestration of multi-call page loads. Services accept primitives and
// return models or apperror values; they know nothing about HTTP requests
// or templates.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/gateway"
	"github.com/borisrunfast/auction-house/internal/model"
)

const (
	// PageSize is the fixed number of listing cards per home page.
	PageSize = 12

	// windowRadius pages are shown on each side of the current page,
	// clamped to the valid range, so at most five page links in total.
	windowRadius = 2

	MaxTitleLength = 280
)

// ListingService orchestrates listing reads and writes against the remote
// API.
type ListingService struct {
	gw     *gateway.Client
	logger *slog.Logger
}

// NewListingService creates a ListingService.
func NewListingService(gw *gateway.Client, logger *slog.Logger) *ListingService {
	return &ListingService{gw: gw, logger: logger}
}

// Browse fetches one page of listings: the full feed when query is empty,
// search results otherwise. Both embed seller and bid data.
func (s *ListingService) Browse(ctx context.Context, query string, page int) ([]model.Listing, *model.Meta, error) {
	if page < 1 {
		page = 1
	}

	var (
		listings []model.Listing
		meta     *model.Meta
		err      error
	)
	if query == "" {
		listings, meta, err = s.gw.ListListings(ctx, page, PageSize)
	} else {
		listings, meta, err = s.gw.SearchListings(ctx, query, page, PageSize)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("browsing listings: %w", err)
	}
	return listings, meta, nil
}

// Get fetches a single listing with seller and bids.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "No listing selected.")
	}
	listing, err := s.gw.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting listing %s: %w", id, err)
	}
	return listing, nil
}

// Create validates, normalizes and submits a new listing.
func (s *ListingService) Create(ctx context.Context, token string, form ListingForm) (*model.Listing, error) {
	input, err := form.normalize()
	if err != nil {
		return nil, err
	}

	listing, err := s.gw.CreateListing(ctx, token, input)
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.String("id", listing.ID),
		slog.String("title", listing.Title),
	)
	return listing, nil
}

// Update replaces the editable fields of an existing listing.
func (s *ListingService) Update(ctx context.Context, token, id string, form ListingForm) (*model.Listing, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "No listing selected.")
	}
	input, err := form.normalize()
	if err != nil {
		return nil, err
	}

	listing, err := s.gw.UpdateListing(ctx, token, id, input)
	if err != nil {
		return nil, fmt.Errorf("updating listing %s: %w", id, err)
	}

	s.logger.Info("listing updated", slog.String("id", id))
	return listing, nil
}

// Delete removes a listing owned by the token's user.
func (s *ListingService) Delete(ctx context.Context, token, id string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "No listing selected.")
	}
	if err := s.gw.DeleteListing(ctx, token, id); err != nil {
		return fmt.Errorf("deleting listing %s: %w", id, err)
	}

	s.logger.Info("listing deleted", slog.String("id", id))
	return nil
}

// ListingForm is the raw create/edit form input before normalization.
type ListingForm struct {
	Title       string
	Description string
	Tags        string // comma-separated
	Images      string // comma-separated URLs
	EndsAt      string // datetime-local value
}

func (f ListingForm) normalize() (gateway.ListingInput, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return gateway.ListingInput{}, apperror.ValidationFailed("title", "A title is required.")
	}
	if len(title) > MaxTitleLength {
		return gateway.ListingInput{}, apperror.ValidationFailed("title",
			fmt.Sprintf("The title must be %d characters or less.", MaxTitleLength))
	}

	endsAt, err := parseDeadline(f.EndsAt)
	if err != nil {
		return gateway.ListingInput{}, err
	}

	return gateway.ListingInput{
		Title:       title,
		Description: strings.TrimSpace(f.Description),
		Tags:        model.ParseTags(f.Tags),
		Media:       model.ParseImageURLs(f.Images),
		EndsAt:      endsAt,
	}, nil
}

// parseDeadline reads the browser's datetime-local format and requires a
// future end time.
func parseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperror.ValidationFailed("endsAt", "An end date is required.")
	}

	var endsAt time.Time
	var err error
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339} {
		if endsAt, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("endsAt", "The end date could not be read.")
	}
	if !endsAt.After(time.Now()) {
		return time.Time{}, apperror.ValidationFailed("endsAt", "The end date must be in the future.")
	}
	return endsAt, nil
}

// Pagination is the view model for the home page's pager.
type Pagination struct {
	Current int
	Pages   []int
	HasPrev bool
	Prev    int
	HasNext bool
	Next    int
}

// PageWindow computes the pager for the given metadata: at most five page
// links centered on the current page and clamped to [1, pageCount], a
// previous control only past page one, a next control only before the
// last. Returns nil when a single page (or none) exists.
func PageWindow(meta *model.Meta) *Pagination {
	if meta == nil || meta.PageCount <= 1 {
		return nil
	}

	current := meta.CurrentPage
	if current < 1 {
		current = 1
	}
	if current > meta.PageCount {
		current = meta.PageCount
	}

	start := current - windowRadius
	if start < 1 {
		start = 1
	}
	end := current + windowRadius
	if end > meta.PageCount {
		end = meta.PageCount
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	return &Pagination{
		Current: current,
		Pages:   pages,
		HasPrev: current > 1,
		Prev:    current - 1,
		HasNext: current < meta.PageCount,
		Next:    current + 1,
	}
}
