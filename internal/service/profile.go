package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/borisrunfast/auction-house/internal/gateway"
	"github.com/borisrunfast/auction-house/internal/model"
)

// ProfileService loads profile pages and applies profile updates.
type ProfileService struct {
	gw     *gateway.Client
	logger *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(gw *gateway.Client, logger *slog.Logger) *ProfileService {
	return &ProfileService{gw: gw, logger: logger}
}

// ProfileOverview is everything the profile page renders: the profile and
// its three collections, each with its own independent failure. A nil
// section error means that section loaded.
type ProfileOverview struct {
	Profile *model.Profile

	Bids     []model.Bid
	BidsErr  error
	Wins     []model.Listing
	WinsErr  error
	Listings []model.Listing
	ListsErr error
}

// Overview fetches the profile and then its bids, wins and listings
// concurrently. The profile itself is the only fatal fetch; each
// collection fails independently and is rendered as a per-section error.
func (s *ProfileService) Overview(ctx context.Context, token, name string) (*ProfileOverview, error) {
	profile, err := s.gw.GetProfile(ctx, token, name)
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", name, err)
	}

	overview := &ProfileOverview{Profile: profile}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		overview.Bids, overview.BidsErr = s.gw.ProfileBids(ctx, token, name)
	}()
	go func() {
		defer wg.Done()
		overview.Wins, overview.WinsErr = s.gw.ProfileWins(ctx, token, name)
	}()
	go func() {
		defer wg.Done()
		overview.Listings, overview.ListsErr = s.gw.ProfileListings(ctx, token, name)
	}()
	wg.Wait()

	for _, sectionErr := range []error{overview.BidsErr, overview.WinsErr, overview.ListsErr} {
		if sectionErr != nil {
			s.logger.Warn("profile section failed to load",
				slog.String("name", name),
				slog.String("error", sectionErr.Error()),
			)
		}
	}

	return overview, nil
}

// Update overwrites the profile's bio, avatar and banner. The remote
// contract is a full replace; empty strings clear a field.
func (s *ProfileService) Update(ctx context.Context, token, name, bio, avatarURL, bannerURL string) (*model.Profile, error) {
	update := gateway.ProfileUpdate{
		Bio:    bio,
		Avatar: model.Media{URL: avatarURL},
		Banner: model.Media{URL: bannerURL},
	}

	profile, err := s.gw.UpdateProfile(ctx, token, name, update)
	if err != nil {
		return nil, fmt.Errorf("updating profile %s: %w", name, err)
	}

	s.logger.Info("profile updated", slog.String("name", name))
	return profile, nil
}
