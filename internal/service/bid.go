package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/gateway"
	"github.com/borisrunfast/auction-house/internal/model"
)

// BidState is the listing-view page's bid area state, evaluated at render
// time.
type BidState int

const (
	// BidNotLoggedIn renders the login prompt; no bid form.
	BidNotLoggedIn BidState = iota
	// BidIsSeller renders the own-listing message; no bid form.
	BidIsSeller
	// BidEnded renders the auction-closed message; no bid form.
	BidEnded
	// BidOpen renders the bid form seeded with the minimum bid.
	BidOpen
)

// BidService owns the bid rules and submission.
type BidService struct {
	gw     *gateway.Client
	logger *slog.Logger
}

// NewBidService creates a BidService.
func NewBidService(gw *gateway.Client, logger *slog.Logger) *BidService {
	return &BidService{gw: gw, logger: logger}
}

// EvaluateBidState classifies the bid area for the given viewer. The
// checks run in precedence order: identity before ownership before the
// deadline.
func EvaluateBidState(listing *model.Listing, session *model.Session, now time.Time) BidState {
	switch {
	case !session.LoggedIn():
		return BidNotLoggedIn
	case listing.SellerName() == session.UserName():
		return BidIsSeller
	case !listing.IsActive(now):
		return BidEnded
	default:
		return BidOpen
	}
}

// ValidateBidAmount parses the raw form input and enforces the client-side
// bid invariants: a whole number, at least minBid, at most the bidder's
// credit balance.
func ValidateBidAmount(raw string, minBid, credits int) (int, error) {
	amount, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperror.ValidationFailed("amount",
			fmt.Sprintf("Your bid must be a whole number of at least %d credits.", minBid))
	}
	if amount < minBid {
		return 0, apperror.ValidationFailed("amount",
			fmt.Sprintf("Your bid must be at least %d credits.", minBid))
	}
	if amount > credits {
		return 0, apperror.ValidationFailed("amount",
			fmt.Sprintf("You don't have enough credits for this bid. Your credits: %d", credits))
	}
	return amount, nil
}

// Place validates and submits a bid for the session user. The listing is
// re-fetched first so the minimum is checked against the latest bids, not
// the ones rendered when the form was loaded.
func (s *BidService) Place(ctx context.Context, session *model.Session, listingID, rawAmount string) (int, error) {
	listing, err := s.gw.GetListing(ctx, listingID)
	if err != nil {
		return 0, fmt.Errorf("fetching listing for bid: %w", err)
	}

	if state := EvaluateBidState(listing, session, time.Now()); state != BidOpen {
		switch state {
		case BidNotLoggedIn:
			return 0, apperror.ValidationFailed("", "You must be logged in to place a bid.")
		case BidIsSeller:
			return 0, apperror.ValidationFailed("", "You cannot bid on your own listing.")
		default:
			return 0, apperror.ValidationFailed("", "This listing has ended. No more bids allowed.")
		}
	}

	amount, err := ValidateBidAmount(rawAmount, listing.MinBid(), session.User.Credits)
	if err != nil {
		return 0, err
	}

	if _, err := s.gw.PlaceBid(ctx, session.AccessToken, listingID, amount); err != nil {
		return 0, fmt.Errorf("placing bid on %s: %w", listingID, err)
	}

	s.logger.Info("bid placed",
		slog.String("listing_id", listingID),
		slog.String("bidder", session.UserName()),
		slog.Int("amount", amount),
	)
	return amount, nil
}
