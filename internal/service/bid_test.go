package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/model"
)

func bidFixtures() (active, ended *model.Listing, seller, bidder *model.Session, now time.Time) {
	now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	active = &model.Listing{
		ID:     "l1",
		Seller: &model.Profile{Name: "seller"},
		EndsAt: now.Add(time.Hour),
	}
	ended = &model.Listing{
		ID:     "l2",
		Seller: &model.Profile{Name: "seller"},
		EndsAt: now.Add(-time.Hour),
	}
	seller = &model.Session{ID: "s1", AccessToken: "tok", User: &model.Profile{Name: "seller", Credits: 1000}}
	bidder = &model.Session{ID: "s2", AccessToken: "tok", User: &model.Profile{Name: "bidder", Credits: 1000}}
	return active, ended, seller, bidder, now
}

func TestEvaluateBidState(t *testing.T) {
	active, ended, seller, bidder, now := bidFixtures()

	assert.Equal(t, BidNotLoggedIn, EvaluateBidState(active, nil, now))
	assert.Equal(t, BidNotLoggedIn, EvaluateBidState(active, &model.Session{}, now))
	assert.Equal(t, BidIsSeller, EvaluateBidState(active, seller, now))
	assert.Equal(t, BidEnded, EvaluateBidState(ended, bidder, now))
	assert.Equal(t, BidOpen, EvaluateBidState(active, bidder, now))
}

func TestEvaluateBidStatePrecedence(t *testing.T) {
	_, ended, seller, _, now := bidFixtures()

	// A guest looking at an ended listing is still told to log in first.
	assert.Equal(t, BidNotLoggedIn, EvaluateBidState(ended, nil, now))

	// The seller of an ended listing sees the ownership message, not the
	// deadline one.
	assert.Equal(t, BidIsSeller, EvaluateBidState(ended, seller, now))
}

func TestValidateBidAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		minBid  int
		credits int
		want    int
		wantErr bool
	}{
		{name: "exact minimum", raw: "5", minBid: 5, credits: 100, want: 5},
		{name: "above minimum", raw: "50", minBid: 5, credits: 100, want: 50},
		{name: "all credits", raw: "100", minBid: 5, credits: 100, want: 100},
		{name: "trimmed input", raw: " 7 ", minBid: 5, credits: 100, want: 7},
		{name: "below minimum", raw: "4", minBid: 5, credits: 100, wantErr: true},
		{name: "over credits", raw: "101", minBid: 5, credits: 100, wantErr: true},
		{name: "not a number", raw: "ten", minBid: 5, credits: 100, wantErr: true},
		{name: "decimal", raw: "5.5", minBid: 5, credits: 100, wantErr: true},
		{name: "empty", raw: "", minBid: 5, credits: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBidAmount(tt.raw, tt.minBid, tt.credits)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
