package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHighestBid(t *testing.T) {
	tests := []struct {
		name    string
		amounts []int
		want    int
	}{
		{name: "no bids", amounts: nil, want: 0},
		{name: "single bid", amounts: []int{50}, want: 50},
		{name: "ascending", amounts: []int{10, 20, 30}, want: 30},
		{name: "unordered", amounts: []int{30, 10, 20}, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Listing{}
			for _, a := range tt.amounts {
				l.Bids = append(l.Bids, Bid{Amount: a})
			}
			assert.Equal(t, tt.want, l.HighestBid())
		})
	}
}

func TestMinBid(t *testing.T) {
	noBids := Listing{}
	assert.Equal(t, 1, noBids.MinBid())

	withBids := Listing{Bids: []Bid{{Amount: 10}, {Amount: 42}}}
	assert.Equal(t, 43, withBids.MinBid())
}

func TestIsActive(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	future := Listing{EndsAt: now.Add(time.Hour)}
	assert.True(t, future.IsActive(now))

	past := Listing{EndsAt: now.Add(-time.Hour)}
	assert.False(t, past.IsActive(now))

	exact := Listing{EndsAt: now}
	assert.False(t, exact.IsActive(now), "a listing ending exactly now is closed")
}

func TestBidsNewestFirst(t *testing.T) {
	l := Listing{Bids: []Bid{{Amount: 1}, {Amount: 2}, {Amount: 3}}}

	got := l.BidsNewestFirst()
	assert.Equal(t, []int{3, 2, 1}, []int{got[0].Amount, got[1].Amount, got[2].Amount})
	assert.Equal(t, 1, l.Bids[0].Amount, "original order untouched")
}

func TestSellerName(t *testing.T) {
	assert.Equal(t, "", (&Listing{}).SellerName())
	assert.Equal(t, "ada", (&Listing{Seller: &Profile{Name: "ada"}}).SellerName())
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: []string{}},
		{raw: "   ", want: []string{}},
		{raw: "art", want: []string{"art"}},
		{raw: "a, b ,c", want: []string{"a", "b", "c"}},
		{raw: "a,,b", want: []string{"a", "b"}},
		{raw: " vintage , retro ", want: []string{"vintage", "retro"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTags(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseImageURLs(t *testing.T) {
	media := ParseImageURLs("https://a.example/1.jpg, https://a.example/2.jpg")
	assert.Equal(t, []Media{
		{URL: "https://a.example/1.jpg"},
		{URL: "https://a.example/2.jpg"},
	}, media)

	assert.Empty(t, ParseImageURLs(""))
}
