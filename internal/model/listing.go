// Package model defines the data structures exchanged with the remote
// auction API and the derived values the pages compute from them.
//
// The remote API is the source of truth; these structs only mirror the
// shapes it returns. Fields the API may omit (seller, media, bids) are
// pointers or slices so a partial payload still decodes cleanly.
package model

import (
	"strings"
	"time"
)

// Media is an image reference with its alt text. Used for listing images
// and for profile avatars/banners.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Count holds the aggregate counters the API attaches under "_count".
type Count struct {
	Bids int `json:"bids"`
}

// Listing is an auctionable item record owned by a seller.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Media       []Media   `json:"media"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
	EndsAt      time.Time `json:"endsAt"`
	Seller      *Profile  `json:"seller"`
	Bids        []Bid     `json:"bids"`
	Count       Count     `json:"_count"`
}

// Bid is a monetary offer against a listing, immutable once placed.
type Bid struct {
	ID      string    `json:"id"`
	Amount  int       `json:"amount"`
	Bidder  *Profile  `json:"bidder"`
	Created time.Time `json:"created"`
	// Listing is present only when bids are fetched with _listings=true.
	Listing *Listing `json:"listing"`
}

// HighestBid returns the largest bid amount on the listing, or 0 when no
// bids have been placed.
func (l *Listing) HighestBid() int {
	highest := 0
	for _, b := range l.Bids {
		if b.Amount > highest {
			highest = b.Amount
		}
	}
	return highest
}

// MinBid returns the smallest acceptable next bid: one above the current
// highest bid, or 1 when the listing has no bids yet.
func (l *Listing) MinBid() int {
	if h := l.HighestBid(); h > 0 {
		return h + 1
	}
	return 1
}

// IsActive reports whether the listing is still open for bids at now.
func (l *Listing) IsActive(now time.Time) bool {
	return l.EndsAt.After(now)
}

// BidsNewestFirst returns the listing's bids ordered most recent first.
// The API returns them oldest first; the pages render them reversed.
func (l *Listing) BidsNewestFirst() []Bid {
	out := make([]Bid, len(l.Bids))
	for i, b := range l.Bids {
		out[len(l.Bids)-1-i] = b
	}
	return out
}

// SellerName returns the seller's handle, or "" when the seller was not
// embedded in the payload.
func (l *Listing) SellerName() string {
	if l.Seller == nil {
		return ""
	}
	return l.Seller.Name
}

// ParseTags splits a comma-separated tag string into trimmed, non-empty
// tags: "a, b ,c" → ["a" "b" "c"].
func ParseTags(raw string) []string {
	return splitCommaList(raw)
}

// ParseImageURLs splits a comma-separated URL string into Media entries
// with empty alt text, the shape the create/edit endpoints expect.
func ParseImageURLs(raw string) []Media {
	urls := splitCommaList(raw)
	media := make([]Media, 0, len(urls))
	for _, u := range urls {
		media = append(media, Media{URL: u})
	}
	return media
}

func splitCommaList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
