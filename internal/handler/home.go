package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/service"
)

// HomeHandler renders the landing page: hero section, searchable listing
// feed, and the pager.
type HomeHandler struct {
	listings *service.ListingService
	auth     *service.AuthService
	renderer *Renderer
	logger   *slog.Logger
}

// NewHomeHandler creates a HomeHandler.
func NewHomeHandler(listings *service.ListingService, auth *service.AuthService, renderer *Renderer, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		listings: listings,
		auth:     auth,
		renderer: renderer,
		logger:   logger,
	}
}

// listingCard is one card in the feed.
type listingCard struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	ImageAlt    string
	SellerName  string
	Active      bool
	Tags        string
	BidCount    int
	HighestBid  int
	IsSeller    bool
	ViewURL     string
	EditURL     string
	DeleteURL   string
}

type homeView struct {
	Base
	Query      string
	Cards      []listingCard
	Pagination *service.Pagination
	NoResults  bool
	LoadError  string
}

// HandleHome serves GET /?q=...&page=N.
//
// Logged-in visitors get their cached profile snapshot refreshed first so
// the credit balance shown elsewhere is current; a refresh failure is
// tolerated, since staleness surfaces on the next remote call anyway.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	if session, ok := SessionFrom(r); ok && session.LoggedIn() {
		if err := h.auth.RefreshProfile(r.Context(), session); err != nil {
			h.logger.Warn("opportunistic profile refresh failed",
				slog.String("name", session.UserName()),
				slog.String("error", err.Error()),
			)
		}
	}

	view := homeView{
		Base:  h.renderer.Base(w, r, "Auction House"),
		Query: query,
	}

	listings, meta, err := h.listings.Browse(r.Context(), query, page)
	if err != nil {
		view.LoadError = "Error loading listings. Please try again later."
		h.logger.Error("loading listings", slog.String("error", err.Error()))
		h.renderer.Render(w, r, "home", http.StatusOK, view)
		return
	}

	view.NoResults = len(listings) == 0
	view.Cards = buildCards(listings, view.UserName, query, page)
	view.Pagination = service.PageWindow(meta)
	h.renderer.Render(w, r, "home", http.StatusOK, view)
}

// buildCards derives the card view models, flagging cards owned by the
// viewer so the edit/delete affordances render. The delete link carries
// the current query and page so the confirm flow can land back on the
// same feed slice.
func buildCards(listings []model.Listing, viewer, query string, page int) []listingCard {
	returnTo := "/"
	if query != "" || page > 1 {
		returnTo = fmt.Sprintf("/?q=%s&page=%d", url.QueryEscape(query), page)
	}

	cards := make([]listingCard, 0, len(listings))
	for _, l := range listings {
		card := listingCard{
			ID:          l.ID,
			Title:       l.Title,
			Description: l.Description,
			SellerName:  l.SellerName(),
			Active:      l.IsActive(timeNow()),
			Tags:        strings.Join(l.Tags, ", "),
			BidCount:    l.Count.Bids,
			HighestBid:  l.HighestBid(),
			IsSeller:    viewer != "" && l.SellerName() == viewer,
			ViewURL:     "/listings/view/?id=" + url.QueryEscape(l.ID),
			EditURL:     "/listings/edit/?id=" + url.QueryEscape(l.ID),
			DeleteURL:   deleteURL(l.ID, returnTo),
		}
		if len(l.Media) > 0 {
			card.ImageURL = l.Media[0].URL
			card.ImageAlt = l.Media[0].Alt
		}
		cards = append(cards, card)
	}
	return cards
}

// guardSession redirects guests to the login page with an error flash.
// Returns the session and whether the request may proceed.
func guardSession(w http.ResponseWriter, r *http.Request) (*model.Session, bool) {
	session, ok := SessionFrom(r)
	if !ok || !session.LoggedIn() {
		flashLoginRequired(w, r)
		return nil, false
	}
	return session, true
}

func flashLoginRequired(w http.ResponseWriter, r *http.Request) {
	// Queue the error so the login page explains the redirect.
	flashError(w, r, "You must be logged in to do that.")
	http.Redirect(w, r, "/auth/login/", http.StatusSeeOther)
}

// describeError maps a stale-session failure to a friendlier message
// than the remote API's own wording.
func describeError(err error) string {
	if apperror.IsUnauthorized(err) {
		return "Your session has expired. Please log in again."
	}
	return apperror.Message(err)
}
