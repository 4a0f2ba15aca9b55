package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/flash"
	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/repository"
	"github.com/borisrunfast/auction-house/internal/service"
)

// ListingHandler serves the listing detail page with its bid workflow and
// media carousel, and owns the delete confirmation flow.
type ListingHandler struct {
	listings   *service.ListingService
	bids       *service.BidService
	formTokens repository.FormTokenRepository
	renderer   *Renderer
	logger     *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(
	listings *service.ListingService,
	bids *service.BidService,
	formTokens repository.FormTokenRepository,
	renderer *Renderer,
	logger *slog.Logger,
) *ListingHandler {
	return &ListingHandler{
		listings:   listings,
		bids:       bids,
		formTokens: formTokens,
		renderer:   renderer,
		logger:     logger,
	}
}

type bidRow struct {
	Amount     int
	BidderName string
	Created    time.Time
	IsOwn      bool
}

type listingView struct {
	Base
	ID          string
	ListingName string
	Description string
	Tags        string
	EndsAt      time.Time
	SellerName  string

	// Carousel.
	HasMedia bool
	ImageURL string
	ImageAlt string
	Multiple bool
	PrevURL  string
	NextURL  string

	BidRows []bidRow

	// Bid area, exactly one of these is shown.
	ShowLoginPrompt bool
	ShowSellerNote  bool
	ShowEnded       bool
	ShowBidForm     bool

	MinBid    int
	Credits   int
	BidValue  string
	BidError  string
	FormToken string

	// Seller actions.
	IsSeller  bool
	EditURL   string
	DeleteURL string
}

// HandleView serves GET /listings/view/?id=...&image=N.
func (h *ListingHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.renderer.RenderError(w, r, http.StatusBadRequest, "No listing selected.")
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("fetching listing", slog.String("id", id), slog.String("error", err.Error()))
		h.renderer.RenderError(w, r, statusFor(err), "Could not fetch listing. Please try again.")
		return
	}

	imageIndex, _ := strconv.Atoi(r.URL.Query().Get("image"))
	view, err := h.buildView(w, r, listing, imageIndex)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}
	h.renderer.Render(w, r, "listing_view", http.StatusOK, *view)
}

// buildView assembles the full detail view, evaluating the bid area state
// in precedence order and issuing a one-time token when the form renders.
func (h *ListingHandler) buildView(w http.ResponseWriter, r *http.Request, listing *model.Listing, imageIndex int) (*listingView, error) {
	session, _ := SessionFrom(r)
	viewer := session.UserName()

	view := &listingView{
		Base:        h.renderer.Base(w, r, listing.Title),
		ID:          listing.ID,
		ListingName: listing.Title,
		Description: listing.Description,
		Tags:        strings.Join(listing.Tags, ", "),
		EndsAt:      listing.EndsAt,
		SellerName:  listing.SellerName(),
		IsSeller:    viewer != "" && listing.SellerName() == viewer,
		EditURL:     "/listings/edit/?id=" + url.QueryEscape(listing.ID),
		DeleteURL:   deleteURL(listing.ID, "/"),
	}

	h.fillCarousel(view, listing, imageIndex)

	for _, b := range listing.BidsNewestFirst() {
		row := bidRow{Amount: b.Amount, Created: b.Created}
		if b.Bidder != nil {
			row.BidderName = b.Bidder.Name
			row.IsOwn = viewer != "" && b.Bidder.Name == viewer
		}
		view.BidRows = append(view.BidRows, row)
	}

	switch service.EvaluateBidState(listing, session, timeNow()) {
	case service.BidNotLoggedIn:
		view.ShowLoginPrompt = true
	case service.BidIsSeller:
		view.ShowSellerNote = true
	case service.BidEnded:
		view.ShowEnded = true
	case service.BidOpen:
		view.ShowBidForm = true
		view.MinBid = listing.MinBid()
		view.Credits = session.User.Credits

		token, err := h.formTokens.Issue(r.Context(), session.ID)
		if err != nil {
			return nil, fmt.Errorf("issuing bid form token: %w", err)
		}
		view.FormToken = token
	}

	return view, nil
}

// fillCarousel computes the cyclic image navigation. The index wraps
// modulo the media count; an empty gallery renders a placeholder.
func (h *ListingHandler) fillCarousel(view *listingView, listing *model.Listing, index int) {
	n := len(listing.Media)
	if n == 0 {
		return
	}

	index = ((index % n) + n) % n
	view.HasMedia = true
	view.ImageURL = listing.Media[index].URL
	view.ImageAlt = listing.Media[index].Alt

	if n > 1 {
		view.Multiple = true
		base := "/listings/view/?id=" + url.QueryEscape(listing.ID) + "&image="
		view.PrevURL = base + strconv.Itoa((index-1+n)%n)
		view.NextURL = base + strconv.Itoa((index+1)%n)
	}
}

// HandleBid serves POST /listings/view/bid.
//
// Validation failures re-render the listing page in the Open state with
// the entered amount preserved and an inline plus banner error. A success
// shows the banner, then re-fetches the listing after the fixed delay.
func (h *ListingHandler) HandleBid(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}

	id := r.FormValue("id")
	if id == "" {
		h.renderer.RenderError(w, r, http.StatusBadRequest, "No listing selected.")
		return
	}
	viewURL := "/listings/view/?id=" + url.QueryEscape(id)

	if !consumeFormToken(w, r, h.formTokens, h.renderer, session.ID, viewURL) {
		return
	}

	rawAmount := r.FormValue("amount")
	if _, err := h.bids.Place(r.Context(), session, id, rawAmount); err != nil {
		h.logger.Warn("bid rejected",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
		h.renderBidFailure(w, r, id, rawAmount, err)
		return
	}

	h.renderer.RenderDelayedRedirect(w, r, "Bid placed successfully!", viewURL)
}

// renderBidFailure re-renders the detail page with the failed input kept
// in place. If even the re-fetch fails, the error page takes over.
func (h *ListingHandler) renderBidFailure(w http.ResponseWriter, r *http.Request, id, rawAmount string, bidErr error) {
	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, r, statusFor(err), "Could not fetch listing. Please try again.")
		return
	}

	view, err := h.buildView(w, r, listing, 0)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}
	view.BidValue = rawAmount
	view.BidError = describeError(bidErr)
	view.Flashes = append(view.Flashes, flash.Message{Level: flash.LevelError, Text: view.BidError})
	h.renderer.Render(w, r, "listing_view", http.StatusOK, *view)
}

// HandleDeleteConfirm serves GET /listings/delete/?id=...&return=...
// It renders the two-outcome confirmation page for deleting a listing.
func (h *ListingHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.renderer.RenderError(w, r, http.StatusBadRequest, "No listing selected.")
		return
	}
	returnTo := safeReturnPath(r.URL.Query().Get("return"))

	token, err := h.formTokens.Issue(r.Context(), session.ID)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}

	h.renderer.RenderConfirm(w, r,
		"Are you sure you want to delete this listing?",
		"/listings/delete/",
		returnTo,
		map[string]string{
			"id":     id,
			"return": returnTo,
			"token":  token,
		},
	)
}

// HandleDelete serves POST /listings/delete/, the confirmed outcome.
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}

	id := r.FormValue("id")
	returnTo := safeReturnPath(r.FormValue("return"))

	if !consumeFormToken(w, r, h.formTokens, h.renderer, session.ID, returnTo) {
		return
	}

	if err := h.listings.Delete(r.Context(), session.AccessToken, id); err != nil {
		h.logger.Error("deleting listing", slog.String("id", id), slog.String("error", err.Error()))
		flashError(w, r, describeError(err))
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return
	}

	h.renderer.RenderDelayedRedirect(w, r, "Listing deleted successfully!", returnTo)
}

func statusFor(err error) int {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Status == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
