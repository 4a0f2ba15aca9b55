package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/borisrunfast/auction-house/internal/flash"
	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/repository"
	"github.com/borisrunfast/auction-house/internal/service"
)

// ListingFormHandler owns the create and edit listing forms. Both pages
// require a session and submit with a one-time token.
type ListingFormHandler struct {
	listings   *service.ListingService
	formTokens repository.FormTokenRepository
	renderer   *Renderer
	logger     *slog.Logger
}

// NewListingFormHandler creates a ListingFormHandler.
func NewListingFormHandler(
	listings *service.ListingService,
	formTokens repository.FormTokenRepository,
	renderer *Renderer,
	logger *slog.Logger,
) *ListingFormHandler {
	return &ListingFormHandler{
		listings:   listings,
		formTokens: formTokens,
		renderer:   renderer,
		logger:     logger,
	}
}

// listingFormView feeds both the create and edit templates. Editing keeps
// the listing's identity around for the delete affordance.
type listingFormView struct {
	Base
	ID        string
	Form      service.ListingForm
	FormToken string
	DeleteURL string
}

// HandleCreatePage serves GET /listings/create/.
func (h *ListingFormHandler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}

	token, err := h.formTokens.Issue(r.Context(), session.ID)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}

	h.renderer.Render(w, r, "listing_create", http.StatusOK, listingFormView{
		Base:      h.renderer.Base(w, r, "Create Listing"),
		FormToken: token,
	})
}

// HandleCreate serves POST /listings/create/. Validation failures re-render
// the form with every field preserved; success lands back on the feed.
func (h *ListingFormHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}
	if !consumeFormToken(w, r, h.formTokens, h.renderer, session.ID, "/listings/create/") {
		return
	}

	form := readListingForm(r)
	if _, err := h.listings.Create(r.Context(), session.AccessToken, form); err != nil {
		h.logger.Warn("create listing failed", slog.String("error", err.Error()))
		h.rerenderForm(w, r, session, "listing_create", "Create Listing", "", form, err)
		return
	}

	h.renderer.RenderDelayedRedirect(w, r, "Listing created successfully!", "/")
}

// HandleEditPage serves GET /listings/edit/?id=... with the current values
// prefilled, including the deadline in datetime-local format.
func (h *ListingFormHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.renderer.RenderError(w, r, http.StatusBadRequest, "No listing selected.")
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("fetching listing for edit", slog.String("id", id), slog.String("error", err.Error()))
		h.renderer.RenderError(w, r, statusFor(err), "Could not fetch listing. Please try again.")
		return
	}

	token, err := h.formTokens.Issue(r.Context(), session.ID)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}

	h.renderer.Render(w, r, "listing_edit", http.StatusOK, listingFormView{
		Base:      h.renderer.Base(w, r, "Edit Listing"),
		ID:        listing.ID,
		Form:      prefillForm(listing),
		FormToken: token,
		DeleteURL: deleteURL(listing.ID, "/"),
	})
}

// HandleEdit serves POST /listings/edit/. The remote contract is a full
// replace, so the form always submits every field.
func (h *ListingFormHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}

	id := r.FormValue("id")
	if id == "" {
		h.renderer.RenderError(w, r, http.StatusBadRequest, "No listing selected.")
		return
	}
	if !consumeFormToken(w, r, h.formTokens, h.renderer, session.ID, "/listings/edit/?id="+url.QueryEscape(id)) {
		return
	}

	form := readListingForm(r)
	if _, err := h.listings.Update(r.Context(), session.AccessToken, id, form); err != nil {
		h.logger.Warn("update listing failed", slog.String("id", id), slog.String("error", err.Error()))
		h.rerenderForm(w, r, session, "listing_edit", "Edit Listing", id, form, err)
		return
	}

	h.renderer.RenderDelayedRedirect(w, r, "Listing updated successfully!",
		"/listings/view/?id="+url.QueryEscape(id))
}

func readListingForm(r *http.Request) service.ListingForm {
	return service.ListingForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Images:      r.FormValue("images"),
		EndsAt:      r.FormValue("endsAt"),
	}
}

// prefillForm turns a listing back into its editable text fields.
func prefillForm(listing *model.Listing) service.ListingForm {
	urls := make([]string, 0, len(listing.Media))
	for _, m := range listing.Media {
		urls = append(urls, m.URL)
	}
	return service.ListingForm{
		Title:       listing.Title,
		Description: listing.Description,
		Tags:        strings.Join(listing.Tags, ", "),
		Images:      strings.Join(urls, ", "),
		EndsAt:      listing.EndsAt.Local().Format("2006-01-02T15:04"),
	}
}

// rerenderForm shows the submitted form again with an error banner. A
// fresh token is issued since the failed submit spent the old one.
func (h *ListingFormHandler) rerenderForm(w http.ResponseWriter, r *http.Request, session *model.Session, page, title, id string, form service.ListingForm, cause error) {
	token, err := h.formTokens.Issue(r.Context(), session.ID)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}

	view := listingFormView{
		Base:      h.renderer.Base(w, r, title),
		ID:        id,
		Form:      form,
		FormToken: token,
	}
	if id != "" {
		view.DeleteURL = deleteURL(id, "/")
	}
	view.Flashes = append(view.Flashes, flash.Message{Level: flash.LevelError, Text: describeError(cause)})
	h.renderer.Render(w, r, page, http.StatusBadRequest, view)
}

// consumeFormToken redeems the request's one-time form token. A missing
// or already-spent token means a duplicate submission: the action is
// dropped and the browser sent back to where it came from.
func consumeFormToken(w http.ResponseWriter, r *http.Request, tokens repository.FormTokenRepository, renderer *Renderer, sessionID, returnTo string) bool {
	ok, err := tokens.Consume(r.Context(), sessionID, r.FormValue("token"))
	if err != nil {
		renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return false
	}
	if !ok {
		flashError(w, r, "This form was already submitted. Please try again.")
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return false
	}
	return true
}

func deleteURL(id, returnTo string) string {
	return "/listings/delete/?id=" + url.QueryEscape(id) + "&return=" + url.QueryEscape(returnTo)
}
