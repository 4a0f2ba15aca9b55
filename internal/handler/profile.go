package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/borisrunfast/auction-house/internal/flash"
	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/repository"
	"github.com/borisrunfast/auction-house/internal/service"
)

// ProfileHandler renders profile pages, own and other users', and runs
// the profile update flow with its confirmation step.
type ProfileHandler struct {
	profiles   *service.ProfileService
	auth       *service.AuthService
	formTokens repository.FormTokenRepository
	renderer   *Renderer
	logger     *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(
	profiles *service.ProfileService,
	authSvc *service.AuthService,
	formTokens repository.FormTokenRepository,
	renderer *Renderer,
	logger *slog.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:   profiles,
		auth:       authSvc,
		formTokens: formTokens,
		renderer:   renderer,
		logger:     logger,
	}
}

// profileBidRow is one row in the "My Bids" section; the listing the bid
// was placed on is embedded so the row can link to it.
type profileBidRow struct {
	Amount       int
	Created      time.Time
	ListingTitle string
	ListingURL   string
	Ended        bool
}

type profileView struct {
	Base
	ProfileName string
	Email       string
	Bio         string
	AvatarURL   string
	BannerURL   string
	Credits     int
	IsOwn       bool

	ListingCards []listingCard
	ListingsErr  string
	BidRows      []profileBidRow
	BidsErr      string
	WinCards     []listingCard
	WinsErr      string

	// Update form, only when IsOwn.
	FormToken string
}

// HandleProfile serves GET /profile/?name=... The name defaults to the
// logged-in user; a guest with no name gets the error page with a login
// affordance instead of a redirect.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r)
	name := r.URL.Query().Get("name")
	if name == "" {
		name = session.UserName()
	}
	if name == "" {
		h.renderer.RenderError(w, r, http.StatusUnauthorized, "Log in to see your profile.")
		return
	}

	if !session.LoggedIn() {
		// The remote API requires authentication for profile reads.
		flashLoginRequired(w, r)
		return
	}

	overview, err := h.profiles.Overview(r.Context(), session.AccessToken, name)
	if err != nil {
		h.logger.Error("loading profile", slog.String("name", name), slog.String("error", err.Error()))
		h.renderer.RenderError(w, r, statusFor(err), describeError(err))
		return
	}

	view := h.buildProfileView(w, r, session, overview)
	h.renderer.Render(w, r, "profile", http.StatusOK, *view)
}

func (h *ProfileHandler) buildProfileView(w http.ResponseWriter, r *http.Request, session *model.Session, overview *service.ProfileOverview) *profileView {
	p := overview.Profile
	isOwn := session.UserName() == p.Name

	view := &profileView{
		Base:        h.renderer.Base(w, r, p.Name),
		ProfileName: p.Name,
		Email:       p.Email,
		Bio:         p.Bio,
		AvatarURL:   p.Avatar.URL,
		BannerURL:   p.Banner.URL,
		Credits:     p.Credits,
		IsOwn:       isOwn,
	}

	view.ListingCards = buildCards(overview.Listings, session.UserName(), "", 1)
	if overview.ListsErr != nil {
		view.ListingsErr = "Could not load listings."
	}
	view.WinCards = buildCards(overview.Wins, session.UserName(), "", 1)
	if overview.WinsErr != nil {
		view.WinsErr = "Could not load wins."
	}
	view.BidRows = buildBidRows(overview.Bids)
	if overview.BidsErr != nil {
		view.BidsErr = "Could not load bids."
	}

	if isOwn {
		token, err := h.formTokens.Issue(r.Context(), session.ID)
		if err != nil {
			h.logger.Error("issuing profile form token", slog.String("error", err.Error()))
		} else {
			view.FormToken = token
		}
	}

	return view
}

func buildBidRows(bids []model.Bid) []profileBidRow {
	rows := make([]profileBidRow, 0, len(bids))
	for _, b := range bids {
		row := profileBidRow{
			Amount:  b.Amount,
			Created: b.Created,
		}
		if b.Listing != nil {
			row.ListingTitle = b.Listing.Title
			row.ListingURL = "/listings/view/?id=" + url.QueryEscape(b.Listing.ID)
			row.Ended = !b.Listing.IsActive(timeNow())
		}
		rows = append(rows, row)
	}
	return rows
}

// HandleUpdateConfirm serves POST /profile/update/confirm/: the submitted
// fields are carried through the confirmation page as hidden inputs.
func (h *ProfileHandler) HandleUpdateConfirm(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}
	if !consumeFormToken(w, r, h.formTokens, h.renderer, session.ID, "/profile/") {
		return
	}

	token, err := h.formTokens.Issue(r.Context(), session.ID)
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, describeError(err))
		return
	}

	h.renderer.RenderConfirm(w, r,
		"Save these profile changes?",
		"/profile/update/",
		"/profile/",
		map[string]string{
			"bio":    r.FormValue("bio"),
			"avatar": r.FormValue("avatar"),
			"banner": r.FormValue("banner"),
			"token":  token,
		},
	)
}

// HandleUpdate serves POST /profile/update/, the confirmed outcome. The
// remote contract is a full overwrite: empty fields clear.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := guardSession(w, r)
	if !ok {
		return
	}
	if !consumeFormToken(w, r, h.formTokens, h.renderer, session.ID, "/profile/") {
		return
	}

	_, err := h.profiles.Update(r.Context(), session.AccessToken, session.UserName(),
		r.FormValue("bio"), r.FormValue("avatar"), r.FormValue("banner"))
	if err != nil {
		h.logger.Warn("profile update failed",
			slog.String("name", session.UserName()),
			slog.String("error", err.Error()),
		)
		flash.Error(w, r, describeError(err))
		http.Redirect(w, r, "/profile/", http.StatusSeeOther)
		return
	}

	// Keep the cached snapshot in sync with what was just saved.
	if err := h.auth.RefreshProfile(r.Context(), session); err != nil {
		h.logger.Warn("refreshing profile after update", slog.String("error", err.Error()))
	}

	h.renderer.RenderDelayedRedirect(w, r, "Profile updated successfully!", "/profile/")
}
