package handler

import (
	"log/slog"
	"net/http"

	"github.com/borisrunfast/auction-house/internal/auth"
	"github.com/borisrunfast/auction-house/internal/flash"
	"github.com/borisrunfast/auction-house/internal/service"
)

// AuthHandler renders the login and register pages and runs the logout
// confirmation flow.
type AuthHandler struct {
	auth     *service.AuthService
	renderer *Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, renderer *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, renderer: renderer, logger: logger}
}

type loginView struct {
	Base
	Email string
}

type registerView struct {
	Base
	Name  string
	Email string
}

// HandleLoginPage serves GET /auth/login/.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "login", http.StatusOK, loginView{
		Base: h.renderer.Base(w, r, "Login"),
	})
}

// HandleLogin serves POST /auth/login/. On success the session cookie is
// set and the browser lands on the home page after the success banner. On
// failure the form re-renders with the email kept and the remote message
// shown verbatim.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	signed, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("email", email), slog.String("error", err.Error()))
		view := loginView{
			Base:  h.renderer.Base(w, r, "Login"),
			Email: email,
		}
		view.Flashes = append(view.Flashes, flash.Message{Level: flash.LevelError, Text: describeError(err)})
		h.renderer.Render(w, r, "login", http.StatusUnauthorized, view)
		return
	}

	auth.SetSessionCookie(w, signed)
	h.renderer.RenderDelayedRedirect(w, r, "Login successful!", "/")
}

// HandleRegisterPage serves GET /auth/register/.
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, "register", http.StatusOK, registerView{
		Base: h.renderer.Base(w, r, "Register"),
	})
}

// HandleRegister serves POST /auth/register/. Registration does not log
// the user in; success hands off to the login page.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	if _, err := h.auth.Register(r.Context(), name, email, password, confirm); err != nil {
		h.logger.Warn("registration failed", slog.String("name", name), slog.String("error", err.Error()))
		view := registerView{
			Base:  h.renderer.Base(w, r, "Register"),
			Name:  name,
			Email: email,
		}
		view.Flashes = append(view.Flashes, flash.Message{Level: flash.LevelError, Text: describeError(err)})
		h.renderer.Render(w, r, "register", http.StatusBadRequest, view)
		return
	}

	h.renderer.RenderDelayedRedirect(w, r, "Registration successful! You can now log in.", "/auth/login/")
}

// HandleLogoutPage serves GET /auth/logout/ with a confirmation step so a
// stray link cannot end the session.
func (h *AuthHandler) HandleLogoutPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := guardSession(w, r); !ok {
		return
	}
	h.renderer.RenderConfirm(w, r,
		"Are you sure you want to log out?",
		"/auth/logout/",
		"/",
		nil,
	)
}

// HandleLogout serves POST /auth/logout/: the cookie is cleared first so
// the browser is logged out even if the session row is already gone.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)

	if session, ok := SessionFrom(r); ok && session.LoggedIn() {
		if err := h.auth.Logout(r.Context(), session.ID); err != nil {
			h.logger.Error("destroying session", slog.String("error", err.Error()))
		}
	}

	h.renderer.RenderDelayedRedirect(w, r, "You have been logged out.", "/")
}
