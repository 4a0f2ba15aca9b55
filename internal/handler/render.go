// Package handler contains the page controllers: one handler per route,
// each resolving its parameters, calling the services it needs, and
// rendering an HTML page. Handlers never see raw API JSON and never let an
// error escape: every failure ends as a rendered error region plus a
// notification banner.
package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/borisrunfast/auction-house/internal/auth"
	"github.com/borisrunfast/auction-house/internal/flash"
	"github.com/borisrunfast/auction-house/internal/model"
)

// redirectDelay is how long success interstitials stay on screen before
// the browser is sent onward.
const redirectDelay = 1500 * time.Millisecond

// Base is the view data every page shares: the title, the viewer's
// session, and the queued notification banners.
type Base struct {
	Title    string
	Session  *model.Session
	LoggedIn bool
	UserName string
	Flashes  []flash.Message
}

// Renderer owns the parsed templates. Each page is parsed together with
// the base layout once at startup, so requests only execute.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"formatInput": func(t time.Time) string {
		return t.Local().Format("2006-01-02T15:04")
	},
}

// NewRenderer parses base.html plus every page under templateDir/pages.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	basePath := filepath.Join(templateDir, "base.html")
	pageDir := filepath.Join(templateDir, "pages")

	entries, err := os.ReadDir(pageDir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".html")
		tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
			basePath,
			filepath.Join(pageDir, entry.Name()),
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Base assembles the shared view data for the request, draining any
// flash notifications queued by a previous response.
func (rd *Renderer) Base(w http.ResponseWriter, r *http.Request, title string) Base {
	session, _ := SessionFrom(r)
	return Base{
		Title:    title,
		Session:  session,
		LoggedIn: session.LoggedIn(),
		UserName: session.UserName(),
		Flashes:  flash.Pop(w, r),
	}
}

// Render executes the named page template. Template failures end the
// response with a plain 500; by then part of the body may already be
// written, so there is nothing better to do than log it.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirectView is the success interstitial: the banner plus a meta refresh
// that re-fetches the target after the fixed delay.
type redirectView struct {
	Base
	Message      string
	Target       string
	DelaySeconds float64
	DismissMS    int
}

// RenderDelayedRedirect shows a success banner and sends the browser to
// target after the fixed redirect delay.
func (rd *Renderer) RenderDelayedRedirect(w http.ResponseWriter, r *http.Request, message, target string) {
	rd.Render(w, r, "redirect", http.StatusOK, redirectView{
		Base:         rd.Base(w, r, "Success"),
		Message:      message,
		Target:       target,
		DelaySeconds: redirectDelay.Seconds(),
		DismissMS:    flash.Message{Level: flash.LevelSuccess}.DismissAfterMS(),
	})
}

// errorView renders a page whose main region is a literal error message.
type errorView struct {
	Base
	Message string
}

// RenderError shows the error page with the given message and raises an
// error banner alongside it.
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	base := rd.Base(w, r, "Error")
	base.Flashes = append(base.Flashes, flash.Message{Level: flash.LevelError, Text: message})
	rd.Render(w, r, "error", status, errorView{Base: base, Message: message})
}

// confirmView is the two-outcome confirmation page: Confirm posts the
// pending action with its original fields, Cancel goes back.
type confirmView struct {
	Base
	Message   string
	Action    string
	Fields    map[string]string
	CancelURL string
}

// RenderConfirm shows the confirmation page for a pending action.
func (rd *Renderer) RenderConfirm(w http.ResponseWriter, r *http.Request, message, action, cancelURL string, fields map[string]string) {
	rd.Render(w, r, "confirm", http.StatusOK, confirmView{
		Base:      rd.Base(w, r, "Confirm Action"),
		Message:   message,
		Action:    action,
		Fields:    fields,
		CancelURL: cancelURL,
	})
}

// SessionFrom returns the request's session, nil-safe for guests.
func SessionFrom(r *http.Request) (*model.Session, bool) {
	return auth.SessionFromContext(r.Context())
}

// timeNow is swapped out in tests that pin the clock.
var timeNow = time.Now

func flashSuccess(w http.ResponseWriter, r *http.Request, text string) {
	flash.Success(w, r, text)
}

func flashError(w http.ResponseWriter, r *http.Request, text string) {
	flash.Error(w, r, text)
}

// safeReturnPath keeps redirect targets on this site. Anything that is not
// a local absolute path falls back to home.
func safeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "/"
	}
	return p
}
