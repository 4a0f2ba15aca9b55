package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is a stand-in for the remote auction API, seeded with one
// active listing owned by "seller".
func fakeRemote(t *testing.T) *httptest.Server {
	t.Helper()

	listing := map[string]any{
		"id":          "l1",
		"title":       "Vintage Clock",
		"description": "Ticks loudly.",
		"tags":        []string{"vintage"},
		"media":       []map[string]string{{"url": "https://img.example/clock.jpg", "alt": "a clock"}},
		"endsAt":      time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"seller":      map[string]any{"name": "seller"},
		"bids":        []map[string]any{{"id": "b1", "amount": 10, "bidder": map[string]any{"name": "someone"}}},
		"_count":      map[string]int{"bids": 1},
	}

	data := func(w http.ResponseWriter, v any) {
		json.NewEncoder(w).Encode(map[string]any{"data": v})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/login" && r.Method == http.MethodPost:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "correct-horse" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"errors": []map[string]string{{"message": "Invalid email or password"}},
				})
				return
			}
			data(w, map[string]any{
				"name":        "bidder",
				"email":       body["email"],
				"credits":     1000,
				"accessToken": "remote-jwt",
			})
		case r.URL.Path == "/auction/listings" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"data": []any{listing},
				"meta": map[string]any{"currentPage": 1, "pageCount": 1},
			})
		case r.URL.Path == "/auction/listings/l1" && r.Method == http.MethodGet:
			data(w, listing)
		case r.URL.Path == "/auction/listings/l1/bids" && r.Method == http.MethodPost:
			data(w, listing)
		case strings.HasPrefix(r.URL.Path, "/auction/profiles/") && r.Method == http.MethodGet:
			name := strings.TrimPrefix(r.URL.Path, "/auction/profiles/")
			switch {
			case strings.HasSuffix(name, "/listings"), strings.HasSuffix(name, "/wins"):
				data(w, []any{})
			case strings.HasSuffix(name, "/bids"):
				data(w, []any{})
			default:
				data(w, map[string]any{"name": name, "credits": 1000})
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"errors": []map[string]string{{"message": "Not found"}},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testServer(t *testing.T) http.Handler {
	t.Helper()

	remote := fakeRemote(t)
	srv, err := New(Config{
		Port:          "0",
		TemplateDir:   "../../web/templates",
		StaticDir:     "../../web/static",
		DBPath:        ":memory:",
		APIBaseURL:    remote.URL,
		APIKey:        "test-key",
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// login runs the full login flow and returns the session cookie.
func login(t *testing.T, h http.Handler) []*http.Cookie {
	t.Helper()
	rec := postForm(t, h, "/auth/login/", url.Values{
		"email":    {"bidder@stud.noroff.no"},
		"password": {"correct-horse"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "ah_session" && c.Value != "" {
			return []*http.Cookie{c}
		}
	}
	t.Fatal("no session cookie set after login")
	return nil
}

func body(rec *httptest.ResponseRecorder) string {
	buf, _ := io.ReadAll(rec.Result().Body)
	return string(buf)
}

func TestHomePage(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	page := body(rec)
	assert.Contains(t, page, "Vintage Clock")
	assert.Contains(t, page, "seller")
	assert.Contains(t, page, "Login")
	assert.NotContains(t, page, "Logout")
}

func TestPageAliases(t *testing.T) {
	h := testServer(t)

	for _, path := range []string{"/auth/login/", "/auth/login/index.html"} {
		rec := get(t, h, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, body(rec), "Login", path)
	}

	for _, path := range []string{"/auth/register/", "/auth/register/index.html"} {
		rec := get(t, h, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, body(rec), "Register", path)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/no/such/page/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body(rec), "Page Not Found")
}

func TestLoginFlow(t *testing.T) {
	h := testServer(t)

	cookies := login(t, h)

	rec := get(t, h, "/", cookies)
	page := body(rec)
	assert.Contains(t, page, "bidder")
	assert.Contains(t, page, "Logout")
	assert.NotContains(t, page, ">Login<")
}

func TestLoginFailureKeepsEmail(t *testing.T) {
	h := testServer(t)

	rec := postForm(t, h, "/auth/login/", url.Values{
		"email":    {"bidder@stud.noroff.no"},
		"password": {"wrong"},
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	page := body(rec)
	assert.Contains(t, page, "Invalid email or password")
	assert.Contains(t, page, "bidder@stud.noroff.no")
}

func TestListingViewAsGuest(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/listings/view/?id=l1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := body(rec)
	assert.Contains(t, page, "Vintage Clock")
	assert.Contains(t, page, "to place a bid")
	assert.NotContains(t, page, "Place Bid")
}

func TestListingViewAsBidderShowsForm(t *testing.T) {
	h := testServer(t)
	cookies := login(t, h)

	rec := get(t, h, "/listings/view/?id=l1", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	page := body(rec)
	assert.Contains(t, page, "Place Bid")
	// Highest bid is 10, so the minimum is 11.
	assert.Contains(t, page, "minimum 11")
}

func TestListingViewWithoutID(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/listings/view/", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body(rec), "No listing selected.")
}

var tokenPattern = regexp.MustCompile(`name="token" value="([^"]+)"`)

func TestBidFlow(t *testing.T) {
	h := testServer(t)
	cookies := login(t, h)

	viewRec := get(t, h, "/listings/view/?id=l1", cookies)
	require.Equal(t, http.StatusOK, viewRec.Code)

	match := tokenPattern.FindStringSubmatch(body(viewRec))
	require.Len(t, match, 2, "bid form must carry a one-time token")
	token := match[1]

	form := url.Values{
		"id":     {"l1"},
		"token":  {token},
		"amount": {"42"},
	}
	rec := postForm(t, h, "/listings/view/bid", form, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body(rec), "Bid placed successfully!")

	// The same token cannot place a second bid.
	dupe := postForm(t, h, "/listings/view/bid", form, cookies)
	assert.Equal(t, http.StatusSeeOther, dupe.Code)
}

func TestBidRejectedBelowMinimum(t *testing.T) {
	h := testServer(t)
	cookies := login(t, h)

	viewRec := get(t, h, "/listings/view/?id=l1", cookies)
	match := tokenPattern.FindStringSubmatch(body(viewRec))
	require.Len(t, match, 2)

	rec := postForm(t, h, "/listings/view/bid", url.Values{
		"id":     {"l1"},
		"token":  {match[1]},
		"amount": {"5"},
	}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	page := body(rec)
	assert.Contains(t, page, "at least 11 credits")
	assert.Contains(t, page, `value="5"`, "the rejected amount stays in the field")
}

func TestBidRequiresLogin(t *testing.T) {
	h := testServer(t)

	rec := postForm(t, h, "/listings/view/bid", url.Values{
		"id":     {"l1"},
		"amount": {"42"},
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login/", rec.Header().Get("Location"))
}

func TestCreateListingRequiresLogin(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/listings/create/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login/", rec.Header().Get("Location"))
}

func TestProfileRedirectsGuestsWithName(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/profile/?name=seller", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login/", rec.Header().Get("Location"))
}

func TestProfileGuestWithoutName(t *testing.T) {
	h := testServer(t)

	rec := get(t, h, "/profile/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body(rec), "Log in to see your profile.")
}

func TestOwnProfileShowsUpdateForm(t *testing.T) {
	h := testServer(t)
	cookies := login(t, h)

	rec := get(t, h, "/profile/", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	page := body(rec)
	assert.Contains(t, page, "Update Profile")
	assert.Contains(t, page, "Credits")
}

func TestLogoutFlow(t *testing.T) {
	h := testServer(t)
	cookies := login(t, h)

	confirm := get(t, h, "/auth/logout/", cookies)
	require.Equal(t, http.StatusOK, confirm.Code)
	assert.Contains(t, body(confirm), "Are you sure you want to log out?")

	rec := postForm(t, h, "/auth/logout/", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body(rec), "You have been logged out.")

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ah_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie must be expired")
}
