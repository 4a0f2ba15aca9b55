package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carryCookies copies the cookies set on one response into a fresh request,
// the way a browser does across a redirect. A later Set-Cookie for the same
// name replaces the earlier one.
func carryCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	latest := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		latest[c.Name] = c
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range latest {
		req.AddCookie(c)
	}
	return req
}

func TestQueueAndPop(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listings/delete/", nil)

	Success(rec, req, "Listing deleted successfully!")

	next := carryCookies(t, rec)
	nextRec := httptest.NewRecorder()

	messages := Pop(nextRec, next)
	require.Len(t, messages, 1)
	assert.Equal(t, LevelSuccess, messages[0].Level)
	assert.Equal(t, "Listing deleted successfully!", messages[0].Text)

	// Pop clears the cookie so a reload shows nothing.
	cookies := nextRec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestMultipleMessagesAccumulate(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	Error(rec, req, "first")

	// The second call on the same response must see the first message.
	followup := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, c := range rec.Result().Cookies() {
		followup.AddCookie(c)
	}
	Success(rec, followup, "second")

	next := carryCookies(t, rec)
	messages := Pop(httptest.NewRecorder(), next)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
}

func TestPopWithoutCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Pop(httptest.NewRecorder(), req))
}

func TestPopIgnoresTamperedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "ah_flash", Value: "%%%not-base64%%%"})
	assert.Empty(t, Pop(httptest.NewRecorder(), req))
}

func TestDismissAfterMS(t *testing.T) {
	assert.Equal(t, 3000, Message{Level: LevelSuccess}.DismissAfterMS())
	assert.Equal(t, 5000, Message{Level: LevelError}.DismissAfterMS())
}
