package model

import "time"

// Session is the client-held proof of authentication: the access token
// issued by the remote API plus a cached snapshot of the user's profile.
//
// A session is created on login, its profile snapshot is refreshed
// opportunistically on home-page loads, and it is destroyed on logout.
// There is no expiry tracking; a stale token is only discovered when a
// remote call comes back unauthorized.
type Session struct {
	ID          string
	AccessToken string
	User        *Profile
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LoggedIn reports whether the session represents an authenticated user.
func (s *Session) LoggedIn() bool {
	return s != nil && s.AccessToken != "" && s.User != nil
}

// UserName returns the session user's handle, or "" for guests.
func (s *Session) UserName() string {
	if !s.LoggedIn() {
		return ""
	}
	return s.User.Name
}
