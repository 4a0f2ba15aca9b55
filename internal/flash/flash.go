// Package flash carries transient success and error notifications across a
// redirect. Messages are queued in a cookie on the response that triggers
// them and drained on the next page render, where the base layout shows
// them as auto-dismissing banners: success banners for 3 seconds, error
// banners for 5.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const cookieName = "ah_flash"

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Banner dismissal delays, exposed to the templates as data attributes for
// the static dismissal script.
const (
	successDismissMS = 3000
	errorDismissMS   = 5000
)

// Message is a single queued notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// DismissAfterMS returns how long the banner stays visible.
func (m Message) DismissAfterMS() int {
	if m.Level == LevelError {
		return errorDismissMS
	}
	return successDismissMS
}

// Success queues a success notification.
func Success(w http.ResponseWriter, r *http.Request, text string) {
	add(w, r, Message{Level: LevelSuccess, Text: text})
}

// Error queues an error notification.
func Error(w http.ResponseWriter, r *http.Request, text string) {
	add(w, r, Message{Level: LevelError, Text: text})
}

// Pop drains the queued messages and clears the cookie. Called once per
// page render by the template helpers.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	messages := peek(r)
	if len(messages) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return messages
}

// add appends to whatever is already queued on this request so one action
// can raise several notifications.
func add(w http.ResponseWriter, r *http.Request, msg Message) {
	messages := append(peek(r), msg)

	buf, err := json.Marshal(messages)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString(buf),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func peek(r *http.Request) []Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	raw, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	return messages
}
