// Package repository declares the storage interfaces the rest of the app
// programs against. The sqlite subpackage provides the implementation.
package repository

import (
	"context"
	"errors"

	"github.com/borisrunfast/auction-house/internal/model"
)

// ErrSessionNotFound is returned when no session record matches the given
// ID. The auth middleware treats it as "guest", not as a failure.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists browser sessions: the remote access token plus
// the cached profile snapshot. It is the server-side stand-in for the
// browser's persisted key/value storage.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

// FormTokenRepository stores one-time tokens that guard mutating forms
// against duplicate submission. Issue creates a token bound to a session;
// Consume atomically redeems it and reports whether it was still unused.
type FormTokenRepository interface {
	Issue(ctx context.Context, sessionID string) (string, error)
	Consume(ctx context.Context, sessionID, token string) (bool, error)
}
