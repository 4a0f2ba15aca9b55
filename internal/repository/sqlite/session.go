package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/borisrunfast/auction-house/internal/model"
	"github.com/borisrunfast/auction-house/internal/repository"
)

// Compile-time interface checks.
var (
	_ repository.SessionRepository   = (*DB)(nil)
	_ repository.FormTokenRepository = (*DB)(nil)
)

// Create inserts a new session record. The ID is generated here (xid:
// URL-safe, sortable by creation time) and written back to the caller's
// struct together with the timestamps.
func (db *DB) Create(ctx context.Context, session *model.Session) error {
	session.ID = xid.New().String()

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	userData, err := marshalUser(session.User)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, access_token, user_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.AccessToken,
		userData,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session: %w", err)
	}

	return nil
}

// GetByID retrieves a session record by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var (
		session  model.Session
		userData string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, access_token, user_data, created_at, updated_at
		 FROM sessions
		 WHERE id = ?`,
		id,
	).Scan(
		&session.ID,
		&session.AccessToken,
		&userData,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	user, err := unmarshalUser(userData)
	if err != nil {
		return nil, err
	}
	session.User = user

	return &session, nil
}

// Update rewrites the token and cached profile snapshot of an existing
// session. Used by login refreshes and home's opportunistic profile
// refresh.
func (db *DB) Update(ctx context.Context, session *model.Session) error {
	session.UpdatedAt = time.Now()

	userData, err := marshalUser(session.User)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE sessions
		 SET access_token = ?, user_data = ?, updated_at = ?
		 WHERE id = ?`,
		session.AccessToken,
		userData,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating session %s: %w", session.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// Delete removes a session record. Deleting an absent session is not an
// error; logout must be idempotent.
func (db *DB) Delete(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}
	return nil
}

// Issue creates a one-time form token bound to the session.
func (db *DB) Issue(ctx context.Context, sessionID string) (string, error) {
	token := xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO form_tokens (token, session_id) VALUES (?, ?)`,
		token, sessionID,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: issuing form token: %w", err)
	}

	return token, nil
}

// Consume redeems a form token. The DELETE doubles as the atomic check:
// zero rows affected means the token was never issued, belongs to another
// session, or was already spent.
func (db *DB) Consume(ctx context.Context, sessionID, token string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM form_tokens WHERE token = ? AND session_id = ?`,
		token, sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: consuming form token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func marshalUser(user *model.Profile) (string, error) {
	if user == nil {
		return "", nil
	}
	buf, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding session user: %w", err)
	}
	return string(buf), nil
}

func unmarshalUser(raw string) (*model.Profile, error) {
	if raw == "" {
		return nil, nil
	}
	var user model.Profile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("sqlite: decoding session user: %w", err)
	}
	return &user, nil
}
