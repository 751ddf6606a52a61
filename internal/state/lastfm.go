package state

import (
	"database/sql"
	"errors"
	"time"
)

// LastfmSession is a stored Last.fm session.
type LastfmSession struct {
	Username   string
	SessionKey string
	LinkedAt   time.Time
}

// GetLastfmSession returns the stored session, or nil when no account
// has been linked.
func (m *Manager) GetLastfmSession() (*LastfmSession, error) {
	var s LastfmSession
	var linkedAt int64
	row := m.db.QueryRow(`SELECT username, session_key, linked_at FROM lastfm_session WHERE id = 1`)
	switch err := row.Scan(&s.Username, &s.SessionKey, &linkedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil //nolint:nilnil
	case err != nil:
		return nil, err
	}
	s.LinkedAt = time.Unix(linkedAt, 0)
	return &s, nil
}

// SaveLastfmSession stores the session after successful authentication,
// replacing any previously linked account.
func (m *Manager) SaveLastfmSession(username, sessionKey string) error {
	_, err := m.db.Exec(`
		INSERT INTO lastfm_session (id, username, session_key, linked_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			session_key = excluded.session_key,
			linked_at = excluded.linked_at
	`, username, sessionKey, time.Now().Unix())
	return err
}

// DeleteLastfmSession unlinks the account.
func (m *Manager) DeleteLastfmSession() error {
	_, err := m.db.Exec(`DELETE FROM lastfm_session WHERE id = 1`)
	return err
}
