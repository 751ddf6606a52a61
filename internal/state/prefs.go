package state

import (
	"database/sql"
	"errors"
)

// PlayerPrefs are the persisted playback preferences.
type PlayerPrefs struct {
	Volume     int
	RepeatMode int
	Shuffle    bool
}

// GetPlayerPrefs returns the saved preferences, or nil when none were
// saved yet so callers can fall back to configured defaults.
func (m *Manager) GetPlayerPrefs() (*PlayerPrefs, error) {
	var p PlayerPrefs
	row := m.db.QueryRow(`SELECT volume, repeat_mode, shuffle FROM player_prefs WHERE id = 1`)
	err := row.Scan(&p.Volume, &p.RepeatMode, &p.Shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil prefs means never saved, not an error
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePlayerPrefs persists the playback preferences.
func (m *Manager) SavePlayerPrefs(p PlayerPrefs) error {
	_, err := m.db.Exec(`
		INSERT INTO player_prefs (id, volume, repeat_mode, shuffle)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			repeat_mode = excluded.repeat_mode,
			shuffle = excluded.shuffle
	`, p.Volume, p.RepeatMode, p.Shuffle)
	return err
}
