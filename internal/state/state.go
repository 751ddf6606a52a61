// Package state persists local app state (player preferences, the last
// queue, the Last.fm session) in a SQLite database under the XDG data
// directory.
package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "resona"
	dbFileName   = "resona.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *QueueState
}

// Open opens the state database at its XDG data path, creating it and
// its schema as needed.
func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the state database at an explicit path.
func OpenAt(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// Close flushes any pending queue save and closes the database.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending != nil {
		_ = saveQueue(m.db, *pending)
	}

	return m.db.Close()
}

// DB exposes the underlying handle.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// SaveQueue schedules a debounced queue snapshot save. Rapid queue
// churn collapses into one write; Close flushes the last snapshot.
func (m *Manager) SaveQueue(state QueueState) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &state

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = saveQueue(m.db, *pending)
		}
	})
}

// GetQueue returns the saved queue snapshot.
func (m *Manager) GetQueue() (*QueueState, error) {
	return getQueue(m.db)
}
