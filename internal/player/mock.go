package player

import (
	"sync"
	"time"
)

// Mock is a test double for Player. Safe for concurrent use so tests
// can poke it while engine goroutines read it.
type Mock struct {
	mu          sync.Mutex
	state       State
	position    time.Duration
	duration    time.Duration
	volumeLevel float64
	playErr     error
	fetchErr    error
	fetchGate   chan struct{}
	playCalls   []string
	fetchCalls  []string
	seekCalls   []time.Duration
	finishedCh  chan struct{}
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{
		state:       Stopped,
		volumeLevel: 1.0,
		finishedCh:  make(chan struct{}, 1),
	}
}

func (m *Mock) Fetch(audioURL string) error {
	m.mu.Lock()
	gate := m.fetchGate
	m.fetchCalls = append(m.fetchCalls, audioURL)
	err := m.fetchErr
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func (m *Mock) Play(audioURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls = append(m.playCalls, audioURL)
	if m.playErr != nil {
		return m.playErr
	}
	m.state = Playing
	m.position = 0
	return nil
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
	m.position = 0
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Playing
	}
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
}

func (m *Mock) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeLevel = level
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumeLevel
}

func (m *Mock) FinishedChan() <-chan struct{} {
	return m.finishedCh
}

func (m *Mock) Close() error {
	m.Stop()
	return nil
}

// Test helpers

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// BlockFetch makes every Fetch call block until the returned release
// function runs, simulating a slow download. The release function is
// safe to call more than once.
func (m *Mock) BlockFetch() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.fetchGate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (m *Mock) FetchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.fetchCalls))
	copy(calls, m.fetchCalls)
	return calls
}

func (m *Mock) PlayCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.playCalls))
	copy(calls, m.playCalls)
	return calls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]time.Duration, len(m.seekCalls))
	copy(calls, m.seekCalls)
	return calls
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// SimulateFinished simulates a track finishing.
func (m *Mock) SimulateFinished() {
	select {
	case m.finishedCh <- struct{}{}:
	default:
	}
}
