package playback

const eventBufferSize = 16

// Subscription carries playback events to one subscriber. Channels are
// buffered and events are dropped rather than blocking the engine when a
// subscriber falls behind. Done closes when the engine shuts down.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	ProgressChanged <-chan ProgressChange
	ModeChanged     <-chan ModeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	stateCh    chan StateChange
	trackCh    chan TrackChange
	progressCh chan ProgressChange
	modeCh     chan ModeChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		trackCh:    make(chan TrackChange, eventBufferSize),
		progressCh: make(chan ProgressChange, eventBufferSize),
		modeCh:     make(chan ModeChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.ProgressChanged = s.progressCh
	s.ModeChanged = s.modeCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// trySend drops the event when the subscriber's buffer is full.
func trySend[T any](ch chan T, e T) {
	select {
	case ch <- e:
	default:
	}
}

func (s *Subscription) sendState(e StateChange) { trySend(s.stateCh, e) }

func (s *Subscription) sendTrack(e TrackChange) { trySend(s.trackCh, e) }

func (s *Subscription) sendProgress(progress float64) {
	trySend(s.progressCh, ProgressChange{Progress: progress})
}

func (s *Subscription) sendMode(e ModeChange) { trySend(s.modeCh, e) }

func (s *Subscription) sendError(e ErrorEvent) { trySend(s.errorCh, e) }
