package orchestrator

import "sync"

// laneSet serializes turns per customer. Each customer has at most one
// running turn and at most one queued message; queueing a second message
// supersedes the first.
type laneSet struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

func newLaneSet() *laneSet {
	return &laneSet{lanes: make(map[string]*lane)}
}

func (s *laneSet) lane(customerID string) *lane {
	s.mu.Lock()
	defer s.mu.Unlock()
	ln, ok := s.lanes[customerID]
	if !ok {
		ln = &lane{}
		s.lanes[customerID] = ln
	}
	return ln
}

type lane struct {
	mu      sync.Mutex
	running bool
	pending *waiter
}

type waiter struct {
	start      chan struct{}
	superseded bool
}

// claim either takes the lane immediately (runNow true) or parks the caller
// as the single pending waiter, displacing whoever was parked before.
func (l *lane) claim() (*waiter, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		l.running = true
		return nil, true
	}

	if prev := l.pending; prev != nil {
		prev.superseded = true
		close(prev.start)
	}
	w := &waiter{start: make(chan struct{})}
	l.pending = w
	return w, false
}

// release hands the lane to the pending waiter, or frees it.
func (l *lane) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked()
}

func (l *lane) releaseLocked() {
	if w := l.pending; w != nil {
		l.pending = nil
		close(w.start)
		return
	}
	l.running = false
}

// abandon withdraws a waiter whose caller gave up before being started.
func (l *lane) abandon(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending == w {
		l.pending = nil
		return
	}

	// Already resolved. If the waiter was promoted to run rather than
	// superseded, the lane belongs to it and must be handed on.
	select {
	case <-w.start:
		if !w.superseded {
			l.releaseLocked()
		}
	default:
	}
}
