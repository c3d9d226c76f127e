// Package presence maintains the current account's online status and
// renders peers' presence for display.
package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Writer persists the current account's own presence record.
// store.AccountStore satisfies it.
type Writer interface {
	SetPresence(ctx context.Context, id string, online bool) error
}

// Tracker is the per-account presence state machine. Persisted states
// are online and offline; "away" exists only at read time (Describe).
// Every transition writes the account's own record, fire-and-forget,
// latest write wins. A Tracker never writes another account's
// presence.
type Tracker struct {
	selfID string
	writer Writer
	grace  time.Duration
	log    *zap.SugaredLogger

	// announce, when set, is notified after each transition (presence
	// cache, event bus).
	announce func(online bool)

	mu         sync.Mutex
	online     bool
	started    bool
	graceTimer *time.Timer
}

func NewTracker(selfID string, writer Writer, grace time.Duration, log *zap.SugaredLogger) *Tracker {
	return &Tracker{selfID: selfID, writer: writer, grace: grace, log: log}
}

// OnTransition registers a hook called after each persisted
// transition. Must be set before Start.
func (t *Tracker) OnTransition(fn func(online bool)) { t.announce = fn }

// Start marks the account online. Initial state on first mount is
// online.
func (t *Tracker) Start() {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
	t.transition(true)
}

// Stop marks the account offline and stops the tracker (unmount).
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.started = false
	t.stopTimerLocked()
	t.mu.Unlock()
	t.transition(false)
}

// Visible handles the tab regaining visibility: any pending grace
// timer is dropped and the account goes online.
func (t *Tracker) Visible() {
	t.mu.Lock()
	t.stopTimerLocked()
	started := t.started
	t.mu.Unlock()
	if started {
		t.transition(true)
	}
}

// Hidden handles the tab losing visibility: the account stays online
// for the grace window, then goes offline unless visibility returns.
func (t *Tracker) Hidden() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return
	}
	t.stopTimerLocked()
	t.graceTimer = time.AfterFunc(t.grace, func() {
		t.transition(false)
	})
}

// NetworkUp handles the network coming back.
func (t *Tracker) NetworkUp() {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if started {
		t.transition(true)
	}
}

// NetworkDown handles connectivity loss. No grace window here: the
// write races the dying connection, so it goes out immediately.
func (t *Tracker) NetworkDown() {
	t.mu.Lock()
	t.stopTimerLocked()
	started := t.started
	t.mu.Unlock()
	if started {
		t.transition(false)
	}
}

// Online reports the last state this tracker published.
func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

func (t *Tracker) transition(online bool) {
	t.mu.Lock()
	if t.online == online && online {
		// Repeated online signals are common (visibility + network);
		// skip the redundant write. Offline writes always go out so
		// last-seen is re-stamped.
		t.mu.Unlock()
		return
	}
	t.online = online
	announce := t.announce
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.writer.SetPresence(ctx, t.selfID, online); err != nil {
		// Best-effort: the next transition rewrites the record.
		t.log.Debugw("presence write dropped", "online", online, "err", err)
	}
	if announce != nil {
		announce(online)
	}
}

func (t *Tracker) stopTimerLocked() {
	if t.graceTimer != nil {
		t.graceTimer.Stop()
		t.graceTimer = nil
	}
}
