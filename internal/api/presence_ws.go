package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/biodun42/NexThread/internal/presence"
)

// presenceWS receives the client's visibility and connectivity signals
// and drives the account's presence tracker. Connecting counts as
// mount (online); the socket closing counts as unmount (offline) once
// the last connection for the account is gone.
func (h *handlers) presenceWS(c *websocket.Conn) {
	selfID, _ := c.Locals("account_id").(string)
	tr := h.trackers.acquire(selfID)
	defer h.trackers.release(selfID)
	defer c.Close()

	c.SetReadLimit(1 << 10)
	for {
		_ = c.SetReadDeadline(time.Now().Add(5 * time.Minute))
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var sig struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &sig); err != nil {
			continue
		}
		switch sig.Type {
		case "visible":
			tr.Visible()
		case "hidden":
			tr.Hidden()
		case "net_up":
			tr.NetworkUp()
		case "net_down":
			tr.NetworkDown()
		}
	}
}

// trackerRegistry refcounts one presence tracker per account across
// that account's connections.
type trackerRegistry struct {
	deps Deps

	mu       sync.Mutex
	trackers map[string]*trackedEntry
}

type trackedEntry struct {
	tracker *presence.Tracker
	refs    int
}

func newTrackerRegistry(d Deps) *trackerRegistry {
	return &trackerRegistry{deps: d, trackers: make(map[string]*trackedEntry)}
}

func (r *trackerRegistry) acquire(accountID string) *presence.Tracker {
	r.mu.Lock()
	e, existed := r.trackers[accountID]
	if !existed {
		tr := presence.NewTracker(accountID, r.deps.Accounts, r.deps.Grace, r.deps.Log)
		tr.OnTransition(func(online bool) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if r.deps.Cache != nil {
				if err := r.deps.Cache.Set(ctx, accountID, online); err != nil {
					r.deps.Log.Debugw("presence cache write dropped", "account", accountID, "err", err)
				}
			}
			r.deps.Events.PresenceChanged(ctx, accountID, online)
		})
		e = &trackedEntry{tracker: tr}
		r.trackers[accountID] = e
	}
	e.refs++
	r.mu.Unlock()

	// Start outside the lock: the initial online write can be slow and
	// must not stall other accounts' connections. Later acquires find
	// the entry already registered.
	if !existed {
		e.tracker.Start()
	}
	return e.tracker
}

func (r *trackerRegistry) release(accountID string) {
	r.mu.Lock()
	e, ok := r.trackers[accountID]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.refs--
	var last *presence.Tracker
	if e.refs <= 0 {
		last = e.tracker
		delete(r.trackers, accountID)
	}
	r.mu.Unlock()

	// The offline write happens unlocked for the same reason as Start.
	if last != nil {
		last.Stop()
	}
}
