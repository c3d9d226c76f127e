// Package session orchestrates one open direct-message conversation:
// history, live updates, the mutual-follow gate, sends and read
// receipts.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/apperr"
	"github.com/biodun42/NexThread/internal/conversation"
	"github.com/biodun42/NexThread/internal/models"
	"github.com/biodun42/NexThread/internal/store"
	"github.com/biodun42/NexThread/internal/uploader"
)

type State int

const (
	// Idle: no contact selected.
	Idle State = iota
	// Loading: subscription issued, first snapshot not yet delivered.
	Loading
	// Live: subscribed and rendering.
	Live
)

// AccountGetter resolves accounts for the gate check.
// store.AccountStore satisfies it.
type AccountGetter interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// Uploads ships an attachment and returns its durable URL.
type Uploads interface {
	Upload(ctx context.Context, ownerID string, f uploader.File, progress func(float64)) (*uploader.Result, error)
}

// Session is the state machine for one account's open conversation.
// The rendered message list is always exactly the adapter snapshot:
// there is no optimistic local echo, so a just-sent message appears
// only when the live subscription delivers it. One source of truth, no
// reconciliation.
type Session struct {
	selfID   string
	accounts AccountGetter
	messages store.MessageStore
	uploads  Uploads
	log      *zap.SugaredLogger

	onSnapshot func([]models.Message)
	onError    func(error)
	onSent     func(id string, kind string)

	mu         sync.Mutex
	state      State
	contactID  string
	key        conversation.Key
	canMessage bool
	sub        store.Subscription
	// gen fences subscriptions: deliveries carry the generation they
	// were issued under and are dropped when it is no longer current,
	// so a late snapshot from a cancelled subscription can never leak
	// into the view of the next contact.
	gen uint64
}

func New(selfID string, accounts AccountGetter, messages store.MessageStore, uploads Uploads, log *zap.SugaredLogger) *Session {
	return &Session{
		selfID:   selfID,
		accounts: accounts,
		messages: messages,
		uploads:  uploads,
		log:      log,
	}
}

// OnSnapshot registers the render callback. Snapshots arrive in store
// order (created-at ascending) and are never reordered here.
func (s *Session) OnSnapshot(fn func([]models.Message)) { s.onSnapshot = fn }

// OnError registers the callback for subscription failures. An error
// here means "stale", not "no messages yet".
func (s *Session) OnError(fn func(error)) { s.onError = fn }

// OnSent registers a hook invoked after a successful send.
func (s *Session) OnSent(fn func(id, kind string)) { s.onSent = fn }

// Open starts a conversation with contactID. Opening with the gate
// down still succeeds in read-only mode: existing history renders,
// sends fail with ErrNotAuthorized. Opening while another conversation
// is active cancels its subscription first.
func (s *Session) Open(ctx context.Context, contactID string) error {
	if contactID == s.selfID {
		return apperr.Validation("cannot open a conversation with yourself")
	}

	contact, err := s.accounts.Get(ctx, contactID)
	if err != nil {
		return err
	}
	self, err := s.accounts.Get(ctx, s.selfID)
	if err != nil {
		return err
	}
	canMessage := models.CanMessage(self, contact)

	s.mu.Lock()
	old := s.sub
	s.sub = nil
	s.gen++
	gen := s.gen
	s.state = Loading
	s.contactID = contactID
	s.key = conversation.NewKey(s.selfID, contactID)
	s.canMessage = canMessage
	key := s.key
	s.mu.Unlock()

	// Cancel outside the lock: a delivery in flight on the old stream
	// holds the subscription's own lock and needs s.mu to finish. The
	// bumped generation already fences its snapshot out.
	if old != nil {
		old.Cancel()
	}

	sub, err := s.messages.Subscribe(ctx, key,
		func(snap []models.Message) { s.apply(gen, snap) },
		func(err error) { s.fail(gen, err) },
	)
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.state = Idle
			s.contactID = ""
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		// A newer Open or Close raced us; this subscription is already
		// obsolete.
		s.mu.Unlock()
		sub.Cancel()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()
	return nil
}

// Close cancels the subscription and returns to Idle. Synchronous: no
// snapshot is delivered after Close returns. Re-opening re-streams the
// whole history from scratch.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.gen++
	s.state = Idle
	s.contactID = ""
	s.canMessage = false
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

func (s *Session) apply(gen uint64, snap []models.Message) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = Live
	fn := s.onSnapshot
	s.mu.Unlock()

	// Snapshot delivered as-is: the store ordered it, and a locally
	// sent message is just another element here, never special-cased.
	// Invoked unlocked so the callback may call back into the session.
	if fn != nil {
		fn(snap)
	}
	s.sweepUnread(snap)
}

func (s *Session) fail(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// sweepUnread flips inbound unread messages to read: unordered,
// concurrent, best-effort. Failures are logged and dropped; the next
// snapshot retries them.
func (s *Session) sweepUnread(snap []models.Message) {
	for _, m := range snap {
		if m.Receiver != s.selfID || m.Read {
			continue
		}
		go func(id string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.messages.MarkRead(ctx, id); err != nil {
				s.log.Debugw("read receipt dropped", "message", id, "err", err)
			}
		}(m.ID)
	}
}

// SendText sends a text message through the open conversation.
func (s *Session) SendText(ctx context.Context, text string) error {
	if text == "" {
		return apperr.Validation("empty message")
	}
	return s.send(ctx, models.KindText, text)
}

// SendImage uploads the attachment first and sends the message only on
// upload success; a failed upload never reaches the store.
func (s *Session) SendImage(ctx context.Context, f uploader.File, progress func(float64)) error {
	// Gate before the upload so a blocked send costs no bandwidth.
	if _, err := s.sendable(); err != nil {
		return err
	}
	res, err := s.uploads.Upload(ctx, s.selfID, f, progress)
	if err != nil {
		return err
	}
	return s.send(ctx, models.KindImage, res.URL)
}

// sendable checks the send preconditions and returns the counterpart.
func (s *Session) sendable() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Live {
		return "", apperr.Validation("no live conversation")
	}
	// Enforced here, at the session boundary: the store adapter does
	// not know about follow edges.
	if !s.canMessage {
		return "", apperr.ErrNotAuthorized
	}
	return s.contactID, nil
}

func (s *Session) send(ctx context.Context, kind, content string) error {
	contactID, err := s.sendable()
	if err != nil {
		return err
	}

	id, err := s.messages.Send(ctx, s.selfID, contactID, kind, content)
	if err != nil {
		return err
	}
	if s.onSent != nil {
		s.onSent(id, kind)
	}
	return nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanMessage reports whether the open conversation allows sends.
func (s *Session) CanMessage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canMessage
}

// Contact returns the open conversation's counterpart id, or "".
func (s *Session) Contact() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contactID
}
