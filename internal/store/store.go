// Package store is the only boundary crossing into the document store
// for account and message data. Components above it consume these
// interfaces; the Mongo types in this package are the production
// implementation.
package store

import (
	"context"

	"github.com/biodun42/NexThread/internal/conversation"
	"github.com/biodun42/NexThread/internal/models"
)

// Subscription is a live query handle. Cancel is synchronous: once it
// returns, no further onChange or onError callbacks fire.
type Subscription interface {
	Cancel()
}

// MessageStore reads and writes direct messages and streams live
// conversation snapshots.
type MessageStore interface {
	// Subscribe opens a live query for one conversation, ordered
	// ascending by creation time. onChange receives the full ordered
	// snapshot on every update (new message or read flip). Subscribing
	// twice with the same key yields two independent streams; callers
	// cancel the old one themselves.
	Subscribe(ctx context.Context, key conversation.Key, onChange func([]models.Message), onError func(error)) (Subscription, error)

	// History returns the current ordered snapshot without subscribing.
	History(ctx context.Context, key conversation.Key) ([]models.Message, error)

	// Send persists a message with the canonical participants pair, a
	// server-assigned timestamp and read=false, and returns the new id.
	// The message is only guaranteed visible once the subscription
	// delivers it.
	Send(ctx context.Context, sender, receiver, kind, content string) (string, error)

	// MarkRead flips read to true. No-op if already read. Best-effort
	// for callers: failures are ErrWrite and safe to drop.
	MarkRead(ctx context.Context, id string) error
}

// AccountStore reads accounts, streams the account collection, and
// writes the few account fields this module owns (presence, follow
// edges).
type AccountStore interface {
	Get(ctx context.Context, id string) (*models.Account, error)

	// List returns the full account collection.
	List(ctx context.Context) ([]models.Account, error)

	// Watch streams the full account list on every change.
	Watch(ctx context.Context, onChange func([]models.Account), onError func(error)) (Subscription, error)

	// Follow and Unfollow maintain both sides of the edge as two
	// independent idempotent single-document updates. One side landing
	// without the other is an accepted inconsistency window.
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error

	// SetPresence writes the account's own presence record. Going
	// offline stamps last-seen with the server time.
	SetPresence(ctx context.Context, id string, online bool) error
}
