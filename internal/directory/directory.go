// Package directory maintains the live contact list for one account.
package directory

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/models"
	"github.com/biodun42/NexThread/internal/store"
)

// Visibility is the directory listing policy: who appears before
// messaging is attempted. The mutual-follow gate on sends holds
// regardless of the policy chosen here.
type Visibility string

const (
	// VisibilityAll lists every account.
	VisibilityAll Visibility = "all"
	// VisibilityFollowing lists accounts the current account follows.
	VisibilityFollowing Visibility = "following"
	// VisibilityMutual lists only mutual follows.
	VisibilityMutual Visibility = "mutual"
)

// Directory subscribes to the account collection and keeps a filtered,
// live contact list. When the subscription drops, the last good
// snapshot is retained and marked stale instead of collapsing to an
// empty list.
type Directory struct {
	selfID     string
	accounts   store.AccountStore
	visibility Visibility
	log        *zap.SugaredLogger

	mu       sync.RWMutex
	self     *models.Account
	contacts []models.Account
	stale    bool
	sub      store.Subscription

	onUpdate func([]models.Account)
	onStale  func(error)
}

func New(selfID string, accounts store.AccountStore, visibility Visibility, log *zap.SugaredLogger) *Directory {
	return &Directory{
		selfID:     selfID,
		accounts:   accounts,
		visibility: visibility,
		log:        log,
	}
}

// OnUpdate registers a callback invoked with each new contact
// snapshot. Must be set before Start.
func (d *Directory) OnUpdate(fn func([]models.Account)) { d.onUpdate = fn }

// OnStale registers a callback invoked when the stream drops. Must be
// set before Start.
func (d *Directory) OnStale(fn func(error)) { d.onStale = fn }

// Start begins streaming the account collection.
func (d *Directory) Start(ctx context.Context) error {
	sub, err := d.accounts.Watch(ctx, d.apply, d.fail)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.sub = sub
	d.mu.Unlock()
	return nil
}

// Stop cancels the subscription.
func (d *Directory) Stop() {
	d.mu.Lock()
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

func (d *Directory) apply(all []models.Account) {
	d.mu.Lock()
	var self *models.Account
	for i := range all {
		if all[i].ID == d.selfID {
			self = &all[i]
			break
		}
	}
	d.self = self
	contacts := Filter(self, all, d.visibility)
	d.contacts = contacts
	d.stale = false
	fn := d.onUpdate
	d.mu.Unlock()

	if fn != nil {
		fn(contacts)
	}
}

// Filter applies the visibility policy to a full account snapshot,
// dropping self. Shared with one-shot listings that have no live
// directory.
func Filter(self *models.Account, all []models.Account, v Visibility) []models.Account {
	out := []models.Account{}
	for i := range all {
		a := all[i]
		if self != nil && a.ID == self.ID {
			continue
		}
		switch v {
		case VisibilityFollowing:
			if self == nil || !self.Follows(a.ID) {
				continue
			}
		case VisibilityMutual:
			if !models.CanMessage(self, &a) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func (d *Directory) fail(err error) {
	d.mu.Lock()
	d.stale = true
	fn := d.onStale
	d.mu.Unlock()
	d.log.Errorw("contact stream dropped", "err", err)
	if fn != nil {
		fn(err)
	}
}

// Contacts returns the latest snapshot and whether it is stale.
func (d *Directory) Contacts() ([]models.Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Account, len(d.contacts))
	copy(out, d.contacts)
	return out, d.stale
}

// Search filters the last snapshot by a case-insensitive substring
// match on display name. Synchronous, no store round-trip.
func (d *Directory) Search(term string) []models.Account {
	term = strings.ToLower(term)
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []models.Account{}
	for _, a := range d.contacts {
		if strings.Contains(strings.ToLower(a.Name), term) {
			out = append(out, a)
		}
	}
	return out
}

// Self returns the current account as last observed on the stream.
func (d *Directory) Self() *models.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.self
}

// Contact returns one contact from the last snapshot.
func (d *Directory) Contact(id string) *models.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.contacts {
		if d.contacts[i].ID == id {
			return &d.contacts[i]
		}
	}
	return nil
}

// CanMessage evaluates the mutual-follow gate against the latest
// snapshot.
func (d *Directory) CanMessage(contactID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var contact *models.Account
	for i := range d.contacts {
		if d.contacts[i].ID == contactID {
			contact = &d.contacts[i]
			break
		}
	}
	return models.CanMessage(d.self, contact)
}
