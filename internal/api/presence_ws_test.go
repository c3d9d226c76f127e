package api

import (
	"context"
	"testing"
	"time"

	"github.com/biodun42/NexThread/internal/logger"
	"github.com/biodun42/NexThread/internal/models"
	"github.com/biodun42/NexThread/internal/store"
)

// blockingAccounts stalls presence writes until released, standing in
// for a slow document store.
type blockingAccounts struct {
	entered chan string
	release chan struct{}
}

func newBlockingAccounts() *blockingAccounts {
	return &blockingAccounts{entered: make(chan string, 8), release: make(chan struct{})}
}

func (b *blockingAccounts) Get(context.Context, string) (*models.Account, error) { return nil, nil }
func (b *blockingAccounts) List(context.Context) ([]models.Account, error)       { return nil, nil }
func (b *blockingAccounts) Watch(context.Context, func([]models.Account), func(error)) (store.Subscription, error) {
	return nil, nil
}
func (b *blockingAccounts) Follow(context.Context, string, string) error   { return nil }
func (b *blockingAccounts) Unfollow(context.Context, string, string) error { return nil }

func (b *blockingAccounts) SetPresence(ctx context.Context, id string, _ bool) error {
	b.entered <- id
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func TestTrackerRegistrySlowWriteDoesNotStallOthers(t *testing.T) {
	ba := newBlockingAccounts()
	reg := newTrackerRegistry(Deps{Accounts: ba, Grace: time.Second, Log: logger.Nop()})

	first := make(chan struct{})
	go func() {
		defer close(first)
		reg.acquire("u1")
	}()
	// The initial online write is now in flight and blocked.
	<-ba.entered

	// Another connection for the same account must get its tracker
	// without waiting out the stalled write.
	second := make(chan struct{})
	go func() {
		defer close(second)
		reg.acquire("u1")
	}()
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("acquire blocked behind another connection's presence write")
	}

	close(ba.release)
	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("initial acquire never finished after the write unblocked")
	}

	reg.release("u1")
	reg.release("u1") // refs hit zero: offline write, entry dropped
	reg.release("u1") // already gone, must be a no-op
}
