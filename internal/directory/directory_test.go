package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biodun42/NexThread/internal/logger"
	"github.com/biodun42/NexThread/internal/models"
	"github.com/biodun42/NexThread/internal/store"
)

type fakeAccounts struct {
	mu       sync.Mutex
	onChange func([]models.Account)
	onError  func(error)
}

type fakeSub struct{ cancelled bool }

func (s *fakeSub) Cancel() { s.cancelled = true }

func (f *fakeAccounts) Get(context.Context, string) (*models.Account, error) { return nil, nil }
func (f *fakeAccounts) List(context.Context) ([]models.Account, error)       { return nil, nil }
func (f *fakeAccounts) Follow(context.Context, string, string) error         { return nil }
func (f *fakeAccounts) Unfollow(context.Context, string, string) error       { return nil }
func (f *fakeAccounts) SetPresence(context.Context, string, bool) error      { return nil }

func (f *fakeAccounts) Watch(_ context.Context, onChange func([]models.Account), onError func(error)) (store.Subscription, error) {
	f.mu.Lock()
	f.onChange = onChange
	f.onError = onError
	f.mu.Unlock()
	return &fakeSub{}, nil
}

func (f *fakeAccounts) push(accounts []models.Account) {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	fn(accounts)
}

func accounts() []models.Account {
	return []models.Account{
		{ID: "me", Name: "Me", Following: []string{"ann", "bob"}},
		{ID: "ann", Name: "Ann Lee", Following: []string{"me"}},
		{ID: "bob", Name: "Bob Stone", Following: []string{"ann"}},
		{ID: "cat", Name: "Cat Grey", Following: []string{"me"}},
	}
}

func newDirectory(t *testing.T, v Visibility) (*Directory, *fakeAccounts) {
	t.Helper()
	fa := &fakeAccounts{}
	d := New("me", fa, v, logger.Nop())
	require.NoError(t, d.Start(context.Background()))
	return d, fa
}

func TestVisibilityFollowing(t *testing.T) {
	d, fa := newDirectory(t, VisibilityFollowing)
	fa.push(accounts())

	contacts, stale := d.Contacts()
	assert.False(t, stale)
	require.Len(t, contacts, 2)
	assert.Equal(t, "ann", contacts[0].ID)
	assert.Equal(t, "bob", contacts[1].ID)
}

func TestVisibilityMutual(t *testing.T) {
	d, fa := newDirectory(t, VisibilityMutual)
	fa.push(accounts())

	contacts, _ := d.Contacts()
	// Only ann follows back.
	require.Len(t, contacts, 1)
	assert.Equal(t, "ann", contacts[0].ID)
}

func TestVisibilityAllExcludesSelf(t *testing.T) {
	d, fa := newDirectory(t, VisibilityAll)
	fa.push(accounts())

	contacts, _ := d.Contacts()
	require.Len(t, contacts, 3)
	for _, c := range contacts {
		assert.NotEqual(t, "me", c.ID)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	d, fa := newDirectory(t, VisibilityAll)
	fa.push(accounts())

	assert.Len(t, d.Search("ANN"), 1)
	assert.Len(t, d.Search("e"), 3) // Ann Lee, Bob Stone, Cat Grey
	assert.Len(t, d.Search("zzz"), 0)
	assert.Len(t, d.Search(""), 3)
}

func TestStaleKeepsLastSnapshot(t *testing.T) {
	d, fa := newDirectory(t, VisibilityFollowing)
	fa.push(accounts())

	fa.onError(errors.New("stream dropped"))
	contacts, stale := d.Contacts()
	assert.True(t, stale)
	assert.Len(t, contacts, 2, "stale list keeps the last good snapshot")

	// A fresh delivery clears the stale flag.
	fa.push(accounts())
	_, stale = d.Contacts()
	assert.False(t, stale)
}

func TestLiveUpdateRecomputesGate(t *testing.T) {
	d, fa := newDirectory(t, VisibilityFollowing)
	fa.push(accounts())
	assert.True(t, d.CanMessage("ann"))
	assert.False(t, d.CanMessage("bob"))

	// bob follows back: the gate opens on the next snapshot.
	updated := accounts()
	updated[2].Following = []string{"ann", "me"}
	fa.push(updated)
	assert.True(t, d.CanMessage("bob"))

	// ann unfollows: one side of the edge flips the gate closed.
	updated = accounts()
	updated[1].Following = nil
	fa.push(updated)
	assert.False(t, d.CanMessage("ann"))
}

func TestOnUpdateCallback(t *testing.T) {
	fa := &fakeAccounts{}
	d := New("me", fa, VisibilityFollowing, logger.Nop())
	got := make(chan []models.Account, 1)
	d.OnUpdate(func(c []models.Account) { got <- c })
	require.NoError(t, d.Start(context.Background()))

	fa.push(accounts())
	select {
	case c := <-got:
		assert.Len(t, c, 2)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestPreview(t *testing.T) {
	t0 := time.Now()
	msgs := []models.Message{
		{ID: "1", Sender: "ann", Receiver: "me", Content: "hey", Kind: models.KindText, CreatedAt: t0, Read: true},
		{ID: "2", Sender: "me", Receiver: "ann", Content: "yo", Kind: models.KindText, CreatedAt: t0.Add(time.Second), Read: true},
		{ID: "3", Sender: "ann", Receiver: "me", Content: "this is a fairly long message body", Kind: models.KindText, CreatedAt: t0.Add(2 * time.Second)},
	}

	last, unread := Preview("me", msgs, "ann")
	require.NotNil(t, last)
	assert.Equal(t, "3", last.ID)
	assert.True(t, unread)
	assert.Equal(t, "this is a fairly long mes...", FormatPreview(last))

	last, unread = Preview("me", msgs, "bob")
	assert.Nil(t, last)
	assert.False(t, unread)

	img := &models.Message{Kind: models.KindImage, Content: "https://cdn/x.png"}
	assert.Equal(t, "\U0001F4F7 Image", FormatPreview(img))
	assert.Equal(t, "", FormatPreview(nil))
}
