package api

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/biodun42/NexThread/internal/directory"
	"github.com/biodun42/NexThread/internal/models"
)

type contactsFrame struct {
	Type     string           `json:"type"`
	Contacts []models.Account `json:"contacts,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// contactsWS streams the contact list live: one frame per account
// collection change, filtered by the visibility policy. On a dropped
// stream the client keeps its last frame and gets a stale marker.
func (h *handlers) contactsWS(c *websocket.Conn) {
	selfID, _ := c.Locals("account_id").(string)

	out := make(chan contactsFrame, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for fr := range out {
			_ = c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.WriteJSON(fr); err != nil {
				return
			}
		}
	}()
	push := func(fr contactsFrame) {
		select {
		case out <- fr:
		default:
		}
	}

	dir := directory.New(selfID, h.deps.Accounts, h.deps.Visibility, h.deps.Log)
	dir.OnUpdate(func(contacts []models.Account) {
		push(contactsFrame{Type: "contacts", Contacts: contacts})
	})
	dir.OnStale(func(err error) {
		push(contactsFrame{Type: "stale", Error: err.Error()})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := dir.Start(ctx)
	cancel()
	if err != nil {
		push(contactsFrame{Type: "error", Error: err.Error()})
		close(out)
		<-done
		_ = c.Close()
		return
	}
	defer func() {
		dir.Stop()
		close(out)
		<-done
		_ = c.Close()
	}()

	// Inbound frames are ignored; reading only detects the close.
	c.SetReadLimit(1 << 10)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
