package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/conversation"
	"github.com/biodun42/NexThread/internal/models"
	"github.com/biodun42/NexThread/internal/session"
	"github.com/biodun42/NexThread/internal/uploader"
)

// Envelope is the WS frame in both directions.
type Envelope struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages,omitempty"`
	Content  string           `json:"content,omitempty"`
	Name     string           `json:"name,omitempty"`
	MimeType string           `json:"mime_type,omitempty"`
	Data     string           `json:"data,omitempty"` // base64 attachment bytes
	Error    string           `json:"error,omitempty"`
}

// conversationWS hosts one live conversation per connection. Client
// sends {"type":"send_text"|"send_image",...}; server pushes
// {"type":"snapshot"} frames as the store delivers them.
func (h *handlers) conversationWS(c *websocket.Conn) {
	selfID, _ := c.Locals("account_id").(string)
	contactID := c.Params("contact_id")
	log := h.deps.Log.With("account", selfID, "contact", contactID)

	out := make(chan Envelope, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for env := range out {
			_ = c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.WriteJSON(env); err != nil {
				return
			}
		}
	}()
	push := func(env Envelope) {
		select {
		case out <- env:
		default:
			// Slow consumer: drop the frame, the next snapshot
			// supersedes it anyway.
		}
	}

	sess := session.New(selfID, h.deps.Accounts, h.deps.Messages, h.deps.Uploader, log)
	sess.OnSnapshot(func(snap []models.Message) {
		push(Envelope{Type: "snapshot", Messages: snap})
	})
	sess.OnError(func(err error) {
		push(Envelope{Type: "stale", Error: err.Error()})
	})
	sess.OnSent(func(id, kind string) {
		h.deps.Events.MessageSent(context.Background(), id, conversation.NewKey(selfID, contactID), selfID, kind)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := sess.Open(ctx, contactID)
	cancel()
	if err != nil {
		push(Envelope{Type: "error", Error: err.Error()})
		close(out)
		<-done
		_ = c.Close()
		return
	}
	defer func() {
		sess.Close()
		close(out)
		<-done
		_ = c.Close()
	}()

	c.SetReadLimit(int64(uploader.MaxSize + 1<<20))
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		h.handleSend(sess, env, push, log)
	}
}

func (h *handlers) handleSend(sess *session.Session, env Envelope, push func(Envelope), log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch env.Type {
	case "send_text":
		err = sess.SendText(ctx, env.Content)
	case "send_image":
		if h.deps.Uploader == nil {
			push(Envelope{Type: "send_error", Error: "attachments disabled"})
			return
		}
		var raw []byte
		raw, err = base64.StdEncoding.DecodeString(env.Data)
		if err == nil {
			err = sess.SendImage(ctx, uploader.File{
				Name:        env.Name,
				ContentType: env.MimeType,
				Data:        raw,
			}, nil)
		}
	default:
		log.Debugw("unknown ws frame", "type", env.Type)
		return
	}
	if err != nil {
		// Compose box content stays with the client; it retries.
		push(Envelope{Type: "send_error", Error: err.Error()})
	}
}
