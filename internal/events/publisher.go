// Package events publishes messaging activity to Kafka for downstream
// consumers (notifications, analytics). All publishes are best-effort;
// a broker outage never blocks a send.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/conversation"
)

type MessageSentEvent struct {
	MessageID    string    `json:"message_id"`
	Conversation string    `json:"conversation"`
	Sender       string    `json:"sender"`
	Kind         string    `json:"kind"`
	SentAt       time.Time `json:"sent_at"`
}

type PresenceChangedEvent struct {
	AccountID string    `json:"account_id"`
	Online    bool      `json:"online"`
	At        time.Time `json:"at"`
}

type Publisher struct {
	messages *kafka.Writer
	presence *kafka.Writer
	log      *zap.SugaredLogger
}

func NewPublisher(brokers []string, messageTopic, presenceTopic string, log *zap.SugaredLogger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		})
	}
	return &Publisher{
		messages: newWriter(messageTopic),
		presence: newWriter(presenceTopic),
		log:      log,
	}
}

// MessageSent publishes a message.sent event keyed by conversation so
// per-thread ordering survives partitioning.
func (p *Publisher) MessageSent(ctx context.Context, messageID string, key conversation.Key, sender, kind string) {
	if p == nil {
		return
	}
	ev := MessageSentEvent{
		MessageID:    messageID,
		Conversation: key.String(),
		Sender:       sender,
		Kind:         kind,
		SentAt:       time.Now().UTC(),
	}
	b, _ := json.Marshal(ev)
	if err := p.messages.WriteMessages(ctx, kafka.Message{Key: []byte(key.String()), Value: b, Time: time.Now()}); err != nil {
		p.log.Debugw("message.sent publish dropped", "message", messageID, "err", err)
	}
}

// PresenceChanged publishes a presence transition keyed by account.
func (p *Publisher) PresenceChanged(ctx context.Context, accountID string, online bool) {
	if p == nil {
		return
	}
	ev := PresenceChangedEvent{AccountID: accountID, Online: online, At: time.Now().UTC()}
	b, _ := json.Marshal(ev)
	if err := p.presence.WriteMessages(ctx, kafka.Message{Key: []byte(accountID), Value: b, Time: time.Now()}); err != nil {
		p.log.Debugw("presence.changed publish dropped", "account", accountID, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.messages.Close(); err != nil {
		return err
	}
	return p.presence.Close()
}
