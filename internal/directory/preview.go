package directory

import "github.com/biodun42/NexThread/internal/models"

const previewLimit = 25

// Preview derives the sidebar line for one contact from a conversation
// snapshot: the last message (nil when none) and whether any inbound
// message is still unread.
func Preview(selfID string, msgs []models.Message, contactID string) (last *models.Message, unread bool) {
	for i := range msgs {
		m := &msgs[i]
		if m.Sender != contactID && m.Receiver != contactID {
			continue
		}
		last = m
		if m.Sender == contactID && m.Receiver == selfID && !m.Read {
			unread = true
		}
	}
	return last, unread
}

// FormatPreview renders a message for the contact list: images show a
// placeholder, long text is truncated.
func FormatPreview(m *models.Message) string {
	if m == nil {
		return ""
	}
	if m.Kind == models.KindImage {
		return "\U0001F4F7 Image"
	}
	if len(m.Content) > previewLimit {
		return m.Content[:previewLimit] + "..."
	}
	return m.Content
}
