package models

import "time"

// Kind of message content.
const (
	KindText  = "text"
	KindImage = "image"
)

// Message is one direct message. Participants always holds the two
// account ids in canonical sorted order; it is both a stored field and
// the filter key for conversation queries. Read starts false and only
// ever flips to true.
type Message struct {
	ID           string    `bson:"_id" json:"id"`
	Sender       string    `bson:"sender" json:"sender"`
	Receiver     string    `bson:"receiver" json:"receiver"`
	Participants [2]string `bson:"participants" json:"participants"`
	Content      string    `bson:"content" json:"content"`
	Kind         string    `bson:"kind" json:"kind"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	Read         bool      `bson:"read" json:"read"`
}
