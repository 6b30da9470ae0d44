// Package domain defines the conversation and persistence models shared by
// the session, completion, and repository layers.
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation roles. The transcript sent to the completion endpoint tags
// every turn with one of these.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message unit in a conversation. The ordered sequence of turns
// (system instruction first, then alternating user/assistant pairs) is the
// literal payload sent to the completion endpoint on every call.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatEntry is one persisted exchange: the user's input, the assistant's
// reply, and the time the exchange completed.
type ChatEntry struct {
	User      string    `bson:"user"       json:"user"`
	Bot       string    `bson:"bot"        json:"bot"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ChatRecord is the durable chat log for one identity. At most one record
// exists per username; entries are appended in exchange order and never
// rewritten or deleted. Timestamp is set once, when the record is created.
type ChatRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Username  string             `bson:"username"      json:"username"`
	Chat      []ChatEntry        `bson:"chat"          json:"chat"`
	Timestamp time.Time          `bson:"timestamp"     json:"timestamp"`
}
