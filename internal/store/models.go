package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Slug         string             `bson:"slug" json:"slug"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	MessageCount int                `bson:"messageCount" json:"messageCount"`
}

type Message struct {
	ID             string    `bson:"_id,omitempty" json:"_id"` // UUID
	ConversationID string    `bson:"conversationId" json:"conversationId"`
	Content        string    `bson:"content" json:"content"`
	Role           string    `bson:"role" json:"role"` // "user" or "assistant"
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}
