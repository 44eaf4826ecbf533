package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppendMessage inserts an immutable message record with the current timestamp.
// Content length is not validated here; the interface layer enforces its own
// soft cap.
func (s *MongoStore) AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error) {
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		Role:           role,
		Timestamp:      time.Now(),
	}

	if _, err := s.messages().InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns a conversation's messages ordered by timestamp
// ascending. A positive limit returns only the most recent N messages, still
// in ascending order, which bounds the context window sent to the model.
func (s *MongoStore) ListMessages(ctx context.Context, conversationID string, limit int64) ([]Message, error) {
	filter := bson.D{{Key: "conversationId", Value: conversationID}}

	if limit <= 0 {
		opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
		cursor, err := s.messages().Find(ctx, filter, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to query messages: %w", err)
		}
		defer cursor.Close(ctx)

		var msgs []Message
		if err := cursor.All(ctx, &msgs); err != nil {
			return nil, fmt.Errorf("failed to decode messages: %w", err)
		}
		return msgs, nil
	}

	// Fetch the newest N descending, then reverse back to ascending.
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := s.messages().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// DeleteMessagesByConversation bulk-removes all messages of a conversation.
// Used only as the first step of conversation deletion.
func (s *MongoStore) DeleteMessagesByConversation(ctx context.Context, conversationID string) error {
	_, err := s.messages().DeleteMany(ctx, bson.D{{Key: "conversationId", Value: conversationID}})
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
