package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateConversation inserts a new conversation with a zero message count and
// returns the full record including the id assigned by the store.
func (s *MongoStore) CreateConversation(ctx context.Context, title, slug string) (*Conversation, error) {
	now := time.Now()
	conv := Conversation{
		Title:        title,
		Slug:         slug,
		CreatedAt:    now,
		UpdatedAt:    now,
		MessageCount: 0,
	}

	res, err := s.conversations().InsertOne(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	conv.ID = res.InsertedID.(primitive.ObjectID)
	return &conv, nil
}

// ListConversations returns every conversation, most recently updated first.
// There is no pagination.
func (s *MongoStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := s.conversations().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

func (s *MongoStore) GetConversationBySlug(ctx context.Context, slug string) (*Conversation, error) {
	var conv Conversation
	err := s.conversations().FindOne(ctx, bson.D{{Key: "slug", Value: slug}}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// RenameConversation updates the title and bumps updatedAt. The slug is not
// regenerated on rename.
func (s *MongoStore) RenameConversation(ctx context.Context, slug, title string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: title},
		{Key: "updatedAt", Value: time.Now()},
	}}}
	res, err := s.conversations().UpdateOne(ctx, bson.D{{Key: "slug", Value: slug}}, update)
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversationBySlug removes the conversation only. The caller deletes
// the dependent messages first (see ChatService.DeleteConversation).
func (s *MongoStore) DeleteConversationBySlug(ctx context.Context, slug string) error {
	res, err := s.conversations().DeleteOne(ctx, bson.D{{Key: "slug", Value: slug}})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordTurn refreshes updatedAt and increments messageCount by 2 (one user
// plus one assistant message) in a single update call. The update is not
// atomic with the message inserts, so the count is eventually consistent.
func (s *MongoStore) RecordTurn(ctx context.Context, conversationID string) error {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation id %q: %w", conversationID, err)
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now()}}},
		{Key: "$inc", Value: bson.D{{Key: "messageCount", Value: 2}}},
	}
	res, err := s.conversations().UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update conversation metadata: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
