package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatbox/internal/store"
)

// fakeStore keeps conversations and messages in memory with the same ordering
// semantics as the mongo store.
type fakeStore struct {
	conversations map[string]*store.Conversation // keyed by hex id
	messages      []store.Message
	turnsRecorded map[string]int
	appendErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*store.Conversation),
		turnsRecorded: make(map[string]int),
	}
}

func (f *fakeStore) CreateConversation(ctx context.Context, title, slug string) (*store.Conversation, error) {
	now := time.Now()
	conv := &store.Conversation{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.conversations[conv.ID.Hex()] = conv
	return conv, nil
}

func (f *fakeStore) ListConversations(ctx context.Context) ([]store.Conversation, error) {
	var out []store.Conversation
	for _, c := range f.conversations {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) GetConversationBySlug(ctx context.Context, slug string) (*store.Conversation, error) {
	for _, c := range f.conversations {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) RenameConversation(ctx context.Context, slug, title string) error {
	for _, c := range f.conversations {
		if c.Slug == slug {
			c.Title = title
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteConversationBySlug(ctx context.Context, slug string) error {
	for id, c := range f.conversations {
		if c.Slug == slug {
			delete(f.conversations, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) RecordTurn(ctx context.Context, conversationID string) error {
	conv, ok := f.conversations[conversationID]
	if !ok {
		return store.ErrNotFound
	}
	conv.MessageCount += 2
	conv.UpdatedAt = time.Now()
	f.turnsRecorded[conversationID]++
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, conversationID, role, content string) (*store.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	msg := store.Message{
		ID:             fmt.Sprintf("msg-%d", len(f.messages)+1),
		ConversationID: conversationID,
		Content:        content,
		Role:           role,
		Timestamp:      time.Now(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, conversationID string, limit int64) ([]store.Message, error) {
	var msgs []store.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			msgs = append(msgs, m)
		}
	}
	if limit > 0 && int64(len(msgs)) > limit {
		msgs = msgs[int64(len(msgs))-limit:]
	}
	return msgs, nil
}

func (f *fakeStore) DeleteMessagesByConversation(ctx context.Context, conversationID string) error {
	var kept []store.Message
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

type fakeCompleter struct {
	configured  bool
	reply       string
	err         error
	calls       int
	lastHistory []*genai.Content
	lastText    string
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) Complete(ctx context.Context, history []*genai.Content, userText string) (string, error) {
	f.calls++
	f.lastHistory = history
	f.lastText = userText
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestHandleTurnNewConversation(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "Hi! How can I help?"}
	svc := NewChatService(db, llm)

	result, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.NoError(t, err)

	assert.Equal(t, "Hi! How can I help?", result.Response)
	assert.NotEmpty(t, result.ConversationID)
	assert.NotEmpty(t, result.ConversationSlug, "slug must be surfaced on creation")
	assert.Equal(t, store.RoleUser, result.UserMessage.Role)
	assert.Equal(t, store.RoleAssistant, result.AssistantMessage.Role)

	conv := db.conversations[result.ConversationID]
	require.NotNil(t, conv)
	assert.Equal(t, "Hello", conv.Title)
	assert.Equal(t, 2, conv.MessageCount)

	msgs, _ := db.ListMessages(context.Background(), result.ConversationID, 0)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.RoleUser, msgs[0].Role)
	assert.Equal(t, store.RoleAssistant, msgs[1].Role)
}

func TestHandleTurnExistingConversationOmitsSlug(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "reply"}
	svc := NewChatService(db, llm)

	first, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.NoError(t, err)

	second, err := svc.HandleTurn(context.Background(), "Tell me more", first.ConversationID)
	require.NoError(t, err)

	assert.Empty(t, second.ConversationSlug, "slug is only surfaced on creation")
	assert.Equal(t, first.ConversationID, second.ConversationID)

	conv := db.conversations[first.ConversationID]
	assert.Equal(t, 4, conv.MessageCount)
}

func TestHandleTurnTitleDerivedFromFirstMessage(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "ok"}
	svc := NewChatService(db, llm)

	result, err := svc.HandleTurn(context.Background(), "one two three four five six seven", "")
	require.NoError(t, err)

	conv := db.conversations[result.ConversationID]
	assert.Equal(t, "one two three four five six...", conv.Title)
}

func TestHandleTurnAIUnavailable(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: false}
	svc := NewChatService(db, llm)

	_, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.ErrorIs(t, err, ErrAIUnavailable)
	assert.Zero(t, llm.calls)

	// The user message is persisted before the availability check; no
	// assistant message may exist afterwards.
	require.Len(t, db.messages, 1)
	assert.Equal(t, store.RoleUser, db.messages[0].Role)
}

func TestHandleTurnCompletionFailureKeepsUserMessage(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "ok"}
	svc := NewChatService(db, llm)

	first, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.NoError(t, err)

	llm.err = errors.New("upstream exploded")
	_, err = svc.HandleTurn(context.Background(), "and then?", first.ConversationID)
	require.Error(t, err)

	// The second user message stays; no assistant reply is stored for it and
	// the conversation metadata is not bumped.
	msgs, _ := db.ListMessages(context.Background(), first.ConversationID, 0)
	require.Len(t, msgs, 3)
	assert.Equal(t, store.RoleUser, msgs[2].Role)
	assert.Equal(t, "and then?", msgs[2].Content)
	assert.Equal(t, 2, db.conversations[first.ConversationID].MessageCount)
}

func TestHandleTurnContextBounding(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "reply"}
	svc := NewChatService(db, llm)

	first, err := svc.HandleTurn(context.Background(), "turn 0", "")
	require.NoError(t, err)
	convID := first.ConversationID

	for i := 1; i <= 12; i++ {
		_, err := svc.HandleTurn(context.Background(), fmt.Sprintf("turn %d", i), convID)
		require.NoError(t, err)
	}

	// 26 messages stored; the fetch is capped at 10 and the live turn is
	// excluded, so at most 9 prior messages reach the model.
	assert.LessOrEqual(t, len(llm.lastHistory), 9)
	assert.Equal(t, "turn 12", llm.lastText)

	// History ends with the assistant reply that preceded the live user turn.
	require.NotEmpty(t, llm.lastHistory)
	assert.Equal(t, "model", llm.lastHistory[len(llm.lastHistory)-1].Role)
}

func TestHandleTurnRoleMapping(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "reply"}
	svc := NewChatService(db, llm)

	first, err := svc.HandleTurn(context.Background(), "hello", "")
	require.NoError(t, err)

	_, err = svc.HandleTurn(context.Background(), "again", first.ConversationID)
	require.NoError(t, err)

	require.Len(t, llm.lastHistory, 2)
	assert.Equal(t, "user", llm.lastHistory[0].Role)
	assert.Equal(t, "model", llm.lastHistory[1].Role)
}

func TestDeleteConversationCascades(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "reply"}
	svc := NewChatService(db, llm)

	result, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.NoError(t, err)

	err = svc.DeleteConversation(context.Background(), result.ConversationSlug)
	require.NoError(t, err)

	_, _, err = svc.GetConversationDetails(context.Background(), result.ConversationSlug)
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs, _ := db.ListMessages(context.Background(), result.ConversationID, 0)
	assert.Empty(t, msgs)
}

func TestDeleteConversationNotFound(t *testing.T) {
	svc := NewChatService(newFakeStore(), &fakeCompleter{configured: true})
	err := svc.DeleteConversation(context.Background(), "no-such-slug")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetConversationDetailsOrdersMessagesAscending(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "reply"}
	svc := NewChatService(db, llm)

	result, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.NoError(t, err)
	_, err = svc.HandleTurn(context.Background(), "More", result.ConversationID)
	require.NoError(t, err)

	conv, msgs, err := svc.GetConversationDetails(context.Background(), result.ConversationSlug)
	require.NoError(t, err)
	assert.Equal(t, 4, conv.MessageCount)
	require.Len(t, msgs, 4)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
	assert.Equal(t, []string{"user", "assistant", "user", "assistant"},
		[]string{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role})
}

func TestRenameConversationKeepsSlug(t *testing.T) {
	db := newFakeStore()
	llm := &fakeCompleter{configured: true, reply: "reply"}
	svc := NewChatService(db, llm)

	result, err := svc.HandleTurn(context.Background(), "Hello", "")
	require.NoError(t, err)

	err = svc.RenameConversation(context.Background(), result.ConversationSlug, "New title")
	require.NoError(t, err)

	conv, _, err := svc.GetConversationDetails(context.Background(), result.ConversationSlug)
	require.NoError(t, err)
	assert.Equal(t, "New title", conv.Title)
	assert.Equal(t, result.ConversationSlug, conv.Slug)
}
