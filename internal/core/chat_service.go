package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"chatbox/internal/store"
	"chatbox/internal/utils"
)

// contextWindowSize bounds how many recent messages are sent to the model for
// continuity on each turn.
const contextWindowSize = 10

// ErrAIUnavailable is returned when no AI credential is configured. Handlers
// translate it to HTTP 503.
var ErrAIUnavailable = errors.New("AI service is not configured")

// Store is the persistence surface the chat service needs.
type Store interface {
	CreateConversation(ctx context.Context, title, slug string) (*store.Conversation, error)
	ListConversations(ctx context.Context) ([]store.Conversation, error)
	GetConversationBySlug(ctx context.Context, slug string) (*store.Conversation, error)
	RenameConversation(ctx context.Context, slug, title string) error
	DeleteConversationBySlug(ctx context.Context, slug string) error
	RecordTurn(ctx context.Context, conversationID string) error

	AppendMessage(ctx context.Context, conversationID, role, content string) (*store.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int64) ([]store.Message, error)
	DeleteMessagesByConversation(ctx context.Context, conversationID string) error
}

type ChatService struct {
	db  Store
	llm Completer
}

func NewChatService(db Store, llm Completer) *ChatService {
	return &ChatService{db: db, llm: llm}
}

// TurnResult is what one completed user turn produces. ConversationSlug is
// set only when the turn created the conversation.
type TurnResult struct {
	Response         string
	ConversationID   string
	ConversationSlug string
	UserMessage      *store.Message
	AssistantMessage *store.Message
}

// HandleTurn runs one user turn: create the conversation if needed, persist
// the user message, assemble a bounded history window, call the model, persist
// the reply, and update the conversation metadata.
//
// The user message is stored before the model call so the user's input is
// never lost. A failed call therefore leaves a user message with no reply;
// there is no compensating delete.
func (s *ChatService) HandleTurn(ctx context.Context, message, conversationID string) (*TurnResult, error) {
	isNewConversation := false
	conversationSlug := ""

	if conversationID == "" {
		title := utils.ExtractTitle(message)
		conv, err := s.db.CreateConversation(ctx, title, utils.GenerateSlug(title))
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		conversationID = conv.ID.Hex()
		conversationSlug = conv.Slug
		isNewConversation = true
	}

	userMsg, err := s.db.AppendMessage(ctx, conversationID, store.RoleUser, message)
	if err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	recent, err := s.db.ListMessages(ctx, conversationID, contextWindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	history := make([]*genai.Content, 0, len(recent))
	for _, msg := range recent {
		role := "user"
		if msg.Role == store.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	// The just-persisted user message is in the fetch; drop it from the prior
	// history since it is sent as the live turn.
	if len(history) > 0 {
		history = history[:len(history)-1]
	}

	if !s.llm.Configured() {
		return nil, ErrAIUnavailable
	}

	reply, err := s.llm.Complete(ctx, history, message)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	assistantMsg, err := s.db.AppendMessage(ctx, conversationID, store.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if err := s.db.RecordTurn(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("failed to update conversation metadata: %w", err)
	}

	result := &TurnResult{
		Response:         reply,
		ConversationID:   conversationID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}
	if isNewConversation {
		result.ConversationSlug = conversationSlug
	}
	return result, nil
}

func (s *ChatService) ListConversations(ctx context.Context) ([]store.Conversation, error) {
	return s.db.ListConversations(ctx)
}

func (s *ChatService) CreateConversation(ctx context.Context, title, slug string) (*store.Conversation, error) {
	return s.db.CreateConversation(ctx, title, slug)
}

// GetConversationDetails returns a conversation and all of its messages,
// ascending by timestamp.
func (s *ChatService) GetConversationDetails(ctx context.Context, slug string) (*store.Conversation, []store.Message, error) {
	conv, err := s.db.GetConversationBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.db.ListMessages(ctx, conv.ID.Hex(), 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get messages for conversation: %w", err)
	}
	return conv, messages, nil
}

func (s *ChatService) RenameConversation(ctx context.Context, slug, title string) error {
	return s.db.RenameConversation(ctx, slug, title)
}

// DeleteConversation removes a conversation and all of its messages. Messages
// go first; the two deletes are not wrapped in a transaction, so a crash in
// between can leave the conversation without messages.
func (s *ChatService) DeleteConversation(ctx context.Context, slug string) error {
	conv, err := s.db.GetConversationBySlug(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.db.DeleteMessagesByConversation(ctx, conv.ID.Hex()); err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	return s.db.DeleteConversationBySlug(ctx, slug)
}
