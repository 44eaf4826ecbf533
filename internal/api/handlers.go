package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatbox/internal/core"
	"chatbox/internal/store"
)

// ChatService is the application surface the handlers dispatch to.
type ChatService interface {
	HandleTurn(ctx context.Context, message, conversationID string) (*core.TurnResult, error)
	ListConversations(ctx context.Context) ([]store.Conversation, error)
	CreateConversation(ctx context.Context, title, slug string) (*store.Conversation, error)
	GetConversationDetails(ctx context.Context, slug string) (*store.Conversation, []store.Message, error)
	RenameConversation(ctx context.Context, slug, title string) error
	DeleteConversation(ctx context.Context, slug string) error
}

type APIHandler struct {
	chatService ChatService
	devMode     bool
}

func NewAPIHandler(cs ChatService, devMode bool) *APIHandler {
	return &APIHandler{chatService: cs, devMode: devMode}
}

// ValidationError marks a malformed or incomplete request body. Handlers
// translate it to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const aiUnavailableMsg = "AI service is not configured. Please set GEMINI_API_KEY environment variable."

// writeError converts any error from the service layer into the JSON error
// envelope. Full error detail is exposed only in development mode.
func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Msg})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Conversation not found"})
	case errors.Is(err, core.ErrAIUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: aiUnavailableMsg})
	default:
		resp := errorResponse{Error: err.Error()}
		if h.devMode {
			resp.Details = fmt.Sprintf("%+v", err)
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return &ValidationError{Msg: "Message is required"}
	}
	return nil
}

type ChatResponse struct {
	Success          bool           `json:"success"`
	Response         string         `json:"response"`
	ConversationID   string         `json:"conversationId"`
	ConversationSlug string         `json:"conversationSlug,omitempty"`
	UserMessage      *store.Message `json:"userMessage"`
	AssistantMessage *store.Message `json:"assistantMessage"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &ValidationError{Msg: "Invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.chatService.HandleTurn(r.Context(), req.Message, req.ConversationID)
	if err != nil {
		log.Printf("Error in chat API: %v", err)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Success:          true,
		Response:         result.Response,
		ConversationID:   result.ConversationID,
		ConversationSlug: result.ConversationSlug,
		UserMessage:      result.UserMessage,
		AssistantMessage: result.AssistantMessage,
	})
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chatService.ListConversations(r.Context())
	if err != nil {
		log.Printf("Error fetching conversations: %v", err)
		h.writeError(w, err)
		return
	}
	if conversations == nil {
		conversations = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

type CreateConversationRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func (r *CreateConversationRequest) Validate() error {
	if r.Title == "" {
		return &ValidationError{Msg: "Title is required"}
	}
	if r.Slug == "" {
		return &ValidationError{Msg: "Slug is required"}
	}
	return nil
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &ValidationError{Msg: "Invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	conversation, err := h.chatService.CreateConversation(r.Context(), req.Title, req.Slug)
	if err != nil {
		log.Printf("Error creating conversation: %v", err)
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

type ConversationDetailsResponse struct {
	Conversation *store.Conversation `json:"conversation"`
	Messages     []store.Message     `json:"messages"`
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	conversation, messages, err := h.chatService.GetConversationDetails(r.Context(), slug)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error fetching conversation %s: %v", slug, err)
		}
		h.writeError(w, err)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, ConversationDetailsResponse{
		Conversation: conversation,
		Messages:     messages,
	})
}

type RenameConversationRequest struct {
	Title string `json:"title"`
}

func (r *RenameConversationRequest) Validate() error {
	if r.Title == "" {
		return &ValidationError{Msg: "Title is required"}
	}
	return nil
}

func (h *APIHandler) RenameConversationHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &ValidationError{Msg: "Invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.chatService.RenameConversation(r.Context(), slug, req.Title); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error updating conversation %s: %v", slug, err)
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.chatService.DeleteConversation(r.Context(), slug); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error deleting conversation %s: %v", slug, err)
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
