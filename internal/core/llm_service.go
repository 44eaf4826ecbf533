package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	chatModelName = "gemini-1.5-flash"

	// Tuning constants for the completion call. Not user-configurable.
	maxOutputTokens = int32(4000)
	temperature     = float32(0.7)
	topP            = float32(0.8)
	topK            = int32(40)

	systemPrompt = "You are a helpful AI assistant. Please provide detailed, well-structured responses with proper formatting. Use markdown formatting for:\n" +
		"- Headers (## for sections)\n" +
		"- Code blocks (```language for syntax highlighting)\n" +
		"- Lists (bullet points and numbered lists)\n" +
		"- Inline code (`code`)\n" +
		"- Bold text (**bold**)\n" +
		"- Italic text (*italic*)\n\n" +
		"Make your responses comprehensive and educational."
)

// Completer is the slice of the LLM service the chat service depends on.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, history []*genai.Content, userText string) (string, error)
}

type LLMService struct {
	client *genai.Client
}

// NewLLMService creates the Gemini client. An empty API key is not fatal: the
// service starts unconfigured and every turn fails with ErrAIUnavailable until
// a key is provided, so the rest of the app keeps working.
func NewLLMService(apiKey string) *LLMService {
	if apiKey == "" {
		log.Println("GEMINI_API_KEY is not set. Chat functionality will be limited.")
		return &LLMService{}
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}
	return &LLMService{client: client}
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *LLMService) Configured() bool {
	return s.client != nil
}

// Complete sends the user's text as the live turn of a chat session seeded
// with the prior history, and returns the model's textual reply.
func (s *LLMService) Complete(ctx context.Context, history []*genai.Content, userText string) (string, error) {
	if s.client == nil {
		return "", ErrAIUnavailable
	}

	model := s.client.GenerativeModel(chatModelName)

	maxTokens := maxOutputTokens
	temp := temperature
	tp := topP
	tk := topK
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
		TopP:            &tp,
		TopK:            &tk,
	}

	chatSession := model.StartChat()
	chatSession.History = history

	prompt := fmt.Sprintf("%s\n\nUser: %s", systemPrompt, userText)
	resp, err := chatSession.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Println("Gemini response was empty or had no valid candidates/parts.")
		return "I'm sorry, I couldn't generate a response at this time. Please try again.", nil
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "I received an empty or non-text response, please try rephrasing your question.", nil
	}

	return responseText.String(), nil
}
