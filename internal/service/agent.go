package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	openaigo "github.com/sashabaranov/go-openai"

	"github.com/doculens-ai/doculens/internal/domain"
)

// DefaultTopK is how many chunks back an answer when the caller does not say.
const DefaultTopK = 5

const noContextResponse = "I couldn't find any relevant documentation for your question. " +
	"Try rephrasing it, or check that the documentation site has been ingested."

// ChatCompleter is the language-model collaborator for answer generation.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, prompt string, history []openaigo.ChatCompletionMessage) (string, error)
}

// Source is one citation attached to an agent response.
type Source struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Confidence float32 `json:"confidence"`
}

// AgentResponse is the structured reply for one user message. Retrieval or
// model failures never surface as errors; they are folded into the response
// with Error carrying the explanation.
type AgentResponse struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Sources   []Source  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// agentSession pairs one conversation with its own lock so concurrent
// requests for the same session serialize history mutation without blocking
// other sessions.
type agentSession struct {
	mu   sync.Mutex
	conv *domain.ConversationContext
}

// AgentService orchestrates retrieve-then-answer for chat sessions.
type AgentService struct {
	retriever Retriever
	chat      ChatCompleter

	mu       sync.Mutex
	sessions map[string]*agentSession
}

// NewAgentService creates a new AgentService instance. chat may be nil, in
// which case answers are built extractively from the retrieved chunks.
func NewAgentService(retriever Retriever, chat ChatCompleter) *AgentService {
	return &AgentService{
		retriever: retriever,
		chat:      chat,
		sessions:  make(map[string]*agentSession),
	}
}

// ProcessMessage answers one user message within a session. An empty message
// is the only caller-facing error; everything downstream degrades into the
// structured response.
func (s *AgentService) ProcessMessage(ctx context.Context, message, sessionID string, topK int) (*AgentResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	chunks, err := s.retriever.Retrieve(ctx, message, topK)
	if err != nil {
		// only validation errors escape the retriever
		return nil, err
	}

	resp := &AgentResponse{
		SessionID: sessionID,
		Sources:   sourcesFrom(chunks),
		Timestamp: time.Now().UTC(),
	}

	if len(chunks) == 0 {
		resp.Response = noContextResponse
	} else {
		resp.Response, resp.Error = s.answer(ctx, message, chunks, session.conv.MessageHistory)
	}

	s.remember(session.conv, domain.SenderUser, message)
	s.remember(session.conv, domain.SenderAgent, resp.Response)

	return resp, nil
}

// History returns a copy of the session's message history, empty when the
// session is unknown.
func (s *AgentService) History(sessionID string) []domain.ChatMessage {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return []domain.ChatMessage{}
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	out := make([]domain.ChatMessage, len(session.conv.MessageHistory))
	copy(out, session.conv.MessageHistory)
	return out
}

// session returns the session for id, creating it on first use.
func (s *AgentService) session(id string) (*agentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		return session, nil
	}

	conv, err := domain.NewConversationContext(id, nil)
	if err != nil {
		return nil, err
	}
	session := &agentSession{conv: conv}
	s.sessions[id] = session
	return session, nil
}

// answer generates the model response for message over the retrieved
// context. A model failure falls back to an extractive answer and reports
// the failure on the response instead of erroring.
func (s *AgentService) answer(ctx context.Context, message string, chunks []domain.RetrievedChunk, history []domain.ChatMessage) (string, string) {
	if s.chat == nil {
		return extractiveAnswer(chunks), ""
	}

	answer, err := s.chat.ChatCompletion(ctx, buildPrompt(message, chunks), chatHistory(history))
	if err != nil {
		log.Printf("agent: chat completion failed, falling back to extractive answer: %v", err)
		return extractiveAnswer(chunks), fmt.Sprintf("answer generation degraded: %v", err)
	}
	return answer, ""
}

// remember appends a message to the conversation, trimming the oldest
// entries first when the history is at capacity.
func (s *AgentService) remember(conv *domain.ConversationContext, sender domain.MessageSender, content string) {
	if len(conv.MessageHistory) >= domain.MaxHistorySize {
		conv.Trim(domain.MaxHistorySize - 1)
	}
	msg := domain.ChatMessage{
		ID:        uuid.New().String(),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
	}
	if err := conv.Append(msg); err != nil {
		log.Printf("agent: dropping message for session %s: %v", conv.SessionID, err)
	}
}

// buildPrompt folds the retrieved chunks into a grounded prompt.
func buildPrompt(message string, chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the documentation excerpts below. ")
	b.WriteString("Cite nothing that is not in them; say so when they do not cover the question.\n\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, chunk.SourceURL, chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(message)
	return b.String()
}

// chatHistory maps conversation messages onto chat-completion roles.
func chatHistory(history []domain.ChatMessage) []openaigo.ChatCompletionMessage {
	messages := make([]openaigo.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role := openaigo.ChatMessageRoleUser
		if msg.Sender == domain.SenderAgent {
			role = openaigo.ChatMessageRoleAssistant
		}
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}

// extractiveAnswer stitches the best chunks into a direct quote answer, used
// when no language model is configured or it fails.
func extractiveAnswer(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Here is what the documentation says:\n")
	limit := len(chunks)
	if limit > 3 {
		limit = 3
	}
	for _, chunk := range chunks[:limit] {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(chunk.Content))
		if chunk.SourceURL != "" {
			fmt.Fprintf(&b, "\n(source: %s)", chunk.SourceURL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// sourcesFrom lists each distinct source once, keeping the best score.
func sourcesFrom(chunks []domain.RetrievedChunk) []Source {
	sources := make([]Source, 0, len(chunks))
	seen := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		if chunk.SourceURL == "" || seen[chunk.SourceURL] {
			continue
		}
		seen[chunk.SourceURL] = true
		sources = append(sources, Source{
			Title:      chunk.Title,
			URL:        chunk.SourceURL,
			Confidence: chunk.Score,
		})
	}
	return sources
}
