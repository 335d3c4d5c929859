package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/doculens-ai/doculens/internal/api"
	"github.com/doculens-ai/doculens/internal/repository"
	"github.com/doculens-ai/doculens/internal/service"
)

// AgentService answers user messages over the ingested documentation.
type AgentService interface {
	ProcessMessage(ctx context.Context, message, sessionID string, topK int) (*service.AgentResponse, error)
}

// ChatLogger records answered chat turns. Optional.
type ChatLogger interface {
	CreateChatLog(ctx context.Context, entry repository.ChatLogEntry) (string, error)
}

type ChatHandler struct {
	svc  AgentService
	logs ChatLogger
}

// NewChatHandler creates a new ChatHandler. logs may be nil.
func NewChatHandler(svc AgentService, logs ChatLogger) *ChatHandler {
	return &ChatHandler{svc: svc, logs: logs}
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
}

// Chat handles POST /chat. Retrieval outages never surface as non-200 here;
// only invalid input does.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TopK == 0 {
		req.TopK = service.DefaultTopK
	}
	if req.TopK < 1 || req.TopK > service.MaxTopK {
		api.Error(w, http.StatusBadRequest, "top_k must be between 1 and 100")
		return
	}

	resp, err := h.svc.ProcessMessage(r.Context(), req.Message, req.SessionID, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	h.logChat(r.Context(), req.Message, resp)

	api.JSON(w, http.StatusOK, resp)
}

// logChat records the turn, best effort.
func (h *ChatHandler) logChat(ctx context.Context, message string, resp *service.AgentResponse) {
	if h.logs == nil {
		return
	}

	sources := make([]string, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		sources = append(sources, s.URL)
	}

	_, err := h.logs.CreateChatLog(ctx, repository.ChatLogEntry{
		SessionID:       resp.SessionID,
		Message:         message,
		Response:        resp.Response,
		Sources:         sources,
		ChunksRetrieved: len(resp.Sources),
		Degraded:        resp.Error != "",
	})
	if err != nil {
		log.Printf("chat: failed to write chat log: %v", err)
	}
}
