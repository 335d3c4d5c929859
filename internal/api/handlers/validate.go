package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/doculens-ai/doculens/internal/api"
	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/service"
)

// ValidationService scores retrieval accuracy against expected sources.
type ValidationService interface {
	ValidateRetrievalAccuracy(ctx context.Context, query string, expectedSources []string, topK int) (*domain.ValidationResult, error)
}

type ValidateHandler struct {
	svc ValidationService
}

func NewValidateHandler(svc ValidationService) *ValidateHandler {
	return &ValidateHandler{svc: svc}
}

type ValidateRequest struct {
	Query           string   `json:"query"`
	ExpectedSources []string `json:"expected_sources"`
	TopK            int      `json:"top_k,omitempty"`
}

type ValidateResponse struct {
	QueryID          string   `json:"query_id"`
	RetrievedChunks  []string `json:"retrieved_chunks"`
	ExpectedChunks   []string `json:"expected_chunks"`
	AccuracyScore    float64  `json:"accuracy_score"`
	RelevantCount    int      `json:"relevant_count"`
	TotalRetrieved   int      `json:"total_retrieved"`
	ValidationPassed bool     `json:"validation_passed"`
	Notes            string   `json:"notes"`
	CreatedAt        string   `json:"created_at"`
}

// Validate handles POST /validate.
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
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

	result, err := h.svc.ValidateRetrievalAccuracy(r.Context(), req.Query, req.ExpectedSources, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, &ValidateResponse{
		QueryID:          result.QueryID,
		RetrievedChunks:  result.RetrievedChunks,
		ExpectedChunks:   result.ExpectedChunks,
		AccuracyScore:    result.AccuracyScore,
		RelevantCount:    result.RelevantCount,
		TotalRetrieved:   result.TotalRetrieved,
		ValidationPassed: result.ValidationPassed,
		Notes:            result.Notes,
		CreatedAt:        result.CreatedAt.UTC().Format(time.RFC3339),
	})
}
