package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doculens-ai/doculens/internal/api/handlers"
	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/service"
)

type stubAgentService struct {
	mock.Mock
}

func (s *stubAgentService) ProcessMessage(ctx context.Context, message, sessionID string, topK int) (*service.AgentResponse, error) {
	args := s.Called(ctx, message, sessionID, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AgentResponse), args.Error(1)
}

type stubValidationService struct {
	mock.Mock
}

func (s *stubValidationService) ValidateRetrievalAccuracy(ctx context.Context, query string, expectedSources []string, topK int) (*domain.ValidationResult, error) {
	args := s.Called(ctx, query, expectedSources, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

type stubIngestJobStore struct {
	mock.Mock
}

func (s *stubIngestJobStore) Create(ctx context.Context, job *domain.IngestJob) error {
	args := s.Called(ctx, job)
	return args.Error(0)
}

func (s *stubIngestJobStore) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	args := s.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestJob), args.Error(1)
}

func newTestRouter(agent *stubAgentService, validation *stubValidationService, jobs *stubIngestJobStore) http.Handler {
	return NewRouter(RouterConfig{
		ChatHandler:     handlers.NewChatHandler(agent, nil),
		IngestHandler:   handlers.NewIngestHandler(jobs, "documents"),
		ValidateHandler: handlers.NewValidateHandler(validation),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(new(stubAgentService), new(stubValidationService), new(stubIngestJobStore))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
}

func TestRouter_ChatRoute(t *testing.T) {
	agent := new(stubAgentService)
	agent.On("ProcessMessage", mock.Anything, "hello", "", service.DefaultTopK).
		Return(&service.AgentResponse{
			Response:  "hi",
			SessionID: "s1",
			Timestamp: time.Now().UTC(),
		}, nil)

	router := newTestRouter(agent, new(stubValidationService), new(stubIngestJobStore))

	payload, _ := json.Marshal(handlers.ChatRequest{Message: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	agent.AssertExpectations(t)
}

func TestRouter_IngestRoutes(t *testing.T) {
	jobs := new(stubIngestJobStore)
	jobs.On("Create", mock.Anything, mock.Anything).Return(nil)
	jobs.On("GetByID", mock.Anything, "job-1").Return(&domain.IngestJob{
		ID:         "job-1",
		SiteURL:    "https://docs.example.com",
		Collection: "documents",
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}, nil)

	router := newTestRouter(new(stubAgentService), new(stubValidationService), jobs)

	payload, _ := json.Marshal(handlers.IngestRequest{SiteURL: "https://docs.example.com"})
	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/ingest/job-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(new(stubAgentService), new(stubValidationService), new(stubIngestJobStore))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_BodyLimit(t *testing.T) {
	router := newTestRouter(new(stubAgentService), new(stubValidationService), new(stubIngestJobStore))

	oversized := bytes.Repeat([]byte("a"), 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(oversized))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
