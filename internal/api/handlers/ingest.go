package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doculens-ai/doculens/internal/api"
	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/repository"
)

// IngestJobStore enqueues and reads site-ingest jobs.
type IngestJobStore interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
}

type IngestHandler struct {
	jobs              IngestJobStore
	defaultCollection string
}

func NewIngestHandler(jobs IngestJobStore, defaultCollection string) *IngestHandler {
	return &IngestHandler{jobs: jobs, defaultCollection: defaultCollection}
}

type IngestRequest struct {
	SiteURL    string `json:"site_url"`
	Collection string `json:"collection,omitempty"`
}

type IngestJobResponse struct {
	ID           string `json:"id"`
	SiteURL      string `json:"site_url"`
	Collection   string `json:"collection"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	PagesStored  int    `json:"pages_stored"`
	ChunksStored int    `json:"chunks_stored"`
	CreatedAt    string `json:"created_at"`
	ProcessedAt  string `json:"processed_at,omitempty"`
}

func ingestJobToResponse(job *domain.IngestJob) *IngestJobResponse {
	resp := &IngestJobResponse{
		ID:           job.ID,
		SiteURL:      job.SiteURL,
		Collection:   job.Collection,
		Status:       string(job.Status),
		Error:        job.Error,
		PagesStored:  job.PagesStored,
		ChunksStored: job.ChunksStored,
		CreatedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if job.ProcessedAt != nil {
		resp.ProcessedAt = job.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Enqueue handles POST /ingest. The crawl itself runs in the background
// worker; the response carries the job to poll.
func (h *IngestHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parsed, err := url.Parse(req.SiteURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		api.Error(w, http.StatusBadRequest, "site_url must be a valid http(s) URL")
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = h.defaultCollection
	}

	job := &domain.IngestJob{
		ID:         uuid.New().String(),
		SiteURL:    req.SiteURL,
		Collection: collection,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := domain.ValidateIngestJob(job); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.jobs.Create(r.Context(), job); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusAccepted, ingestJobToResponse(job))
}

// Get handles GET /ingest/{id}.
func (h *IngestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrIngestJobNotFound) {
			api.Error(w, http.StatusNotFound, "ingest job not found")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, ingestJobToResponse(job))
}
