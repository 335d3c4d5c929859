package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/doculens-ai/doculens/internal/domain"
	"github.com/doculens-ai/doculens/internal/vectorstore"
)

// SiteCrawler fetches a site's pages.
type SiteCrawler interface {
	CrawlSite(ctx context.Context, siteURL string) ([]domain.CrawledPage, error)
}

// PageCleaner turns raw HTML into title and text.
type PageCleaner interface {
	Clean(rawHTML string) (title, text string, err error)
}

// ChunkEmbedder embeds document chunks for storage.
type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, chunks []domain.DocumentChunk) ([]domain.EmbeddingVector, error)
	Dimensions() int
}

// SnapshotArchiver stores raw page snapshots out of band. Optional.
type SnapshotArchiver interface {
	ArchivePage(ctx context.Context, collection string, page domain.CrawledPage) error
}

// IngestReport summarizes one ingest run.
type IngestReport struct {
	SiteURL      string        `json:"site_url"`
	Collection   string        `json:"collection"`
	PagesCrawled int           `json:"pages_crawled"`
	PagesFailed  int           `json:"pages_failed"`
	ChunksStored int           `json:"chunks_stored"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// IngestService runs the write path: crawl, clean, chunk, embed, store.
// Failures on individual pages are recorded on the report; only failures
// that sink the whole run (store or embedding gateway down) error out.
type IngestService struct {
	crawler  SiteCrawler
	cleaner  PageCleaner
	chunker  *Chunker
	embedder ChunkEmbedder
	stores   StoreProvider
	archive  SnapshotArchiver
}

// NewIngestService creates a new IngestService instance. archive may be nil.
func NewIngestService(
	crawler SiteCrawler,
	cleaner PageCleaner,
	chunker *Chunker,
	embedder ChunkEmbedder,
	stores StoreProvider,
	archive SnapshotArchiver,
) *IngestService {
	return &IngestService{
		crawler:  crawler,
		cleaner:  cleaner,
		chunker:  chunker,
		embedder: embedder,
		stores:   stores,
		archive:  archive,
	}
}

// IngestSite crawls siteURL and stores its chunk embeddings under
// collection, replacing whatever the collection held before.
func (s *IngestService) IngestSite(ctx context.Context, siteURL, collection string) (*IngestReport, error) {
	if collection == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "collection name is required")
	}

	started := time.Now()
	report := &IngestReport{SiteURL: siteURL, Collection: collection}

	pages, err := s.crawler.CrawlSite(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	report.PagesCrawled = len(pages)

	chunks := s.chunkPages(ctx, collection, pages, report)

	store, err := s.stores.Store(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx, collection, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("failed to prepare collection %q: %w", collection, err)
	}

	if len(chunks) == 0 {
		report.Duration = time.Since(started)
		return report, nil
	}

	vectors, err := s.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	points := make([]vectorstore.Point, len(vectors))
	for i, v := range vectors {
		points[i] = vectorstore.Point{ID: v.ID, Vector: v.Vector, Payload: v.Metadata}
	}
	if err := store.Upsert(ctx, collection, points); err != nil {
		return nil, err
	}

	report.ChunksStored = len(points)
	report.Duration = time.Since(started)
	return report, nil
}

// chunkPages cleans and chunks every successfully crawled page, recording
// per-page failures on the report without aborting the batch.
func (s *IngestService) chunkPages(ctx context.Context, collection string, pages []domain.CrawledPage, report *IngestReport) []domain.DocumentChunk {
	var chunks []domain.DocumentChunk
	for _, page := range pages {
		if page.Failed() {
			report.PagesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", page.URL, page.Error))
			continue
		}

		if s.archive != nil {
			if err := s.archive.ArchivePage(ctx, collection, page); err != nil {
				// snapshots are best effort
				log.Printf("ingest: failed to archive %s: %v", page.URL, err)
			}
		}

		title, text, err := s.cleaner.Clean(page.RawContent)
		if err != nil {
			report.PagesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", page.URL, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		pageChunks, err := s.chunker.ChunkDocumentWithTitle(text, page.URL, title)
		if err != nil {
			report.PagesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", page.URL, err))
			continue
		}
		chunks = append(chunks, pageChunks...)
	}
	return chunks
}
