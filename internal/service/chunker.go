package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/doculens-ai/doculens/internal/domain"
)

const (
	// DefaultChunkSize is the target chunk length in runes.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is the number of runes shared between adjacent chunks.
	DefaultChunkOverlap = 20
)

// nsChunk namespaces deterministic chunk IDs so that re-chunking unchanged
// content always yields the same IDs.
var nsChunk = uuid.MustParse("8f6f7c1e-3d2a-4b6e-9c5d-1a2b3c4d5e6f")

// Chunker splits raw text into overlapping segments bounded by ChunkSize
// runes, preferring to break at sentence or paragraph boundaries. It is pure
// CPU-bound text processing and never blocks.
type Chunker struct {
	ChunkSize int
	Overlap   int
}

// NewChunker creates a Chunker with the given target size and overlap.
// Non-positive size falls back to defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
		overlap = DefaultChunkOverlap
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{ChunkSize: chunkSize, Overlap: overlap}
}

// ChunkDocument splits content from sourceURL into DocumentChunks. An empty
// sourceURL is a contract violation; empty content is a degenerate success
// yielding no chunks.
func (c *Chunker) ChunkDocument(content, sourceURL string) ([]domain.DocumentChunk, error) {
	return c.ChunkDocumentWithTitle(content, sourceURL, "")
}

// ChunkDocumentWithTitle is ChunkDocument with a section title carried onto
// every produced chunk.
func (c *Chunker) ChunkDocumentWithTitle(content, sourceURL, sectionTitle string) ([]domain.DocumentChunk, error) {
	if sourceURL == "" {
		return nil, domain.ErrEmptySourceURL
	}

	if strings.TrimSpace(content) == "" {
		return []domain.DocumentChunk{}, nil
	}

	spans := c.split(content)
	now := time.Now().UTC()

	chunks := make([]domain.DocumentChunk, 0, len(spans))
	for _, sp := range spans {
		if strings.TrimSpace(sp.text) == "" {
			continue
		}
		chunks = append(chunks, domain.DocumentChunk{
			ID:           chunkID(sourceURL, sp.start, sp.end),
			Content:      sp.text,
			SourceURL:    sourceURL,
			SectionTitle: sectionTitle,
			CreatedAt:    now,
		})
	}
	return chunks, nil
}

// span is one chunk's rune range within the original content.
type span struct {
	start int
	end   int
	text  string
}

// split walks the content in windows of at most ChunkSize runes. Each window
// ends at the latest preferred break inside [end-overlap, end): sentence
// terminators first, then paragraph breaks, then plain whitespace; a window
// with no break takes the hard cut. The next window starts overlap runes
// before the previous end, advancing to the unadjusted window end whenever
// that would fail to make progress, so splitting always terminates.
func (c *Chunker) split(content string) []span {
	overlap := c.Overlap
	if overlap >= c.ChunkSize {
		// chunk_size > overlap is the documented precondition; degrade
		// rather than loop forever.
		overlap = 0
	}

	runes := []rune(content)
	if len(runes) <= c.ChunkSize {
		return []span{{start: 0, end: len(runes), text: content}}
	}

	spans := make([]span, 0, len(runes)/c.ChunkSize+1)
	start := 0
	for start < len(runes) {
		windowEnd := start + c.ChunkSize
		if windowEnd >= len(runes) {
			spans = append(spans, span{start: start, end: len(runes), text: string(runes[start:])})
			break
		}

		end := windowEnd
		if cut, ok := findBreak(runes, maxInt(start, windowEnd-overlap), windowEnd); ok {
			end = cut
		}

		spans = append(spans, span{start: start, end: end, text: string(runes[start:end])})

		next := end - overlap
		if next <= start {
			next = windowEnd
		}
		start = next
	}
	return spans
}

// findBreak returns the exclusive cut index after the latest break marker in
// [lo, hi), checking marker classes in priority order.
func findBreak(runes []rune, lo, hi int) (int, bool) {
	if lo < 1 {
		lo = 1
	}

	for i := hi - 1; i >= lo; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i + 1, true
		}
	}
	for i := hi - 1; i >= lo; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1, true
		}
	}
	for i := hi - 1; i >= lo; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1, true
		}
	}
	return 0, false
}

// chunkID derives a stable ID from the chunk's source and rune range, so
// identical input always produces identical IDs.
func chunkID(sourceURL string, start, end int) string {
	return uuid.NewSHA1(nsChunk, []byte(fmt.Sprintf("%s:%d:%d", sourceURL, start, end))).String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
