package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doculens-ai/doculens/internal/domain"
)

func TestChunker_EmptySourceURL(t *testing.T) {
	c := NewChunker(512, 20)

	chunks, err := c.ChunkDocument("some content", "")

	assert.Nil(t, chunks)
	assert.ErrorIs(t, err, domain.ErrEmptySourceURL)
}

func TestChunker_EmptyContent(t *testing.T) {
	c := NewChunker(512, 20)

	for _, content := range []string{"", "   ", "\n\t\n"} {
		chunks, err := c.ChunkDocument(content, "https://docs.example.com/intro")
		assert.NoError(t, err)
		assert.NotNil(t, chunks)
		assert.Empty(t, chunks)
	}
}

func TestChunker_ShortContentSingleChunk(t *testing.T) {
	c := NewChunker(512, 20)
	content := "A short page that fits in one chunk."

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/intro")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, "https://docs.example.com/intro", chunks[0].SourceURL)
	assert.NotEmpty(t, chunks[0].ID)
	assert.False(t, chunks[0].CreatedAt.IsZero())
}

func TestChunker_BreaksAtSentenceBoundary(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("abcd. ", 20)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), 50)
	}
	assert.True(t, strings.HasSuffix(chunks[0].Content, "."))
	assert.True(t, strings.HasSuffix(chunks[1].Content, "."))
}

func TestChunker_OverlapSharedBetweenChunks(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("abcd. ", 20)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	first := []rune(chunks[0].Content)
	second := []rune(chunks[1].Content)
	assert.Equal(t, string(first[len(first)-10:]), string(second[:10]))
}

func TestChunker_BreaksAtParagraphBoundary(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("a", 44) + "\n\n" + strings.Repeat("b", 60)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "\n\n"))
	assert.NotContains(t, chunks[0].Content, "b")
}

func TestChunker_BreaksAtWhitespaceFallback(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("alpha ", 20)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "alpha "))
}

func TestChunker_HardCutWithoutBreaks(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("x", 120)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 3)
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[0].Content))
}

func TestChunker_CoversAllContent(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("abcd. ", 20)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(content, chunks[0].Content))
	last := chunks[len(chunks)-1].Content
	assert.True(t, strings.HasSuffix(content, last))
}

func TestChunker_DeterministicIDs(t *testing.T) {
	c := NewChunker(50, 10)
	content := strings.Repeat("abcd. ", 20)

	first, err := c.ChunkDocument(content, "https://docs.example.com/page")
	require.NoError(t, err)
	second, err := c.ChunkDocument(content, "https://docs.example.com/page")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestChunker_IDsVaryBySource(t *testing.T) {
	c := NewChunker(512, 20)
	content := "Identical content on two pages."

	a, err := c.ChunkDocument(content, "https://docs.example.com/a")
	require.NoError(t, err)
	b, err := c.ChunkDocument(content, "https://docs.example.com/b")
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestChunker_OverlapLargerThanSizeTerminates(t *testing.T) {
	c := &Chunker{ChunkSize: 10, Overlap: 20}
	content := strings.Repeat("x", 35)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/page")

	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[0].Content))
	assert.Equal(t, 5, utf8.RuneCountInString(chunks[3].Content))
}

func TestChunker_RuneBasedSizing(t *testing.T) {
	c := NewChunker(512, 20)
	content := strings.Repeat("文檔內容測試", 100)

	chunks, err := c.ChunkDocument(content, "https://docs.example.com/cjk")

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), 512)
	}
}

func TestChunker_SectionTitleCarried(t *testing.T) {
	c := NewChunker(512, 20)

	chunks, err := c.ChunkDocumentWithTitle("Body text.", "https://docs.example.com/page", "Getting Started")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Getting Started", chunks[0].SectionTitle)
}

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(0, 5)

	assert.Equal(t, DefaultChunkSize, c.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.Overlap)
}
