//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doculens-ai/doculens/internal/api/handlers"
	"github.com/doculens-ai/doculens/internal/jobs"
	"github.com/doculens-ai/doculens/internal/openai"
	"github.com/doculens-ai/doculens/internal/repository"
	"github.com/doculens-ai/doculens/internal/server"
	"github.com/doculens-ai/doculens/internal/service"
	"github.com/doculens-ai/doculens/internal/testutil"
	"github.com/doculens-ai/doculens/internal/vectorstore"
)

const testCollection = "e2e-docs"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	DocsSite     *httptest.Server
	ServerURL    string
	ServerCloser func()
	Worker       *jobs.IngestWorker
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a pgvector container,
// a fake documentation site, and the HTTP server wired against a
// deterministic embedder.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../db/migrations")

	docsSite := httptest.NewServer(docsSiteHandler())

	conn := vectorstore.NewConnection(pool)
	embedder := &wordHashEmbedder{dim: 32}
	embeddingSvc := service.NewEmbeddingService(embedder)

	ingestSvc := service.NewIngestService(
		service.NewCrawler(),
		service.NewTextCleaner(),
		service.NewChunker(200, 20),
		embeddingSvc,
		conn,
		nil,
	)
	retrievalSvc := service.NewRetrievalService(conn, embeddingSvc, testCollection)
	agentSvc := service.NewAgentService(retrievalSvc, nil)
	validationSvc := service.NewValidationService(retrievalSvc, 0.5)

	jobRepo := repository.NewIngestJobRepository(pool)
	chatLogRepo := repository.NewChatLogRepository(pool)
	worker := jobs.NewIngestWorker(jobRepo, ingestSvc)

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:     handlers.NewChatHandler(agentSvc, chatLogRepo),
		IngestHandler:   handlers.NewIngestHandler(jobRepo, testCollection),
		ValidateHandler: handlers.NewValidateHandler(validationSvc),
	})

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}
	serverURL, serverCloser := startServer(t, router, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		DocsSite:     docsSite,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		Worker:       worker,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.DocsSite != nil {
		e.DocsSite.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// wordHashEmbedder is a deterministic bag-of-words embedder. Texts that
// share vocabulary get similar vectors, which is enough for cosine
// retrieval without a live model.
type wordHashEmbedder struct {
	dim int
}

func (f *wordHashEmbedder) Embed(ctx context.Context, texts []string, intent openai.Intent) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, f.dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,!?:;()[]{}\"'`")
			if word == "" {
				continue
			}
			h := fnv.New32a()
			h.Write([]byte(word))
			v[int(h.Sum32())%f.dim]++
		}
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for j := range v {
				v[j] *= scale
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f *wordHashEmbedder) Dimensions() int {
	return f.dim
}

// docsSiteHandler serves a tiny documentation site with a sitemap.
func docsSiteHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/install</loc></url>
  <url><loc>%s/configuration</loc></url>
</urlset>`, base, base)
	})

	mux.HandleFunc("/install", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Installation Guide</title></head><body>
<main><h1>Installation</h1>
<p>To install doculens run the installer script. The installer downloads
the latest release binary and places it on your PATH.</p>
<p>Verify the installation with the version command afterwards.</p>
</main></body></html>`)
	})

	mux.HandleFunc("/configuration", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Configuration Reference</title></head><body>
<main><h1>Configuration</h1>
<p>Configuration lives in environment variables. Set the database URL and
the collection name before starting the server.</p>
</main></body></html>`)
	})

	return mux
}

func startServer(t *testing.T, router http.Handler, port int) (string, func()) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
