//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, env *E2ETestEnv, path string, body, out interface{}) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := env.HTTPClient.Post(env.ServerURL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode < 400 {
		require.NoError(t, json.Unmarshal(respBody, out), "body: %s", respBody)
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, env *E2ETestEnv, path string, out interface{}) int {
	t.Helper()
	resp, err := env.HTTPClient.Get(env.ServerURL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode < 400 {
		require.NoError(t, json.Unmarshal(respBody, out), "body: %s", respBody)
	}
	return resp.StatusCode
}

type jobResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Error        string `json:"error"`
	PagesStored  int    `json:"pages_stored"`
	ChunksStored int    `json:"chunks_stored"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Sources   []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"sources"`
}

type validateResponse struct {
	AccuracyScore    float64 `json:"accuracy_score"`
	ValidationPassed bool    `json:"validation_passed"`
	TotalRetrieved   int     `json:"total_retrieved"`
}

func TestFullPipeline(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	// Queue an ingest of the fake docs site
	var job jobResponse
	status := postJSON(t, env, "/ingest", map[string]string{
		"site_url": env.DocsSite.URL,
	}, &job)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, "pending", job.Status)

	// Drain the queue the way the background worker would
	require.NoError(t, env.Worker.ProcessJobs(env.Ctx))

	status = getJSON(t, env, "/ingest/"+job.ID, &job)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "completed", job.Status, "job error: %s", job.Error)
	assert.Equal(t, 2, job.PagesStored)
	assert.Greater(t, job.ChunksStored, 0)

	// Ask a question answered by the install page
	var chat chatResponse
	status = postJSON(t, env, "/chat", map[string]interface{}{
		"message": "how do I install doculens with the installer script",
	}, &chat)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, chat.Response)
	assert.NotEmpty(t, chat.SessionID)
	require.NotEmpty(t, chat.Sources)
	assert.Contains(t, chat.Sources[0].URL, "/install")

	// A follow-up in the same session shares history
	status = postJSON(t, env, "/chat", map[string]interface{}{
		"message":    "what about the database URL configuration",
		"session_id": chat.SessionID,
	}, &chat)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, chat.Sources)
	assert.Contains(t, chat.Sources[0].URL, "/configuration")

	// Validation confirms retrieval surfaces the expected page
	var validation validateResponse
	status = postJSON(t, env, "/validate", map[string]interface{}{
		"query":            "install doculens installer script",
		"expected_sources": []string{env.DocsSite.URL + "/install"},
	}, &validation)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, validation.ValidationPassed)
	assert.Equal(t, 1.0, validation.AccuracyScore)
	assert.Greater(t, validation.TotalRetrieved, 0)

	// Chat interactions were logged
	var count int
	require.NoError(t, env.Pool.QueryRow(env.Ctx,
		`SELECT COUNT(*) FROM chat_logs WHERE session_id = $1`, chat.SessionID).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestIngestJobFailureIsRecorded(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	var job jobResponse
	status := postJSON(t, env, "/ingest", map[string]string{
		"site_url": "http://127.0.0.1:1/unreachable",
	}, &job)
	require.Equal(t, http.StatusAccepted, status)

	// Crawling an unreachable site never errors the run; it produces a
	// completed job with zero stored pages.
	require.NoError(t, env.Worker.ProcessJobs(env.Ctx))

	status = getJSON(t, env, "/ingest/"+job.ID, &job)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", job.Status)
	assert.Zero(t, job.PagesStored)
	assert.Zero(t, job.ChunksStored)
}

func TestChatWithoutIngestedContent(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	// No collection exists yet; retrieval degrades to no context
	var chat chatResponse
	status := postJSON(t, env, "/chat", map[string]interface{}{
		"message": "anything at all",
	}, &chat)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, chat.Response)
	assert.Empty(t, chat.Sources)
}
