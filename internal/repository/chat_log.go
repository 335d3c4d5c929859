package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatLogEntry is one answered chat request, recorded for evaluation and
// feedback loops.
type ChatLogEntry struct {
	SessionID       string
	Message         string
	Response        string
	Sources         []string
	ChunksRetrieved int
	Degraded        bool
}

// ChatLogRepository stores chat logs.
type ChatLogRepository struct {
	pool *pgxpool.Pool
}

func NewChatLogRepository(pool *pgxpool.Pool) *ChatLogRepository {
	return &ChatLogRepository{pool: pool}
}

func (r *ChatLogRepository) CreateChatLog(ctx context.Context, entry ChatLogEntry) (string, error) {
	sourcesJSON, _ := json.Marshal(entry.Sources)

	id := uuid.New().String()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_logs (id, session_id, message, response, sources, chunks_retrieved, degraded, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id,
		entry.SessionID,
		entry.Message,
		entry.Response,
		sourcesJSON,
		entry.ChunksRetrieved,
		entry.Degraded,
		time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// CountBySession reports how many chat turns a session has logged.
func (r *ChatLogRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_logs WHERE session_id = $1`,
		sessionID,
	).Scan(&count)
	return count, err
}
