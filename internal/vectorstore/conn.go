package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doculens-ai/doculens/internal/domain"
)

// Connection owns the database pool behind the vector store. Components that
// need a live store ask for one per operation instead of holding a global.
type Connection struct {
	pool *pgxpool.Pool
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Connection, error) {
	if databaseURL == "" {
		return nil, domain.ErrMissingDatabaseURL
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{pool: pool}, nil
}

// NewConnection wraps an existing pool, for tests and shared wiring.
func NewConnection(pool *pgxpool.Pool) *Connection {
	return &Connection{pool: pool}
}

// Store returns a live store handle, verifying the connection first. An
// unreachable database yields ErrStoreUnavailable.
func (c *Connection) Store(ctx context.Context) (Store, error) {
	if c == nil || c.pool == nil {
		return nil, domain.ErrStoreUnavailable
	}

	if err := c.pool.Ping(ctx); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector store is not available", err)
	}

	return NewPostgresStore(c.pool), nil
}

// Pool exposes the underlying pool for repositories sharing the database.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// Close releases the pool.
func (c *Connection) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
