package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// searchSQL orders by cosine distance with a stable id tie-break so equal
// distances always return in index order.
const searchSQL = `
SELECT id, content, source, page, 1 - (embedding <=> $1) AS similarity
FROM passages
ORDER BY embedding <=> $1, id
LIMIT $2`

// Store is the pgvector-backed passage index. Read-only; safe for
// concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store over the given connection pool.
// A nil logger falls back to slog.Default().
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Search returns the k nearest passages to the given embedding, ordered by
// similarity (ties broken by id).
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]Passage, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := s.pool.Query(ctx, searchSQL, vec, k)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.ID, &p.Content, &p.Source, &p.Page, &p.Score); err != nil {
			return nil, fmt.Errorf("scanning passage row: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading passage rows: %w", err)
	}

	s.logger.Debug("passage search complete", "k", k, "returned", len(passages))
	return passages, nil
}

// Ping verifies the index is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging passage store: %w", err)
	}
	return nil
}
