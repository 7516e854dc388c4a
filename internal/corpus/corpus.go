// Package corpus provides read-only access to the indexed course material.
//
// It wraps the pgvector-backed passages table behind a small Searcher
// interface and exposes Retriever, which turns a free-text query into an
// ordered batch of passages (embed, then nearest-neighbor search).
//
// The corpus is populated out-of-band by the ingestion pipeline; nothing in
// this package writes to it.
package corpus

import (
	"context"
	"errors"
	"time"
)

// VectorDimension is the embedding dimension of the passages table schema.
// The embedder must be configured to produce vectors of this size.
const VectorDimension = 768

// ErrUnavailable indicates the passage index or the embedder could not be
// reached. Callers treat this as fatal for the current turn.
var ErrUnavailable = errors.New("corpus unavailable")

// Passage is a single retrieved unit of course material.
// Immutable once retrieved.
type Passage struct {
	ID      string
	Content string
	Source  string
	Page    string
	Score   float64 // cosine similarity, higher is closer
}

// Searcher executes nearest-neighbor lookups against the passage index.
// Implemented by Store in production and by test doubles in tests.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, k int) ([]Passage, error)
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK sets the maximum number of passages per retrieval. Default 4.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		r.topK = k
	}
}

// WithTimeout sets the per-retrieval deadline covering both the embedding
// call and the index lookup. Default 15s.
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		r.timeout = d
	}
}
