package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// Retriever is the retrieval stage: it embeds a query and returns the
// top-K nearest passages from the index. Any embedder or index failure is
// reported as ErrUnavailable; the retriever itself never retries.
//
// Safe for concurrent use.
type Retriever struct {
	embedder ai.Embedder
	searcher Searcher
	topK     int
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRetriever creates a Retriever. A nil logger falls back to slog.Default().
func NewRetriever(embedder ai.Embedder, searcher Searcher, logger *slog.Logger, opts ...Option) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Retriever{
		embedder: embedder,
		searcher: searcher,
		topK:     4,
		timeout:  15 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK passages ranked by similarity to query.
// The result order is the index order; no re-ranking happens here.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()

	embedding, err := EmbedQuery(ctx, r.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	passages, err := r.searcher.Search(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	r.logger.Debug("retrieval complete",
		"passages", len(passages),
		"elapsed", time.Since(start),
	)
	return passages, nil
}
