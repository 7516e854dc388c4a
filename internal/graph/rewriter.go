package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
)

// Rewriter reformulates the working query for better retrieval recall
// after a cycle produced no relevant evidence.
type Rewriter struct {
	judge  judge
	logger *slog.Logger
}

// NewRewriter creates a Rewriter backed by the given model.
func NewRewriter(g *genkit.Genkit, model string, timeout time.Duration, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{
		judge:  newJudge(g, model, timeout, logger),
		logger: logger.With("component", "rewriter"),
	}
}

// Rewrite returns a new working query derived from the original question
// and the query that just failed. The result is always non-empty; output
// identical to priorQuery is returned as-is and counts as a fresh cycle
// (the cycle budget alone bounds the loop).
func (rw *Rewriter) Rewrite(ctx context.Context, question, priorQuery string) (string, error) {
	out, err := rw.judge.text(ctx, rewriteSystem,
		fmt.Sprintf(rewritePrompt, question, priorQuery))
	if err != nil {
		return "", fmt.Errorf("rewriting query: %w", err)
	}

	rw.logger.Debug("query rewritten",
		"prior", truncate(priorQuery, 80),
		"rewritten", truncate(out, 80),
	)
	return out, nil
}
