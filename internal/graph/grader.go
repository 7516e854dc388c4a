package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern-ai/lectern/internal/corpus"
)

// Grader filters retrieved passages with a per-passage binary relevance
// judgment. Grading always runs against the ORIGINAL question, never the
// rewritten working query, so topic drift introduced by rewriting cannot
// inflate perceived relevance.
type Grader struct {
	judge  judge
	logger *slog.Logger
}

// NewGrader creates a Grader backed by the given model.
func NewGrader(g *genkit.Genkit, model string, timeout time.Duration, logger *slog.Logger) *Grader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grader{
		judge:  newJudge(g, model, timeout, logger),
		logger: logger.With("component", "grader"),
	}
}

// Grade returns the subset of passages judged relevant to question,
// preserving input order. A judgment that stays unparseable after its
// in-place retry marks the passage irrelevant (fail-closed) rather than
// failing the turn.
func (gr *Grader) Grade(ctx context.Context, question string, passages []corpus.Passage) ([]corpus.Passage, error) {
	graded := make([]corpus.Passage, 0, len(passages))

	for _, p := range passages {
		relevant, err := gr.judge.binary(ctx, graderSystem,
			fmt.Sprintf(graderPrompt, p.Content, question))
		if err != nil {
			if errors.Is(err, ErrJudgmentParse) {
				gr.logger.Warn("relevance verdict unparseable, marking irrelevant",
					"passage_id", p.ID)
				continue
			}
			return nil, fmt.Errorf("grading passage %q: %w", p.ID, err)
		}

		if relevant {
			graded = append(graded, p)
		}
	}

	gr.logger.Debug("grading complete",
		"retrieved", len(passages),
		"relevant", len(graded),
	)
	return graded, nil
}
