package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/genkit"
)

// Gate audits a generated answer before release: groundedness against the
// answer's own citations, then usefulness against the original question.
type Gate struct {
	judge  judge
	logger *slog.Logger
}

// NewGate creates a Gate backed by the given model.
func NewGate(g *genkit.Genkit, model string, timeout time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		judge:  newJudge(g, model, timeout, logger),
		logger: logger.With("component", "gate"),
	}
}

// Audit returns the verdict for ans. An answer with no citations is grounded
// by definition (it makes no evidence-backed claims) and never useful, so it
// is judged without model calls. Judgment responses that stay unparseable
// after their in-place retry are fatal, not fail-closed: releasing or
// discarding a finished answer on a coin flip is worse than erroring out.
func (gt *Gate) Audit(ctx context.Context, question string, ans *Answer) (Verdict, error) {
	if len(ans.Citations) == 0 {
		gt.logger.Debug("auditing citation-free answer without model calls")
		return Verdict{Grounded: true, Useful: false}, nil
	}

	grounded, err := gt.judge.binary(ctx, groundedSystem,
		fmt.Sprintf(groundedPrompt, formatFacts(ans), ans.Text))
	if err != nil {
		return Verdict{}, fmt.Errorf("auditing groundedness: %w", err)
	}

	useful, err := gt.judge.binary(ctx, usefulSystem,
		fmt.Sprintf(usefulPrompt, question, ans.Text))
	if err != nil {
		return Verdict{}, fmt.Errorf("auditing usefulness: %w", err)
	}

	return Verdict{Grounded: grounded, Useful: useful}, nil
}

func formatFacts(ans *Answer) string {
	facts := make([]string, 0, len(ans.Citations))
	for _, p := range ans.Citations {
		facts = append(facts, p.Content)
	}
	return strings.Join(facts, "\n\n")
}
