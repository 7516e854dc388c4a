package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern-ai/lectern/internal/corpus"
)

// Generator synthesizes an answer strictly from graded evidence.
type Generator struct {
	g       *genkit.Genkit
	model   string
	timeout time.Duration
	retry   retryConfig
	logger  *slog.Logger
}

// NewGenerator creates a Generator backed by the given model.
func NewGenerator(g *genkit.Genkit, model string, timeout time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		g:       g,
		model:   model,
		timeout: timeout,
		retry:   defaultRetryConfig(),
		logger:  logger.With("component", "generator"),
	}
}

// Generate produces an Answer from the evidence set. With no evidence it
// returns the fixed insufficient-evidence answer without calling the model,
// carrying no citations. Otherwise the answer cites exactly the evidence it
// was synthesized from.
func (gen *Generator) Generate(ctx context.Context, question string, evidence []corpus.Passage) (*Answer, error) {
	if len(evidence) == 0 {
		gen.logger.Debug("no evidence survived grading, returning degraded answer")
		return &Answer{Text: fmt.Sprintf(insufficientEvidencePrompt, question)}, nil
	}

	raw, err := generateText(ctx, gen.g, gen.model, generateSystem,
		fmt.Sprintf(generatePrompt, formatEvidence(evidence), question),
		gen.timeout, gen.retry, gen.logger)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	text := strings.TrimSpace(stripCodeFences(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrJudgmentParse)
	}

	citations := make([]corpus.Passage, len(evidence))
	copy(citations, evidence)

	return &Answer{Text: text, Citations: citations}, nil
}

// formatEvidence renders passages as labeled context blocks so the model can
// see provenance without being asked to emit citations itself.
func formatEvidence(evidence []corpus.Passage) string {
	blocks := make([]string, 0, len(evidence))
	for _, p := range evidence {
		blocks = append(blocks, fmt.Sprintf("SOURCE: %s (Page %s)\nCONTENT: %s", p.Source, p.Page, p.Content))
	}
	return strings.Join(blocks, "\n\n")
}
