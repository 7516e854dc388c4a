package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/corpus"
)

// Default loop budgets. Rewrites bound the retrieve/grade/rewrite cycle,
// regenerations bound the generate/audit cycle; together they guarantee a
// turn terminates.
const (
	DefaultMaxRewrites      = 3
	DefaultMaxRegenerations = 2
)

// unverifiedCaveat is appended to an answer released after a loop budget
// ran out before the gate could verify it.
const unverifiedCaveat = "\n\nNote: retry budget reached; this answer could not be fully verified against the course materials."

// sourceExcerptLimit caps the passage content carried in each citation
// card. The UI renders an excerpt, not the full passage.
const sourceExcerptLimit = 200

// Stage interfaces are defined here, by the consumer, so tests can swap any
// stage independently.

// PassageRetriever fetches candidate passages for a query.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string) ([]corpus.Passage, error)
}

type relevanceGrader interface {
	Grade(ctx context.Context, question string, passages []corpus.Passage) ([]corpus.Passage, error)
}

type queryRewriter interface {
	Rewrite(ctx context.Context, question, priorQuery string) (string, error)
}

type answerGenerator interface {
	Generate(ctx context.Context, question string, evidence []corpus.Passage) (*Answer, error)
}

type answerAuditor interface {
	Audit(ctx context.Context, question string, ans *Answer) (Verdict, error)
}

// Graph drives one question through the full loop. Safe for concurrent use;
// each Run owns its cycleState exclusively.
type Graph struct {
	retriever PassageRetriever
	grader    relevanceGrader
	rewriter  queryRewriter
	generator answerGenerator
	gate      answerAuditor

	maxRewrites      int
	maxRegenerations int

	logger *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithMaxRewrites caps retrieve/grade/rewrite cycles per turn.
func WithMaxRewrites(n int) Option {
	return func(g *Graph) {
		if n >= 0 {
			g.maxRewrites = n
		}
	}
}

// WithMaxRegenerations caps generate/audit retries per turn.
func WithMaxRegenerations(n int) Option {
	return func(g *Graph) {
		if n >= 0 {
			g.maxRegenerations = n
		}
	}
}

// New assembles a Graph from its five stages.
func New(retriever PassageRetriever, grader relevanceGrader, rewriter queryRewriter,
	generator answerGenerator, gate answerAuditor, logger *slog.Logger, opts ...Option,
) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Graph{
		retriever:        retriever,
		grader:           grader,
		rewriter:         rewriter,
		generator:        generator,
		gate:             gate,
		maxRewrites:      DefaultMaxRewrites,
		maxRegenerations: DefaultMaxRegenerations,
		logger:           logger.With("component", "graph"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// transition advances the cycle one state. Each returns the next state.
type transition func(ctx context.Context, cs *cycleState) (state, error)

// Run answers one question. It returns the terminal Result or the first
// fatal error. Cancellation of ctx stops the loop at the next state
// boundary and abandons in-flight model calls.
func (g *Graph) Run(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	turnID := uuid.NewString()
	logger := g.logger.With("turn_id", turnID)
	start := time.Now()

	transitions := map[state]transition{
		stateRetrieving: g.retrieve,
		stateGrading:    g.grade,
		stateRewriting:  g.rewrite,
		stateGenerating: g.generate,
		stateAuditing:   g.audit,
	}

	cs := &cycleState{
		question:     question,
		workingQuery: question,
	}

	current := stateRetrieving
	for current != stateDone {
		select {
		case <-ctx.Done():
			logger.Info("turn cancelled", "state", current)
			return nil, fmt.Errorf("turn cancelled in state %s: %w", current, ctx.Err())
		default:
		}

		step, ok := transitions[current]
		if !ok {
			return nil, fmt.Errorf("no transition from state %s", current)
		}

		logger.Debug("entering state", "state", current)
		next, err := step(ctx, cs)
		if err != nil {
			logger.Error("turn failed", "state", current, "error", err)
			return nil, err
		}
		current = next
	}

	logger.Info("turn complete",
		"rewrites", cs.rewrites,
		"regenerations", cs.regenerations,
		"sources", len(cs.answer.Citations),
		"elapsed", time.Since(start),
	)
	return buildResult(cs), nil
}

func (g *Graph) retrieve(ctx context.Context, cs *cycleState) (state, error) {
	cs.think("Searching course materials for relevant context...")

	passages, err := g.retriever.Retrieve(ctx, cs.workingQuery)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	cs.passages = passages
	return stateGrading, nil
}

func (g *Graph) grade(ctx context.Context, cs *cycleState) (state, error) {
	cs.think("Grading retrieved segments for relevance...")

	// Always graded against the original question, not the working query,
	// so rewriting cannot drift the topic.
	graded, err := g.grader.Grade(ctx, cs.question, cs.passages)
	if err != nil {
		return "", err
	}
	cs.graded = graded

	if len(graded) == 0 {
		cs.think(fmt.Sprintf("No documents found mentioning specific constraints of: '%s'", cs.question))
		return stateRewriting, nil
	}

	cs.think(fmt.Sprintf("Found %d relevant segments for '%s'.", len(graded), cs.question))
	return stateGenerating, nil
}

func (g *Graph) rewrite(ctx context.Context, cs *cycleState) (state, error) {
	if cs.rewrites >= g.maxRewrites {
		cs.think("Max retries reached. Returning direct refusal.")
		// Fall through to generation with no evidence; the generator
		// produces the fixed insufficient-evidence answer.
		cs.graded = nil
		return stateGenerating, nil
	}
	cs.rewrites++
	cs.think("Optimizing search query for better results...")

	rewritten, err := g.rewriter.Rewrite(ctx, cs.question, cs.workingQuery)
	if err != nil {
		return "", err
	}

	cs.workingQuery = rewritten
	return stateRetrieving, nil
}

func (g *Graph) generate(ctx context.Context, cs *cycleState) (state, error) {
	cs.think("Synthesizing answer based strictly on course material...")

	ans, err := g.generator.Generate(ctx, cs.question, cs.graded)
	if err != nil {
		return "", err
	}

	cs.answer = ans
	return stateAuditing, nil
}

func (g *Graph) audit(ctx context.Context, cs *cycleState) (state, error) {
	verdict, err := g.gate.Audit(ctx, cs.question, cs.answer)
	if err != nil {
		return "", err
	}
	cs.verdict = verdict

	if !verdict.Grounded {
		cs.think("Detected potential hallucination. Retrying generation...")
		if cs.regenerations >= g.maxRegenerations {
			cs.think("Max retries reached despite potential hallucination. Returning best effort.")
			cs.answer.Text += unverifiedCaveat
			return stateDone, nil
		}
		cs.regenerations++
		return stateGenerating, nil
	}

	cs.think("No hallucinations detected. Checking if specific question is answered...")

	if verdict.Useful {
		cs.think("Success! Final answer verified.")
		return stateDone, nil
	}

	cs.think(fmt.Sprintf("Answer failed to address specific constraint: '%s'", cs.question))

	// The insufficient-evidence answer is grounded but never useful; once
	// the rewrite budget is spent it is the defined terminal outcome.
	if cs.rewrites >= g.maxRewrites {
		cs.think("Max retries reached. Returning direct refusal.")
		if len(cs.answer.Citations) > 0 {
			cs.answer.Text += unverifiedCaveat
		}
		return stateDone, nil
	}

	return stateRewriting, nil
}

func buildResult(cs *cycleState) *Result {
	sources := make([]Source, 0, len(cs.answer.Citations))
	for _, p := range cs.answer.Citations {
		sources = append(sources, Source{
			Source:  p.Source,
			Page:    p.Page,
			Content: truncate(p.Content, sourceExcerptLimit),
		})
	}
	return &Result{
		Answer:   cs.answer.Text,
		Thoughts: cs.thoughts,
		Sources:  sources,
	}
}
