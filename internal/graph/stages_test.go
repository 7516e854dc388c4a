package graph

import (
	"context"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/corpus"
	"github.com/lectern-ai/lectern/internal/log"
	"github.com/lectern-ai/lectern/internal/testutil"
)

const judgeTimeout = 5 * time.Second

func newMockBackend(t *testing.T, fallback string) (*genkit.Genkit, *testutil.MockLLM) {
	t.Helper()
	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM(fallback)
	mock.RegisterModel(g)
	return g, mock
}

func TestGraderKeepsOnlyRelevantPassages(t *testing.T) {
	g, mock := newMockBackend(t, "maybe")
	mock.AddResponse("manifolds are locally euclidean", "yes")
	mock.AddResponse("cooking recipes", "no")

	grader := NewGrader(g, testutil.ModelName, judgeTimeout, log.NewNop())

	passages := []corpus.Passage{
		{ID: "p1", Content: "manifolds are locally euclidean"},
		{ID: "p2", Content: "cooking recipes"},
		{ID: "p3", Content: "something the judge cannot decide"},
	}

	graded, err := grader.Grade(context.Background(), "what is a manifold?", passages)
	require.NoError(t, err)

	// p2 is judged irrelevant; p3 hits the unparseable fallback twice and
	// is dropped fail-closed.
	require.Len(t, graded, 1)
	assert.Equal(t, "p1", graded[0].ID)
}

func TestGraderPreservesInputOrder(t *testing.T) {
	g, _ := newMockBackend(t, "yes")

	grader := NewGrader(g, testutil.ModelName, judgeTimeout, log.NewNop())

	passages := []corpus.Passage{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
		{ID: "c", Content: "third"},
	}

	graded, err := grader.Grade(context.Background(), "question", passages)
	require.NoError(t, err)

	require.Len(t, graded, 3)
	assert.Equal(t, "a", graded[0].ID)
	assert.Equal(t, "b", graded[1].ID)
	assert.Equal(t, "c", graded[2].ID)
}

func TestRewriterReturnsNonEmptyQuery(t *testing.T) {
	g, _ := newMockBackend(t, "week 5 manifold topics overview")

	rewriter := NewRewriter(g, testutil.ModelName, judgeTimeout, log.NewNop())

	out, err := rewriter.Rewrite(context.Background(), "what does week 5 cover?", "week 5")
	require.NoError(t, err)
	assert.Equal(t, "week 5 manifold topics overview", out)
}

func TestRewriterEmptyCompletionFails(t *testing.T) {
	g, mock := newMockBackend(t, "")

	rewriter := NewRewriter(g, testutil.ModelName, judgeTimeout, log.NewNop())

	_, err := rewriter.Rewrite(context.Background(), "question", "query")
	assert.ErrorIs(t, err, ErrJudgmentParse)
	// One in-place retry before giving up.
	assert.Equal(t, 2, mock.CallCount())
}

func TestGeneratorCitesItsEvidence(t *testing.T) {
	g, _ := newMockBackend(t, "Manifolds are spaces that look euclidean locally.")

	generator := NewGenerator(g, testutil.ModelName, judgeTimeout, log.NewNop())

	evidence := []corpus.Passage{
		{ID: "p1", Content: "a manifold is locally euclidean", Source: "week5.pdf", Page: "3"},
		{ID: "p2", Content: "charts form an atlas", Source: "week5.pdf", Page: "4"},
	}

	ans, err := generator.Generate(context.Background(), "what is a manifold?", evidence)
	require.NoError(t, err)

	assert.Equal(t, "Manifolds are spaces that look euclidean locally.", ans.Text)
	assert.Equal(t, evidence, ans.Citations)
}

func TestGeneratorInsufficientEvidence(t *testing.T) {
	g, mock := newMockBackend(t, "should never be called")

	generator := NewGenerator(g, testutil.ModelName, judgeTimeout, log.NewNop())

	ans, err := generator.Generate(context.Background(), "does week 99 exist?", nil)
	require.NoError(t, err)

	// No model call: the degraded answer is a fixed template.
	assert.Equal(t, 0, mock.CallCount())
	assert.Contains(t, ans.Text, "week 99 exist")
	assert.Empty(t, ans.Citations)
}

func TestGateAuditsBothAxes(t *testing.T) {
	g, mock := newMockBackend(t, "no")
	mock.AddResponse("supported by the facts", "yes")
	mock.AddResponse("address the question", "yes")

	gate := NewGate(g, testutil.ModelName, judgeTimeout, log.NewNop())

	ans := &Answer{
		Text:      "an answer",
		Citations: []corpus.Passage{{ID: "p1", Content: "fact"}},
	}

	verdict, err := gate.Audit(context.Background(), "question", ans)
	require.NoError(t, err)

	assert.True(t, verdict.Grounded)
	assert.True(t, verdict.Useful)
	assert.Equal(t, 2, mock.CallCount())
}

func TestGateNotGrounded(t *testing.T) {
	g, mock := newMockBackend(t, "no")
	mock.AddResponse("supported by the facts", "no")
	mock.AddResponse("address the question", "yes")

	gate := NewGate(g, testutil.ModelName, judgeTimeout, log.NewNop())

	ans := &Answer{
		Text:      "a fabricated answer",
		Citations: []corpus.Passage{{ID: "p1", Content: "fact"}},
	}

	verdict, err := gate.Audit(context.Background(), "question", ans)
	require.NoError(t, err)

	assert.False(t, verdict.Grounded)
	assert.True(t, verdict.Useful)
}

func TestGateCitationFreeAnswerSkipsModel(t *testing.T) {
	g, mock := newMockBackend(t, "yes")

	gate := NewGate(g, testutil.ModelName, judgeTimeout, log.NewNop())

	verdict, err := gate.Audit(context.Background(), "question", &Answer{Text: "no info found"})
	require.NoError(t, err)

	assert.Equal(t, 0, mock.CallCount())
	assert.True(t, verdict.Grounded)
	assert.False(t, verdict.Useful)
}

func TestJudgeBinaryRetriesUnparseableOnce(t *testing.T) {
	g, mock := newMockBackend(t, "yes")
	mock.AddResponseOnce("is the sky blue", "hard to say")

	j := newJudge(g, testutil.ModelName, judgeTimeout, log.NewNop())

	verdict, err := j.binary(context.Background(), "system", "Is the sky blue?")
	require.NoError(t, err)

	assert.True(t, verdict)
	assert.Equal(t, 2, mock.CallCount())
}

func TestJudgeBinaryFailsAfterRetry(t *testing.T) {
	g, mock := newMockBackend(t, "as an assessor I find this ambiguous")

	j := newJudge(g, testutil.ModelName, judgeTimeout, log.NewNop())

	_, err := j.binary(context.Background(), "system", "verdict?")
	assert.ErrorIs(t, err, ErrJudgmentParse)
	assert.Equal(t, 2, mock.CallCount())
}
