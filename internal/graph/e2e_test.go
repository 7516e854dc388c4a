package graph

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/corpus"
	"github.com/lectern-ai/lectern/internal/log"
	"github.com/lectern-ai/lectern/internal/testutil"
)

// TestRunFullTurnWithMockModel wires real stages to the mock model and runs
// a complete verified turn: retrieve, grade, generate, audit, release.
func TestRunFullTurnWithMockModel(t *testing.T) {
	g := genkit.Init(context.Background())

	mock := testutil.NewMockLLM("no")
	// Patterns are matched in order against the user message; the audit and
	// generation prompts are distinguished by their fixed phrasing.
	mock.AddResponse("supported by the facts", "yes")
	mock.AddResponse("does the answer address the question", "yes")
	mock.AddResponse("answer strictly from the context above", "Manifolds are spaces that are locally euclidean.")
	mock.AddResponse("is the segment relevant to the question", "yes")
	mock.RegisterModel(g)

	embedder := testutil.NewMockEmbedder(corpus.VectorDimension).RegisterEmbedder(g)
	searcher := testutil.NewStaticSearcher(
		corpus.Passage{ID: "p1", Content: "a manifold is locally euclidean", Source: "week5.pdf", Page: "3"},
	)
	retriever := corpus.NewRetriever(embedder, searcher, log.NewNop())

	logger := log.NewNop()
	loop := New(
		retriever,
		NewGrader(g, testutil.ModelName, judgeTimeout, logger),
		NewRewriter(g, testutil.ModelName, judgeTimeout, logger),
		NewGenerator(g, testutil.ModelName, judgeTimeout, logger),
		NewGate(g, testutil.ModelName, judgeTimeout, logger),
		logger,
	)

	result, err := loop.Run(context.Background(), "what is a manifold?")
	require.NoError(t, err)

	assert.Equal(t, "Manifolds are spaces that are locally euclidean.", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "week5.pdf", result.Sources[0].Source)
	assert.Equal(t, "3", result.Sources[0].Page)
	assert.Contains(t, result.Thoughts, "Success! Final answer verified.")

	// One call each: grade, generate, groundedness, usefulness.
	assert.Equal(t, 4, mock.CallCount())
	assert.Equal(t, 1, searcher.Searches())
}
