//go:build integration

package corpus_test

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/corpus"
	"github.com/lectern-ai/lectern/internal/log"
	"github.com/lectern-ai/lectern/internal/testutil"
)

// axisVector returns a unit vector along the given axis, so cosine
// similarity between passages is exactly 0 or 1.
func axisVector(axis int) []float32 {
	vec := make([]float32, corpus.VectorDimension)
	vec[axis] = 1
	return vec
}

func insertPassage(t *testing.T, db *testutil.TestDBContainer, id, content, source, page string, embedding []float32) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO passages (id, content, source, page, embedding) VALUES ($1, $2, $3, $4, $5)`,
		id, content, source, page, pgvector.NewVector(embedding))
	require.NoError(t, err)
}

func TestStoreSearchOrdersBySimilarity(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	insertPassage(t, db, "near", "nearest passage", "week5.pdf", "1", axisVector(0))
	insertPassage(t, db, "far", "distant passage", "week5.pdf", "2", axisVector(1))

	store := corpus.NewStore(db.Pool, log.NewNop())

	passages, err := store.Search(context.Background(), axisVector(0), 2)
	require.NoError(t, err)

	require.Len(t, passages, 2)
	assert.Equal(t, "near", passages[0].ID)
	assert.Equal(t, "far", passages[1].ID)
	assert.InDelta(t, 1.0, passages[0].Score, 1e-6)
}

func TestStoreSearchTiesBreakByID(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	// Identical embeddings: the id ordering must be stable.
	insertPassage(t, db, "b", "second by id", "week5.pdf", "1", axisVector(0))
	insertPassage(t, db, "a", "first by id", "week5.pdf", "1", axisVector(0))

	store := corpus.NewStore(db.Pool, log.NewNop())

	passages, err := store.Search(context.Background(), axisVector(0), 2)
	require.NoError(t, err)

	require.Len(t, passages, 2)
	assert.Equal(t, "a", passages[0].ID)
	assert.Equal(t, "b", passages[1].ID)
}

func TestStoreSearchLimit(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	for i, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		insertPassage(t, db, id, "passage "+id, "week5.pdf", "1", axisVector(i))
	}

	store := corpus.NewStore(db.Pool, log.NewNop())

	passages, err := store.Search(context.Background(), axisVector(0), 3)
	require.NoError(t, err)
	assert.Len(t, passages, 3)
}

func TestStorePing(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := corpus.NewStore(db.Pool, log.NewNop())
	assert.NoError(t, store.Ping(context.Background()))
}
