package corpus

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// EmbedQuery converts query text to a single embedding vector using a
// Genkit embedder.
func EmbedQuery(ctx context.Context, embedder ai.Embedder, text string) ([]float32, error) {
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}

	return resp.Embeddings[0].Embedding, nil
}
