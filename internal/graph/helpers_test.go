package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lectern-ai/lectern/internal/corpus"
)

func TestParseBinary(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		verdict bool
		ok      bool
	}{
		{"plain yes", "yes", true, true},
		{"plain no", "no", false, true},
		{"uppercase", "YES", true, true},
		{"punctuated", "Yes.", true, true},
		{"leading whitespace", "  no\n", false, true},
		{"code fenced", "```\nyes\n```", true, true},
		{"trailing chatter", "yes, the segment is relevant", true, true},
		{"embedded not leading", "the answer is yes", false, false},
		{"empty", "", false, false},
		{"hedging", "maybe", false, false},
		{"negated yes", "not yes", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, ok := parseBinary(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.verdict, verdict)
			}
		})
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("429: rate limit exceeded"), true},
		{"quota", errors.New("Quota Exceeded for project"), true},
		{"server error", errors.New("received 503 from upstream"), true},
		{"unavailable", errors.New("service unavailable"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"timeout", errors.New("request timeout"), true},
		{"bad request", errors.New("400 invalid argument"), false},
		{"auth", errors.New("401 unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "hello", stripCodeFences("```\nhello\n```"))
	assert.Equal(t, "hello", stripCodeFences("```text\nhello\n```"))
	assert.Equal(t, "no fences", stripCodeFences("no fences"))
	assert.Equal(t, "", stripCodeFences(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "lon...", truncate("longer", 3))
}

func TestFormatEvidence(t *testing.T) {
	evidence := []corpus.Passage{
		{ID: "p1", Content: "manifolds", Source: "week5.pdf", Page: "3"},
		{ID: "p2", Content: "atlases", Source: "week6.pdf", Page: "N/A"},
	}

	got := formatEvidence(evidence)
	assert.Contains(t, got, "SOURCE: week5.pdf (Page 3)")
	assert.Contains(t, got, "CONTENT: manifolds")
	assert.Contains(t, got, "SOURCE: week6.pdf (Page N/A)")
}
