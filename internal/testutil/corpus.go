package testutil

import (
	"context"
	"sync"

	"github.com/lectern-ai/lectern/internal/corpus"
)

// StaticSearcher is an in-memory corpus.Searcher returning a fixed passage
// set. It records every search so tests can assert how often the index was
// consulted.
//
// Thread-safe for concurrent use.
type StaticSearcher struct {
	mu       sync.Mutex
	passages []corpus.Passage
	searches int
	err      error
}

// NewStaticSearcher creates a searcher returning the given passages.
func NewStaticSearcher(passages ...corpus.Passage) *StaticSearcher {
	return &StaticSearcher{passages: passages}
}

// SetPassages replaces the result set for subsequent searches.
func (s *StaticSearcher) SetPassages(passages ...corpus.Passage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages = passages
}

// SetError makes every subsequent search fail with err.
func (s *StaticSearcher) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Searches returns how many times Search was called.
func (s *StaticSearcher) Searches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches
}

// Search implements corpus.Searcher.
func (s *StaticSearcher) Search(_ context.Context, _ []float32, k int) ([]corpus.Passage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++

	if s.err != nil {
		return nil, s.err
	}

	n := min(k, len(s.passages))
	out := make([]corpus.Passage, n)
	copy(out, s.passages[:n])
	return out, nil
}
