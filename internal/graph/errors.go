package graph

import "errors"

var (
	// ErrRetrievalUnavailable indicates the passage index or embedder was
	// unreachable. Fatal for the turn; surfaced as a connectivity failure.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrJudgmentParse indicates a model response could not be interpreted
	// even after the single in-place retry. Fatal for the turn.
	ErrJudgmentParse = errors.New("judgment response unparseable")

	// ErrEmptyQuestion indicates the turn was started without a question.
	ErrEmptyQuestion = errors.New("empty question")
)
