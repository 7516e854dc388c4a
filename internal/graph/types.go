package graph

import "github.com/lectern-ai/lectern/internal/corpus"

// Answer is one generated answer together with the graded passages it was
// synthesized from. Replaced wholesale on regeneration, never edited.
type Answer struct {
	Text string

	// Citations is the evidence set the generator consumed. Always a
	// subset of the graded passages of the cycle that produced it; empty
	// for the insufficient-evidence answer.
	Citations []corpus.Passage
}

// Verdict is the verification gate's judgment of one Answer.
// Recomputed for every audit; never reused across answers.
type Verdict struct {
	Grounded bool
	Useful   bool
}

// Source is one citation card in the final payload.
type Source struct {
	Source  string `json:"source"`
	Page    string `json:"page"`
	Content string `json:"content"`
}

// Result is the terminal payload of a turn.
type Result struct {
	Answer   string   `json:"answer"`
	Thoughts []string `json:"thoughts"`
	Sources  []Source `json:"sources"`
}

// state is the tagged orchestrator state.
type state string

const (
	stateRetrieving state = "retrieving"
	stateGrading    state = "grading"
	stateRewriting  state = "rewriting"
	stateGenerating state = "generating"
	stateAuditing   state = "auditing"
	stateDone       state = "done"
)

// cycleState is the mutable record threaded through one turn. Owned
// exclusively by Graph.Run; stages never retain it.
type cycleState struct {
	question     string // immutable original question
	workingQuery string // current retrieval query

	passages []corpus.Passage // latest retrieval batch
	graded   []corpus.Passage // relevant subset of the latest batch
	answer   *Answer
	verdict  Verdict

	thoughts []string

	rewrites      int // retrieval/rewrite cycles spent
	regenerations int // generate/audit retries spent
}

func (cs *cycleState) think(thought string) {
	cs.thoughts = append(cs.thoughts, thought)
}
