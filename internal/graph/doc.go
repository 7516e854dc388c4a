// Package graph implements the agentic retrieval-augmented answering loop.
//
// A turn moves through an explicit state machine:
//
//	RETRIEVING → GRADING → {REWRITING → RETRIEVING | GENERATING}
//	           → AUDITING → {GENERATING | REWRITING → RETRIEVING | DONE}
//
// Retrieval pulls candidate passages from the corpus, the grader filters
// them against the original question, the generator synthesizes a cited
// answer from the surviving passages, and the verification gate audits the
// answer for groundedness and usefulness before it is released. Rewriting
// reformulates the working query when the evidence is insufficient.
//
// Every model judgment is parsed defensively with a fail-closed default,
// and both the retrieve/rewrite and generate/audit cycles carry hard
// budgets so a turn always terminates: either with a verified answer, with
// a best-effort answer plus an explicit caveat, or with an error.
//
// All per-turn state lives in a cycleState owned by Graph.Run; stages are
// pure functions of their inputs, so independent turns may run concurrently
// against the same Graph.
package graph
