// Package api exposes the answering loop over a JSON HTTP interface.
//
// The surface is deliberately small: one question-answering endpoint plus
// liveness and readiness probes. Each request runs one full turn of the
// loop and returns the final answer, the reasoning trace, and the citation
// cards in a single response.
package api
