// Package testutil provides shared testing utilities: a deterministic mock
// model and embedder registered through Genkit, an in-memory passage
// searcher, and a pgvector-enabled PostgreSQL container for integration
// tests.
package testutil
