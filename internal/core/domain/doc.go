// Package domain defines the core entities of the guru answering pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: text extracted from one corpus file
//   - Chunk: a token-bounded span of a document, the unit of retrieval
//   - RetrievalHit: a chunk scored against a query
//   - ConversationTurn: one question and its answer
//   - Memory: the condensed conversation state carried between turns
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
