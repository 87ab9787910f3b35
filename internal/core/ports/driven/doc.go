// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a session to start:
//
//   - CorpusSource: Lists and reads corpus items (directory of files)
//   - NormaliserRegistry: Extracts text from raw corpus items
//   - Tokenizer: Deterministic tokenisation for chunk sizing
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores vectors and answers nearest-neighbour queries
//   - LLMService: Chat completion for answers and memory condensation
//   - PromptStore: Persona and summarisation prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TranscriptStore: Persists turns and summaries. Without it, sessions are in-memory only.
//   - CorpusWatcher: Reports corpus changes during a session.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
