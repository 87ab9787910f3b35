package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptPersona is the system instruction for answer generation.
	// This prompt has no format placeholders; the context block is appended to it.
	PromptPersona = "persona"

	// PromptQuestion wraps the user's question.
	// The prompt template expects a %s placeholder for the question.
	PromptQuestion = "question"

	// PromptSummarise condenses the conversation into a running summary.
	// The prompt template expects %d (max words), %s (current summary) and
	// %s (new lines of conversation) placeholders.
	PromptSummarise = "summarise"

	// PromptSummaryContext introduces the conversation summary to the answer model.
	// The prompt template expects a %s placeholder for the summary.
	PromptSummaryContext = "summary_context"
)
