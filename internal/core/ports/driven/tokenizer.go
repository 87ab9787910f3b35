package driven

// Tokenizer converts text to model tokens and back.
// Implementations must be deterministic: the same text always yields the
// same tokens, so chunk boundaries are reproducible.
type Tokenizer interface {
	// Encode returns the tokens of text.
	Encode(text string) []int

	// Decode returns the text of tokens.
	Decode(tokens []int) string

	// Name returns the encoding name, e.g. "cl100k_base".
	Name() string
}
