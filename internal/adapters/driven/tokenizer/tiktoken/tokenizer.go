// Package tiktoken adapts pkoukk/tiktoken-go to the Tokenizer port.
// BPE ranks are loaded from the binary (tiktoken-go-loader), so building a
// tokenizer never touches the network.
package tiktoken

import (
	"fmt"
	"sync"

	tiktokenlib "github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// DefaultEncoding is the encoding of text-embedding-ada-002 and the GPT-3.5/4 chat models.
const DefaultEncoding = "cl100k_base"

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

var loaderOnce sync.Once

// Tokenizer counts tokens with an OpenAI BPE encoding.
type Tokenizer struct {
	name string
	enc  *tiktokenlib.Tiktoken
}

// New creates a tokenizer for the named encoding. An empty name selects DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	loaderOnce.Do(func() {
		tiktokenlib.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})

	enc, err := tiktokenlib.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.NewConfigurationError("chunking.encoding",
			"unknown encoding %q", encoding), err)
	}

	return &Tokenizer{name: encoding, enc: enc}, nil
}

// ForModel creates a tokenizer for the encoding used by the given model,
// falling back to DefaultEncoding for unknown models such as Azure deployment names.
func ForModel(model string) (*Tokenizer, error) {
	loaderOnce.Do(func() {
		tiktokenlib.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})

	enc, err := tiktokenlib.EncodingForModel(model)
	if err != nil {
		return New(DefaultEncoding)
	}
	return &Tokenizer{name: model, enc: enc}, nil
}

// Encode returns the tokens of text. Special tokens are encoded as plain text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode returns the text of tokens.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Name returns the encoding name, or the model name for a tokenizer created
// with ForModel.
func (t *Tokenizer) Name() string {
	return t.name
}
