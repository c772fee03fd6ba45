package dict

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/weft-ml/weft/internal/config"
)

// Tokenizer splits a corpus line into tokens.
type Tokenizer interface {
	Tokenize(line string) []string
}

// NewTokenizer builds the tokenizer named by the config.
func NewTokenizer(kind config.TokenizerKind) (Tokenizer, error) {
	switch kind {
	case config.TokenizerWhitespace:
		return WhitespaceTokenizer{}, nil
	case config.TokenizerBPE:
		return NewBPETokenizer("cl100k_base")
	default:
		return nil, fmt.Errorf("dict: unknown tokenizer %q", kind)
	}
}

// WhitespaceTokenizer splits on runs of whitespace.
type WhitespaceTokenizer struct{}

// Tokenize implements Tokenizer.
func (WhitespaceTokenizer) Tokenize(line string) []string {
	return strings.Fields(line)
}

// BPETokenizer splits lines into byte-pair-encoded subword tokens, so the
// vocabulary covers unseen words by composition.
type BPETokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewBPETokenizer creates a BPE tokenizer for the named tiktoken encoding.
func NewBPETokenizer(encodingName string) (*BPETokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("dict: load BPE encoding %q: %w", encodingName, err)
	}
	return &BPETokenizer{encoding: encoding}, nil
}

// Tokenize implements Tokenizer. Each BPE token id is decoded back to its
// surface string so dictionary entries stay human-readable.
func (t *BPETokenizer) Tokenize(line string) []string {
	ids := t.encoding.Encode(line, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = t.encoding.Decode([]int{id})
	}
	return tokens
}
