// Package dict builds the vocabulary the model trains over: token counting
// over a corpus stream, minimum-count pruning, and class-ID assignment in
// ascending count order. The ascending order is load-bearing: it is what
// guarantees the Huffman tree builder's sorted-counts precondition.
package dict

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Dict maps tokens to dense class IDs and back.
//
// IDs are assigned so that counts are non-decreasing in ID; Counts() can be
// fed directly to the model's SetTargetCounts.
type Dict struct {
	tokens  []string
	counts  []int64
	ids     map[string]int
	tok     Tokenizer
	pruned  int64 // occurrences dropped by min-count pruning
	scanned int64 // total token occurrences seen
}

// Builder accumulates token counts from corpus text.
type Builder struct {
	tok      Tokenizer
	minCount int
	counts   map[string]int64
	order    map[string]int64 // first-appearance rank, for stable ties
	next     int64
	scanned  int64
}

// NewBuilder creates a builder using the given tokenizer. Tokens seen fewer
// than minCount times are pruned from the final dictionary.
func NewBuilder(tok Tokenizer, minCount int) *Builder {
	if minCount < 1 {
		panic(fmt.Sprintf("dict: minCount must be at least 1, got %d", minCount))
	}
	return &Builder{
		tok:      tok,
		minCount: minCount,
		counts:   make(map[string]int64),
		order:    make(map[string]int64),
	}
}

// ReadFrom counts tokens from every line of r.
func (b *Builder) ReadFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		b.AddLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("dict: scan corpus: %w", err)
	}
	return nil
}

// AddLine counts the tokens of a single line.
func (b *Builder) AddLine(line string) {
	for _, t := range b.tok.Tokenize(line) {
		if _, seen := b.counts[t]; !seen {
			b.order[t] = b.next
			b.next++
		}
		b.counts[t]++
		b.scanned++
	}
}

// Build prunes rare tokens and assigns IDs in ascending count order.
func (b *Builder) Build() *Dict {
	type entry struct {
		token string
		count int64
		rank  int64
	}
	entries := make([]entry, 0, len(b.counts))
	var pruned int64
	for t, c := range b.counts {
		if c < int64(b.minCount) {
			pruned += c
			continue
		}
		entries = append(entries, entry{token: t, count: c, rank: b.order[t]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count < entries[j].count
		}
		return entries[i].rank < entries[j].rank
	})

	d := &Dict{
		tokens:  make([]string, len(entries)),
		counts:  make([]int64, len(entries)),
		ids:     make(map[string]int, len(entries)),
		tok:     b.tok,
		pruned:  pruned,
		scanned: b.scanned,
	}
	for i, e := range entries {
		d.tokens[i] = e.token
		d.counts[i] = e.count
		d.ids[e.token] = i
	}
	return d
}

// FromParts reconstructs a dictionary from its serialized form. tokens must
// already be in ascending count order.
func FromParts(tokens []string, counts []int64, tok Tokenizer) *Dict {
	if len(tokens) != len(counts) {
		panic(fmt.Sprintf("dict: %d tokens vs %d counts", len(tokens), len(counts)))
	}
	d := &Dict{
		tokens: tokens,
		counts: counts,
		ids:    make(map[string]int, len(tokens)),
		tok:    tok,
	}
	for i, t := range tokens {
		d.ids[t] = i
	}
	return d
}

// Size returns the vocabulary size V.
func (d *Dict) Size() int {
	return len(d.tokens)
}

// ID returns the class ID for a token.
func (d *Dict) ID(token string) (int, bool) {
	id, ok := d.ids[token]
	return id, ok
}

// Token returns the token for a class ID.
func (d *Dict) Token(id int) string {
	return d.tokens[id]
}

// Count returns the corpus frequency of a class.
func (d *Dict) Count(id int) int64 {
	return d.counts[id]
}

// Counts returns the per-class frequencies, ascending in class ID. The
// returned slice is the dictionary's own; callers must not mutate it.
func (d *Dict) Counts() []int64 {
	return d.counts
}

// Tokens returns the tokens ordered by class ID. The returned slice is the
// dictionary's own; callers must not mutate it.
func (d *Dict) Tokens() []string {
	return d.tokens
}

// TokenCount returns the total token occurrences scanned while building,
// including pruned ones. The trainer uses it for progress accounting.
func (d *Dict) TokenCount() int64 {
	return d.scanned
}

// Pruned returns the token occurrences dropped by min-count pruning.
func (d *Dict) Pruned() int64 {
	return d.pruned
}

// Line tokenizes text and maps it to class IDs, dropping out-of-vocabulary
// tokens.
func (d *Dict) Line(text string) []int {
	toks := d.tok.Tokenize(text)
	ids := make([]int, 0, len(toks))
	for _, t := range toks {
		if id, ok := d.ids[t]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
