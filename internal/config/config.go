// Package config holds the run configuration shared by the trainer, the
// model core and the CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loss selects the output-loss strategy.
type Loss int

const (
	// LossNegativeSampling contrasts the target against sampled non-targets.
	LossNegativeSampling Loss = iota
	// LossHierarchicalSoftmax factors class probability over a Huffman tree.
	LossHierarchicalSoftmax
	// LossSoftmax is the exact full softmax over the output vocabulary.
	LossSoftmax
)

// String returns the config-file spelling of the loss.
func (l Loss) String() string {
	switch l {
	case LossNegativeSampling:
		return "ns"
	case LossHierarchicalSoftmax:
		return "hs"
	case LossSoftmax:
		return "softmax"
	default:
		return fmt.Sprintf("Loss(%d)", int(l))
	}
}

// ParseLoss parses the config-file spelling of a loss.
func ParseLoss(s string) (Loss, error) {
	switch s {
	case "ns":
		return LossNegativeSampling, nil
	case "hs":
		return LossHierarchicalSoftmax, nil
	case "softmax":
		return LossSoftmax, nil
	default:
		return 0, fmt.Errorf("config: unknown loss %q (want ns, hs or softmax)", s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (l Loss) MarshalYAML() (any, error) {
	return l.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Loss) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLoss(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Model selects the model variant. The variant decides how training examples
// are cut from a line and whether the loss gradient is rescaled by the input
// size before it is folded back into the input embeddings.
type Model int

const (
	// ModelCBOW predicts a word from the bag of its context.
	ModelCBOW Model = iota
	// ModelSkipgram predicts each context word from the center word.
	ModelSkipgram
	// ModelSupervised predicts a class from the bag of all line features;
	// its gradient is averaged over the input set.
	ModelSupervised
)

// String returns the config-file spelling of the model variant.
func (m Model) String() string {
	switch m {
	case ModelCBOW:
		return "cbow"
	case ModelSkipgram:
		return "skipgram"
	case ModelSupervised:
		return "supervised"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// ParseModel parses the config-file spelling of a model variant.
func ParseModel(s string) (Model, error) {
	switch s {
	case "cbow":
		return ModelCBOW, nil
	case "skipgram":
		return ModelSkipgram, nil
	case "supervised":
		return ModelSupervised, nil
	default:
		return 0, fmt.Errorf("config: unknown model %q (want cbow, skipgram or supervised)", s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (m Model) MarshalYAML() (any, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Model) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseModel(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Attention selects the attention-weighted pooling variant, or disables
// attention entirely (plain bag-of-embeddings averaging).
type Attention int

const (
	// AttentionNone pools the input bag by arithmetic mean.
	AttentionNone Attention = iota
	// AttentionContext scores each (feature, position) pair by the feature's
	// own attention row.
	AttentionContext
	// AttentionTarget scores each pair by the target class's attention row.
	AttentionTarget
)

// String returns the config-file spelling of the attention variant.
func (a Attention) String() string {
	switch a {
	case AttentionNone:
		return "none"
	case AttentionContext:
		return "context"
	case AttentionTarget:
		return "target"
	default:
		return fmt.Sprintf("Attention(%d)", int(a))
	}
}

// ParseAttention parses the config-file spelling of an attention variant.
func ParseAttention(s string) (Attention, error) {
	switch s {
	case "none":
		return AttentionNone, nil
	case "context":
		return AttentionContext, nil
	case "target":
		return AttentionTarget, nil
	default:
		return 0, fmt.Errorf("config: unknown attention %q (want none, context or target)", s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (a Attention) MarshalYAML() (any, error) {
	return a.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Attention) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseAttention(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// TokenizerKind selects how corpus lines are split into tokens.
type TokenizerKind string

const (
	// TokenizerWhitespace splits on whitespace.
	TokenizerWhitespace TokenizerKind = "whitespace"
	// TokenizerBPE splits with the cl100k_base byte-pair encoding.
	TokenizerBPE TokenizerKind = "bpe"
)

// Config is the full run configuration.
//
// LR is the trainer's starting learning rate; the core receives the decayed
// rate per call and never stores it.
type Config struct {
	Dim       int           `yaml:"dim"`
	Loss      Loss          `yaml:"loss"`
	Model     Model         `yaml:"model"`
	Attention Attention     `yaml:"attention"`
	Neg       int           `yaml:"neg"`
	LR        float64       `yaml:"lr"`
	Window    int           `yaml:"window"`
	Epoch     int           `yaml:"epoch"`
	Threads   int           `yaml:"threads"`
	MinCount  int           `yaml:"min_count"`
	Tokenizer TokenizerKind `yaml:"tokenizer"`
	LogEvery  int64         `yaml:"log_every"`
}

// Default returns the defaults used by the CLI.
func Default() *Config {
	return &Config{
		Dim:       100,
		Loss:      LossNegativeSampling,
		Model:     ModelCBOW,
		Attention: AttentionNone,
		Neg:       5,
		LR:        0.05,
		Window:    5,
		Epoch:     5,
		Threads:   4,
		MinCount:  5,
		Tokenizer: TokenizerWhitespace,
		LogEvery:  100_000,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Dim <= 0:
		return fmt.Errorf("config: dim must be positive, got %d", c.Dim)
	case c.Neg < 0:
		return fmt.Errorf("config: neg must be non-negative, got %d", c.Neg)
	case c.LR <= 0:
		return fmt.Errorf("config: lr must be positive, got %g", c.LR)
	case c.Window <= 0:
		return fmt.Errorf("config: window must be positive, got %d", c.Window)
	case c.Epoch <= 0:
		return fmt.Errorf("config: epoch must be positive, got %d", c.Epoch)
	case c.Threads <= 0:
		return fmt.Errorf("config: threads must be positive, got %d", c.Threads)
	case c.MinCount < 1:
		return fmt.Errorf("config: min_count must be at least 1, got %d", c.MinCount)
	}
	if c.Tokenizer != TokenizerWhitespace && c.Tokenizer != TokenizerBPE {
		return fmt.Errorf("config: unknown tokenizer %q", c.Tokenizer)
	}
	if c.Attention != AttentionNone && c.Model == ModelSupervised {
		return fmt.Errorf("config: attention variants require cbow or skipgram")
	}
	return nil
}

// Load reads a YAML config file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
