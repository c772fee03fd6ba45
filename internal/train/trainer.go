// Package train runs the outer training loop: it owns the shared parameter
// matrices, shards the corpus across worker goroutines, decays the learning
// rate by global token progress and logs progress.
//
// Each worker holds its own model.Model seeded by its worker index; all
// workers share the parameter matrices by reference. Updates race at row
// level by design (asynchronous lock-free SGD) — the only synchronized state
// is the token-progress counter, which never guards a table update.
package train

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/dict"
	"github.com/weft-ml/weft/internal/linalg"
	"github.com/weft-ml/weft/internal/model"
)

// Trainer owns the shared model parameters for one training run.
type Trainer struct {
	cfg  *config.Config
	dict *dict.Dict
	log  *logrus.Logger

	// Shared across all workers; see the package comment for the racing
	// contract.
	Input  *linalg.Matrix
	Output *linalg.Matrix
	Attn   *linalg.Matrix // nil unless an attention variant is configured
	Bias   *linalg.Vector // nil unless an attention variant is configured

	tokenCount atomic.Int64
	avgLoss    float64
}

// New allocates the shared parameters for the dictionary's vocabulary.
// Input embeddings start uniform in [-1/dim, 1/dim]; output embeddings,
// attention weights and biases start at zero.
func New(cfg *config.Config, d *dict.Dict, log *logrus.Logger) *Trainer {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if d.Size() == 0 {
		panic("train: empty dictionary")
	}
	if log == nil {
		log = logrus.New()
	}
	t := &Trainer{
		cfg:    cfg,
		dict:   d,
		log:    log,
		Input:  linalg.NewMatrix(d.Size(), cfg.Dim),
		Output: linalg.NewMatrix(d.Size(), cfg.Dim),
	}
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // weight init
	t.Input.UniformInit(rng, 1.0/float64(cfg.Dim))
	if cfg.Attention != config.AttentionNone {
		t.Attn = linalg.NewMatrix(d.Size(), 2*cfg.Window+1)
		t.Bias = linalg.NewVector(2*cfg.Window + 1)
	}
	return t
}

// NewModel builds a worker model over the trainer's shared parameters with
// its loss structures ready. The prediction CLI uses this too.
func (t *Trainer) NewModel(seed int64) *model.Model {
	m := model.New(t.Input, t.Output, t.Attn, t.Bias, t.cfg, seed)
	m.SetTargetCounts(t.dict.Counts())
	return m
}

// Train reads the corpus and runs cfg.Epoch epochs over cfg.Threads
// workers. Lines are mapped to class IDs once up front and sharded
// round-robin across workers.
func (t *Trainer) Train(corpus io.Reader) error {
	lines, total, err := t.readCorpus(corpus)
	if err != nil {
		return err
	}
	if total == 0 {
		return fmt.Errorf("train: corpus has no in-vocabulary tokens")
	}
	totalTokens := total * int64(t.cfg.Epoch)

	start := time.Now()
	workers := t.cfg.Threads
	losses := make([]float64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			losses[id] = t.worker(id, lines, totalTokens)
		}(w)
	}
	wg.Wait()

	t.avgLoss = 0
	for _, l := range losses {
		t.avgLoss += l
	}
	t.avgLoss /= float64(workers)
	t.log.WithFields(logrus.Fields{
		"tokens":   t.tokenCount.Load(),
		"avg_loss": t.avgLoss,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("training finished")
	return nil
}

// AvgLoss returns the mean of the workers' running average losses after
// Train returns.
func (t *Trainer) AvgLoss() float64 {
	return t.avgLoss
}

func (t *Trainer) readCorpus(corpus io.Reader) ([][]int, int64, error) {
	var lines [][]int
	var total int64
	scanner := bufio.NewScanner(corpus)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ids := t.dict.Line(scanner.Text())
		if len(ids) == 0 {
			continue
		}
		lines = append(lines, ids)
		total += int64(len(ids))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("train: scan corpus: %w", err)
	}
	return lines, total, nil
}

// worker runs every epoch over its round-robin shard and returns its model's
// final running average loss.
func (t *Trainer) worker(id int, lines [][]int, totalTokens int64) float64 {
	m := t.NewModel(int64(id))
	rng := rand.New(rand.NewSource(int64(id) + 1)) //nolint:gosec // window sampling
	sinceLog := int64(0)
	for epoch := 0; epoch < t.cfg.Epoch; epoch++ {
		for i := id; i < len(lines); i += t.cfg.Threads {
			line := lines[i]
			progress := float64(t.tokenCount.Load()) / float64(totalTokens)
			if progress > 1 {
				progress = 1
			}
			lr := t.cfg.LR * (1 - progress)
			t.trainLine(m, rng, line, lr)
			t.tokenCount.Add(int64(len(line)))
			sinceLog += int64(len(line))
			if id == 0 && sinceLog >= t.cfg.LogEvery {
				sinceLog = 0
				t.log.WithFields(logrus.Fields{
					"progress": fmt.Sprintf("%.1f%%", progress*100),
					"lr":       lr,
					"avg_loss": m.AvgLoss(),
				}).Debug("training progress")
			}
		}
	}
	return m.AvgLoss()
}

// trainLine cuts one line into training examples per the model and
// attention variants.
func (t *Trainer) trainLine(m *model.Model, rng *rand.Rand, line []int, lr float64) {
	switch {
	case t.cfg.Attention != config.AttentionNone:
		t.trainLineAttn(m, line, lr)
	case t.cfg.Model == config.ModelSupervised:
		// First token of the line is the class; the rest is the input bag.
		if len(line) >= 2 {
			m.Update(line[1:], line[0], lr)
		}
	case t.cfg.Model == config.ModelSkipgram:
		for i := range line {
			boundary := 1 + rng.Intn(t.cfg.Window)
			for j := i - boundary; j <= i+boundary; j++ {
				if j < 0 || j >= len(line) || j == i {
					continue
				}
				m.Update(line[i:i+1], line[j], lr)
			}
		}
	default: // cbow
		bag := make([]int, 0, 2*t.cfg.Window)
		for i := range line {
			boundary := 1 + rng.Intn(t.cfg.Window)
			bag = bag[:0]
			for j := i - boundary; j <= i+boundary; j++ {
				if j < 0 || j >= len(line) || j == i {
					continue
				}
				bag = append(bag, line[j])
			}
			m.Update(bag, line[i], lr)
		}
	}
}

// trainLineAttn predicts each token from its windowed (feature, position)
// context pairs. Positions are shifted by the window size so they index the
// attention table's [0, 2*window] columns; the attention variants use the
// full fixed window so position indices stay stable.
func (t *Trainer) trainLineAttn(m *model.Model, line []int, lr float64) {
	w := t.cfg.Window
	pairs := make([]model.Pair, 0, 2*w)
	for i := range line {
		pairs = pairs[:0]
		for j := i - w; j <= i+w; j++ {
			if j < 0 || j >= len(line) || j == i {
				continue
			}
			pairs = append(pairs, model.Pair{Feature: line[j], Position: j - i + w})
		}
		if t.cfg.Attention == config.AttentionTarget {
			m.UpdateAttnTarget(pairs, line[i], lr)
		} else {
			m.UpdateAttn(pairs, line[i], lr)
		}
	}
}
