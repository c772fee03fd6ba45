package train_test

import (
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/dict"
	"github.com/weft-ml/weft/internal/train"
)

const tinyCorpus = `the quick brown fox jumps over the lazy dog
the lazy dog sleeps under the brown tree
a quick fox runs past the sleeping dog
the brown dog and the quick fox play
`

func tinyConfig() *config.Config {
	cfg := config.Default()
	cfg.Dim = 16
	cfg.Loss = config.LossHierarchicalSoftmax
	cfg.Window = 2
	cfg.Epoch = 3
	cfg.Threads = 2
	cfg.MinCount = 1
	cfg.LogEvery = 1_000_000
	return cfg
}

func buildTinyDict(t *testing.T, cfg *config.Config) *dict.Dict {
	t.Helper()
	b := dict.NewBuilder(dict.WhitespaceTokenizer{}, cfg.MinCount)
	require.NoError(t, b.ReadFrom(strings.NewReader(tinyCorpus)))
	d := b.Build()
	require.Greater(t, d.Size(), 0)
	return d
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestTrain_CBOW(t *testing.T) {
	cfg := tinyConfig()
	d := buildTinyDict(t, cfg)
	tr := train.New(cfg, d, quietLogger())

	require.NoError(t, tr.Train(strings.NewReader(tinyCorpus)))

	loss := tr.AvgLoss()
	assert.Greater(t, loss, 0.0)
	assert.False(t, math.IsNaN(loss))
	assert.False(t, math.IsInf(loss, 0))
	assert.Nil(t, tr.Attn)
}

func TestTrain_Skipgram(t *testing.T) {
	cfg := tinyConfig()
	cfg.Model = config.ModelSkipgram
	d := buildTinyDict(t, cfg)
	tr := train.New(cfg, d, quietLogger())

	require.NoError(t, tr.Train(strings.NewReader(tinyCorpus)))
	assert.Greater(t, tr.AvgLoss(), 0.0)
}

func TestTrain_AttentionVariants(t *testing.T) {
	for _, attn := range []config.Attention{config.AttentionContext, config.AttentionTarget} {
		t.Run(attn.String(), func(t *testing.T) {
			cfg := tinyConfig()
			cfg.Attention = attn
			cfg.Threads = 1
			d := buildTinyDict(t, cfg)
			tr := train.New(cfg, d, quietLogger())

			require.NotNil(t, tr.Attn)
			require.NotNil(t, tr.Bias)
			require.Equal(t, 2*cfg.Window+1, tr.Attn.Cols)

			require.NoError(t, tr.Train(strings.NewReader(tinyCorpus)))

			loss := tr.AvgLoss()
			assert.Greater(t, loss, 0.0)
			assert.False(t, math.IsNaN(loss))
		})
	}
}

func TestTrain_MutatesParameters(t *testing.T) {
	cfg := tinyConfig()
	cfg.Threads = 1
	d := buildTinyDict(t, cfg)
	tr := train.New(cfg, d, quietLogger())

	before := make([]float64, len(tr.Output.Data))
	copy(before, tr.Output.Data)

	require.NoError(t, tr.Train(strings.NewReader(tinyCorpus)))

	assert.NotEqual(t, before, tr.Output.Data)
}

func TestTrain_PredictAfterTraining(t *testing.T) {
	cfg := tinyConfig()
	d := buildTinyDict(t, cfg)
	tr := train.New(cfg, d, quietLogger())
	require.NoError(t, tr.Train(strings.NewReader(tinyCorpus)))

	m := tr.NewModel(0)
	preds := m.Predict(d.Line("quick brown"), 3)
	require.NotEmpty(t, preds)
	assert.LessOrEqual(t, len(preds), 3)
	for i := 1; i < len(preds); i++ {
		assert.GreaterOrEqual(t, preds[i-1].LogProb, preds[i].LogProb)
	}
}

func TestTrain_EmptyCorpusFails(t *testing.T) {
	cfg := tinyConfig()
	d := buildTinyDict(t, cfg)
	tr := train.New(cfg, d, quietLogger())

	assert.Error(t, tr.Train(strings.NewReader("")))
}

func TestNew_EmptyDictPanics(t *testing.T) {
	cfg := tinyConfig()
	b := dict.NewBuilder(dict.WhitespaceTokenizer{}, 100)
	b.AddLine("only once each word here")
	d := b.Build()
	require.Equal(t, 0, d.Size())

	assert.Panics(t, func() { train.New(cfg, d, quietLogger()) })
}
