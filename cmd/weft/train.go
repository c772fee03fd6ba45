package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/dict"
	"github.com/weft-ml/weft/internal/serialization"
	"github.com/weft-ml/weft/internal/train"
)

func newTrainCmd(log *logrus.Logger) *cobra.Command {
	defaults := config.Default()
	var (
		configPath string
		output     string
		dim        int
		lossName   string
		modelName  string
		attnName   string
		neg        int
		lr         float64
		window     int
		epoch      int
		threads    int
		minCount   int
		tokName    string
	)

	cmd := &cobra.Command{
		Use:   "train <corpus>",
		Short: "Train a model on a text corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			// Flags set explicitly override the config file.
			var err error
			if cmd.Flags().Changed("dim") {
				cfg.Dim = dim
			}
			if cmd.Flags().Changed("loss") {
				if cfg.Loss, err = config.ParseLoss(lossName); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("model") {
				if cfg.Model, err = config.ParseModel(modelName); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("attention") {
				if cfg.Attention, err = config.ParseAttention(attnName); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("neg") {
				cfg.Neg = neg
			}
			if cmd.Flags().Changed("lr") {
				cfg.LR = lr
			}
			if cmd.Flags().Changed("window") {
				cfg.Window = window
			}
			if cmd.Flags().Changed("epoch") {
				cfg.Epoch = epoch
			}
			if cmd.Flags().Changed("threads") {
				cfg.Threads = threads
			}
			if cmd.Flags().Changed("min-count") {
				cfg.MinCount = minCount
			}
			if cmd.Flags().Changed("tokenizer") {
				cfg.Tokenizer = config.TokenizerKind(tokName)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runTrain(log, cfg, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&output, "output", "o", "model.weft", "output model file")
	cmd.Flags().IntVar(&dim, "dim", defaults.Dim, "hidden dimension")
	cmd.Flags().StringVar(&lossName, "loss", defaults.Loss.String(), "loss strategy (ns, hs, softmax)")
	cmd.Flags().StringVar(&modelName, "model", defaults.Model.String(), "model variant (cbow, skipgram, supervised)")
	cmd.Flags().StringVar(&attnName, "attention", defaults.Attention.String(), "attention variant (none, context, target)")
	cmd.Flags().IntVar(&neg, "neg", defaults.Neg, "number of negative samples")
	cmd.Flags().Float64Var(&lr, "lr", defaults.LR, "starting learning rate")
	cmd.Flags().IntVar(&window, "window", defaults.Window, "context window size")
	cmd.Flags().IntVar(&epoch, "epoch", defaults.Epoch, "number of epochs")
	cmd.Flags().IntVar(&threads, "threads", defaults.Threads, "number of training workers")
	cmd.Flags().IntVar(&minCount, "min-count", defaults.MinCount, "minimum token count")
	cmd.Flags().StringVar(&tokName, "tokenizer", string(defaults.Tokenizer), "tokenizer (whitespace, bpe)")
	return cmd
}

func runTrain(log *logrus.Logger, cfg *config.Config, corpusPath, output string) error {
	tok, err := dict.NewTokenizer(cfg.Tokenizer)
	if err != nil {
		return err
	}

	//nolint:gosec // G304: the path is the user's chosen corpus file
	corpus, err := os.Open(corpusPath)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	builder := dict.NewBuilder(tok, cfg.MinCount)
	if err := builder.ReadFrom(corpus); err != nil {
		corpus.Close()
		return err
	}
	corpus.Close()
	d := builder.Build()
	if d.Size() == 0 {
		return fmt.Errorf("no tokens survived min-count pruning (min_count=%d)", cfg.MinCount)
	}
	log.WithFields(logrus.Fields{
		"vocab":  d.Size(),
		"tokens": d.TokenCount(),
	}).Info("dictionary built")

	trainer := train.New(cfg, d, log)
	//nolint:gosec // G304: same user-chosen corpus file
	corpus, err = os.Open(corpusPath)
	if err != nil {
		return fmt.Errorf("reopen corpus: %w", err)
	}
	defer corpus.Close()
	if err := trainer.Train(corpus); err != nil {
		return err
	}

	mf := &serialization.ModelFile{
		Config: cfg,
		Dict:   d,
		Input:  trainer.Input,
		Output: trainer.Output,
		Attn:   trainer.Attn,
		Bias:   trainer.Bias,
	}
	if err := serialization.Save(output, mf); err != nil {
		return err
	}
	log.WithField("path", output).Info("model saved")
	return nil
}
