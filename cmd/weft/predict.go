package main

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/weft-ml/weft/internal/model"
	"github.com/weft-ml/weft/internal/serialization"
)

func newPredictCmd(log *logrus.Logger) *cobra.Command {
	k := 1

	cmd := &cobra.Command{
		Use:   "predict <model>",
		Short: "Predict the k best classes for each line on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if k <= 0 {
				return fmt.Errorf("k must be positive, got %d", k)
			}
			mf, err := serialization.Load(args[0])
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"vocab": mf.Dict.Size(),
				"dim":   mf.Config.Dim,
				"loss":  mf.Config.Loss.String(),
			}).Debug("model loaded")

			m := model.New(mf.Input, mf.Output, mf.Attn, mf.Bias, mf.Config, 0)
			m.SetTargetCounts(mf.Dict.Counts())

			scanner := bufio.NewScanner(os.Stdin)
			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()
			for scanner.Scan() {
				input := mf.Dict.Line(scanner.Text())
				if len(input) == 0 {
					fmt.Fprintln(out)
					continue
				}
				for i, p := range m.Predict(input, k) {
					if i > 0 {
						fmt.Fprint(out, " ")
					}
					fmt.Fprintf(out, "%s %.5g", mf.Dict.Token(p.Class), math.Exp(p.LogProb))
				}
				fmt.Fprintln(out)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().IntVarP(&k, "best", "k", 1, "number of predictions per line")
	return cmd
}
