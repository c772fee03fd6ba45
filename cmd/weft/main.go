// Package main provides the weft command-line interface.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:           "weft",
		Short:         "weft trains shallow embedding models with attention",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	}

	root.AddCommand(newTrainCmd(log))
	root.AddCommand(newPredictCmd(log))

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
