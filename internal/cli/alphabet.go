package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/featx"
	"github.com/happyhackingspace/featx/internal/metrics"
)

func (c *CLI) newAlphabetCommand() *cobra.Command {
	var folds, holdout int
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "alphabet <corpus-folder> <alphabet-file>",
		Short: "Build and save a feature alphabet from an annotated corpus",
		Args:  cobra.ExactArgs(2),
		Example: `  featx alphabet data alphabet.txt
  featx alphabet data alphabet.txt -t "Head1-Word * Frame + 1" --prefix fid
  featx alphabet data alphabet.txt --folds 10 --holdout 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, out := args[0], args[1]
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			instances, err := featx.LoadCorpus(corpus, corpusOptions(cfg, c.verbose))
			if err != nil {
				return err
			}
			if folds > 1 {
				split := featx.DomainFolds(instances, folds)
				if holdout < 0 || holdout >= len(split) {
					return fmt.Errorf("holdout fold %d out of range [0,%d)", holdout, len(split))
				}
				var test []featx.Instance
				instances, test = featx.SelectFold(instances, split, holdout)
				slog.Info("Holding out fold", "fold", holdout, "folds", len(split), "train", len(instances), "test", len(test))
			}

			m := metrics.New()
			alphabet := newAlphabet(cfg)
			f, err := newFeaturizer(cfg, alphabet, m)
			if err != nil {
				return err
			}

			slog.Info("Building alphabet", "corpus", corpus, "instances", len(instances), "templates", cfg.Templates)
			start := time.Now()
			size, err := featx.ScanAlphabet(instances, f)
			if err != nil {
				return err
			}
			m.SetAlphabetSize(size)
			slog.Debug("Alphabet scan completed", "duration", time.Since(start))

			if err := alphabet.Save(out); err != nil {
				return err
			}
			slog.Info("Alphabet saved", "path", out, "size", size)
			return writeMetrics(m, metricsFile)
		},
	}

	cmd.Flags().IntVar(&folds, "folds", 0, "Split the corpus into domain-grouped folds")
	cmd.Flags().IntVar(&holdout, "holdout", 0, "Fold excluded from the alphabet when --folds > 1")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	return cmd
}
