package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/featx"
	"github.com/happyhackingspace/featx/feature"
	"github.com/happyhackingspace/featx/internal/config"
	"github.com/happyhackingspace/featx/internal/metrics"
	"github.com/happyhackingspace/featx/template"
)

type namedUnit struct {
	Instance string `json:"instance"`
	featx.Unit
	Names []string `json:"names"`
}

func (c *CLI) newExtractCommand() *cobra.Command {
	var alphabetPath string
	var names bool
	var workers int
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "extract <corpus-folder>",
		Short: "Extract feature vectors for every frame and role of a corpus as JSON lines",
		Args:  cobra.ExactArgs(1),
		Example: `  # Index with a saved alphabet
  featx extract data --alphabet alphabet.txt

  # Print rendered feature names instead of indices
  featx extract data --names -t "Head1-Word * Frame"

  # Hashed features, 8 workers, metrics to a textfile
  FEATX_INDEXER=hashed featx extract data --workers 8 --metrics-file featx.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus := args[0]
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if alphabetPath != "" {
				cfg.Indexer.Alphabet = alphabetPath
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			instances, err := featx.LoadCorpus(corpus, corpusOptions(cfg, c.verbose))
			if err != nil {
				return err
			}
			slog.Debug("Corpus loaded", "corpus", corpus, "instances", len(instances))

			m := metrics.New()
			w := bufio.NewWriter(cmd.OutOrStdout())
			enc := json.NewEncoder(w)

			if names {
				f, err := newFeaturizer(cfg, nil, m)
				if err != nil {
					return err
				}
				ctx := template.NewContext()
				for i := range instances {
					in := &instances[i]
					for u := range in.Contexts(ctx) {
						if err := enc.Encode(namedUnit{Instance: in.ID, Unit: u, Names: f.Names(ctx)}); err != nil {
							return err
						}
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}
				return writeMetrics(m, metricsFile)
			}

			indexer, err := resolveIndexer(cfg)
			if err != nil {
				return err
			}
			f, err := newFeaturizer(cfg, indexer, m)
			if err != nil {
				return err
			}
			if a, ok := indexer.(*feature.Alphabet); ok && a.State() == feature.Growing {
				slog.Info("No alphabet given, building from corpus", "instances", len(instances))
				if _, err := featx.ScanAlphabet(instances, f); err != nil {
					return err
				}
			}
			if a, ok := indexer.(*feature.Alphabet); ok {
				m.SetAlphabetSize(a.Size())
			}

			start := time.Now()
			results, err := featx.FeaturizeAll(cmd.Context(), instances, f, cfg.Workers)
			if err != nil {
				return err
			}
			slog.Info("Extraction completed", "units", len(results), "dimension", f.Dimension(), "duration", time.Since(start))

			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return writeMetrics(m, metricsFile)
		},
	}

	cmd.Flags().StringVar(&alphabetPath, "alphabet", "", "Saved alphabet file (overrides config)")
	cmd.Flags().BoolVar(&names, "names", false, "Emit rendered feature names instead of indices")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers (overrides config)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	return cmd
}

func resolveIndexer(cfg config.Config) (feature.Indexer, error) {
	switch cfg.Indexer.Kind {
	case config.IndexerHashed:
		return feature.NewHashed(cfg.Indexer.Buckets)
	case config.IndexerAlphabet:
		if cfg.Indexer.Alphabet == "" {
			return newAlphabet(cfg), nil
		}
		return feature.LoadAlphabet(cfg.Indexer.Alphabet)
	default:
		return nil, fmt.Errorf("unknown indexer %q", cfg.Indexer.Kind)
	}
}
