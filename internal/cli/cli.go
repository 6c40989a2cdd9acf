package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/featx"
	"github.com/happyhackingspace/featx/feature"
	"github.com/happyhackingspace/featx/internal/config"
	"github.com/happyhackingspace/featx/internal/metrics"
	"github.com/happyhackingspace/featx/template"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configPath  string
	templates   string
	prefix      string
	initialized bool
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "featx",
		Short:         "Templated feature extraction for frame-semantic parsing",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to YAML config file")
	flags.StringVarP(&c.templates, "templates", "t", "", "Template specification (overrides config)")
	flags.StringVar(&c.prefix, "prefix", "", "Global feature prefix (overrides config)")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newTemplatesCommand())
	c.rootCmd.AddCommand(c.newAlphabetCommand())
	c.rootCmd.AddCommand(c.newExtractCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := c.rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("Command failed", "error", err)
	}
	return err
}

// initApp initializes logging.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig reads the config file and environment, then applies flags.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.templates != "" {
		cfg.Templates = c.templates
	}
	if c.prefix != "" {
		cfg.Prefix = c.prefix
	}
	slog.Debug("Config loaded", "path", c.configPath, "indexer", cfg.Indexer.Kind, "workers", cfg.Workers)
	return cfg, nil
}

func registry(cfg config.Config) (*template.Registry, error) {
	reg, err := template.Basic(cfg.BasicOptions()).Build()
	if err != nil {
		return nil, fmt.Errorf("build templates: %w", err)
	}
	return reg, nil
}

func newFeaturizer(cfg config.Config, indexer feature.Indexer, m *metrics.Metrics) (*featx.Featurizer, error) {
	reg, err := registry(cfg)
	if err != nil {
		return nil, err
	}
	refs, err := cfg.RefinementSet()
	if err != nil {
		return nil, err
	}
	opts := featx.Options{
		Templates:   cfg.Templates,
		Prefix:      cfg.Prefix,
		Registry:    reg,
		Indexer:     indexer,
		Refinements: refs,
	}
	if m != nil {
		opts.Observer = m
	}
	return featx.New(opts)
}

func newAlphabet(cfg config.Config) *feature.Alphabet {
	a := feature.NewAlphabet()
	a.LogEvery = cfg.Indexer.LogEvery
	return a
}

func corpusOptions(cfg config.Config, verbose bool) featx.CorpusOptions {
	return featx.CorpusOptions{
		KeepDuplicates: cfg.Corpus.KeepDuplicates,
		KeepSkipped:    cfg.Corpus.KeepSkipped,
		NoSimplify:     cfg.Corpus.NoSimplify,
		Verbose:        verbose,
	}
}

func writeMetrics(m *metrics.Metrics, path string) error {
	if path == "" {
		return nil
	}
	if err := m.WriteFile(path); err != nil {
		return err
	}
	slog.Info("Metrics written", "path", path)
	return nil
}
