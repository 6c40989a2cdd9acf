// Package config loads featx settings from a YAML file and FEATX_*
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/featx/feature"
	"github.com/happyhackingspace/featx/template"
)

// Indexer kinds.
const (
	IndexerAlphabet = "alphabet"
	IndexerHashed   = "hashed"
)

// Config holds every setting of a featx run.
type Config struct {
	// Templates is the template specification, e.g. "Head1-Word * Frame + 1".
	Templates string `yaml:"templates" validate:"required"`

	// Prefix is appended to every feature as "::prefix".
	Prefix string `yaml:"prefix" validate:"required"`

	Refinements string        `yaml:"refinements" validate:"refinements"`
	Indexer     IndexerConfig `yaml:"indexer"`
	Basic       BasicConfig   `yaml:"basic"`
	Corpus      CorpusConfig  `yaml:"corpus"`
	Workers     int           `yaml:"workers" validate:"gte=1,lte=256"`
}

// IndexerConfig selects the feature indexer.
type IndexerConfig struct {
	Kind     string `yaml:"kind" validate:"oneof=alphabet hashed"`
	Buckets  int    `yaml:"buckets" validate:"required_if=Kind hashed,gte=0"`
	Alphabet string `yaml:"alphabet"`
	LogEvery int    `yaml:"log_every" validate:"gte=0"`
}

// BasicConfig tunes the basic template catalog.
type BasicConfig struct {
	NgramLengths     []int `yaml:"ngram_lengths" validate:"dive,gte=1"`
	WidthDivisors    []int `yaml:"width_divisors" validate:"dive,gte=1"`
	WidthCardinality int   `yaml:"width_cardinality" validate:"gte=0"`
}

// CorpusConfig controls corpus iteration.
type CorpusConfig struct {
	KeepDuplicates bool `yaml:"keep_duplicates"`
	KeepSkipped    bool `yaml:"keep_skipped"`
	NoSimplify     bool `yaml:"no_simplify"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("refinements", validRefinements)
}

func validRefinements(fl validator.FieldLevel) bool {
	_, err := feature.ParseRefinements(fl.Field().String())
	return err == nil
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Templates: "1 + Head1-Word * Frame + Head1-Pos * Frame + Head1Head2-Path-Pos-Dep * FrameRole",
		Prefix:    "featx",
		Indexer: IndexerConfig{
			Kind:     IndexerAlphabet,
			Buckets:  1 << 20,
			LogEvery: feature.DefaultLogEvery,
		},
		Basic: BasicConfig{
			NgramLengths:     []int{1, 2, 3},
			WidthDivisors:    []int{1, 2, 3},
			WidthCardinality: 6,
		},
		Workers: 4,
	}
}

// Load builds the configuration with priority env > file > defaults. An
// empty path skips the file; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("FEATX_TEMPLATES"); v != "" {
		cfg.Templates = v
	}
	if v := os.Getenv("FEATX_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := os.Getenv("FEATX_REFINEMENTS"); v != "" {
		cfg.Refinements = v
	}
	if v := os.Getenv("FEATX_INDEXER"); v != "" {
		cfg.Indexer.Kind = v
	}
	if v := os.Getenv("FEATX_ALPHABET"); v != "" {
		cfg.Indexer.Alphabet = v
	}
	if v := os.Getenv("FEATX_BUCKETS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FEATX_BUCKETS: %w", err)
		}
		cfg.Indexer.Buckets = n
	}
	if v := os.Getenv("FEATX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FEATX_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	return nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// RefinementSet parses Refinements.
func (c Config) RefinementSet() (feature.Refinements, error) {
	return feature.ParseRefinements(c.Refinements)
}

// BasicOptions converts the catalog settings.
func (c Config) BasicOptions() template.BasicOptions {
	return template.BasicOptions{
		NgramLengths:     c.Basic.NgramLengths,
		WidthDivisors:    c.Basic.WidthDivisors,
		WidthCardinality: c.Basic.WidthCardinality,
	}
}
