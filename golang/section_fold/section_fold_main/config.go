package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tarstars/sectioned_kfold/golang/section_fold/sfl"
)

const envPrefix = "SECTION_FOLD_"

// RunConfig holds everything a command needs. Precedence: flags, then
// SECTION_FOLD_* environment variables, then the YAML file, then defaults.
type RunConfig struct {
	Input          string
	Format         string
	Columns        []string
	SectionKey     []string
	NSplits        int
	Shuffle        bool
	RandomState    *int64
	Output         string
	OutputFormat   string
	LogLevel       string
	LogDevelopment bool
}

// loadConfig reads the optional YAML file at configPath and the environment into a koanf
// instance, then applies the flags the user actually set.
func loadConfig(configPath string, flags *pflag.FlagSet) (RunConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return RunConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return RunConfig{}, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SECTION_FOLD_N_SPLITS -> n_splits, list keys are comma separated
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "section_key" || key == "columns" {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return RunConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := RunConfig{
		Input:          k.String("input"),
		Format:         "csv",
		Columns:        k.Strings("columns"),
		SectionKey:     k.Strings("section_key"),
		NSplits:        sfl.DefaultNSplits,
		Shuffle:        true,
		Output:         k.String("output"),
		OutputFormat:   "jsonl",
		LogLevel:       "info",
		LogDevelopment: k.Bool("log_development"),
	}
	if k.Exists("format") {
		cfg.Format = k.String("format")
	}
	if k.Exists("n_splits") {
		cfg.NSplits = k.Int("n_splits")
	}
	if k.Exists("shuffle") {
		cfg.Shuffle = k.Bool("shuffle")
	}
	if k.Exists("random_state") {
		cfg.RandomState = sfl.Int64(k.Int64("random_state"))
	}
	if k.Exists("output_format") {
		cfg.OutputFormat = k.String("output_format")
	}
	if k.Exists("log_level") {
		cfg.LogLevel = k.String("log_level")
	}

	if err := applyFlags(&cfg, flags); err != nil {
		return RunConfig{}, err
	}
	return cfg, cfg.validate()
}

func applyFlags(cfg *RunConfig, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	var err error
	if flags.Changed("input") {
		cfg.Input, err = flags.GetString("input")
	}
	if err == nil && flags.Changed("format") {
		cfg.Format, err = flags.GetString("format")
	}
	if err == nil && flags.Changed("columns") {
		cfg.Columns, err = flags.GetStringSlice("columns")
	}
	if err == nil && flags.Changed("section-key") {
		cfg.SectionKey, err = flags.GetStringSlice("section-key")
	}
	if err == nil && flags.Changed("n-splits") {
		cfg.NSplits, err = flags.GetInt("n-splits")
	}
	if err == nil && flags.Changed("shuffle") {
		cfg.Shuffle, err = flags.GetBool("shuffle")
	}
	if err == nil && flags.Changed("random-state") {
		var seed int64
		seed, err = flags.GetInt64("random-state")
		cfg.RandomState = &seed
	}
	if err == nil && flags.Changed("output") {
		cfg.Output, err = flags.GetString("output")
	}
	if err == nil && flags.Changed("output-format") {
		cfg.OutputFormat, err = flags.GetString("output-format")
	}
	if err == nil && flags.Changed("log-level") {
		cfg.LogLevel, err = flags.GetString("log-level")
	}
	return err
}

func (cfg RunConfig) validate() error {
	if cfg.Input == "" {
		return fmt.Errorf("no input table given")
	}
	if len(cfg.SectionKey) == 0 {
		return sfl.ErrNoSectionKey
	}
	// zero is only a default in SectionKFoldParams, an explicit 0 here is rejected
	if cfg.NSplits < 2 {
		return fmt.Errorf("%w: got %d", sfl.ErrTooFewSplits, cfg.NSplits)
	}
	if cfg.Format != "csv" && cfg.Format != "npy" {
		return fmt.Errorf("unknown input format %q, use csv or npy", cfg.Format)
	}
	if cfg.OutputFormat != "jsonl" && cfg.OutputFormat != "npy" {
		return fmt.Errorf("unknown output format %q, use jsonl or npy", cfg.OutputFormat)
	}
	return nil
}

// params converts the config to splitter parameters.
func (cfg RunConfig) params(logger *zap.Logger) sfl.SectionKFoldParams {
	return sfl.SectionKFoldParams{
		NSplits:     cfg.NSplits,
		Shuffle:     sfl.Bool(cfg.Shuffle),
		RandomState: cfg.RandomState,
		Logger:      logger,
	}
}

// newLogger builds a zap logger writing to stderr, so split output on stdout stays clean.
func newLogger(level string, development bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}

func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
