package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarstars/sectioned_kfold/golang/section_fold/sfl"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0o600))
	return fileName
}

func TestLoadConfigDefaults(t *testing.T) {
	configPath := writeFile(t, "folds.yaml", "input: data.csv\nsection_key: [region]\n")

	cfg, err := loadConfig(configPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "data.csv", cfg.Input)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, []string{"region"}, cfg.SectionKey)
	assert.Equal(t, sfl.DefaultNSplits, cfg.NSplits)
	assert.True(t, cfg.Shuffle)
	assert.Nil(t, cfg.RandomState)
	assert.Equal(t, "jsonl", cfg.OutputFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromYAML(t *testing.T) {
	configPath := writeFile(t, "folds.yaml", `
input: codes.npy
format: npy
columns: [region, cohort]
section_key:
  - region
  - cohort
n_splits: 3
shuffle: false
random_state: 17
output: out/run
output_format: npy
log_level: debug
`)

	cfg, err := loadConfig(configPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "npy", cfg.Format)
	assert.Equal(t, []string{"region", "cohort"}, cfg.Columns)
	assert.Equal(t, []string{"region", "cohort"}, cfg.SectionKey)
	assert.Equal(t, 3, cfg.NSplits)
	assert.False(t, cfg.Shuffle)
	require.NotNil(t, cfg.RandomState)
	assert.Equal(t, int64(17), *cfg.RandomState)
	assert.Equal(t, "out/run", cfg.Output)
	assert.Equal(t, "npy", cfg.OutputFormat)
	assert.Equal(t, "debug", cfg.LogLevel)

	params := cfg.params(nil)
	assert.Equal(t, 3, params.NSplits)
	require.NotNil(t, params.Shuffle)
	assert.False(t, *params.Shuffle)
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	configPath := writeFile(t, "folds.yaml", "input: data.csv\nsection_key: [region]\nn_splits: 3\n")
	t.Setenv("SECTION_FOLD_N_SPLITS", "4")
	t.Setenv("SECTION_FOLD_SECTION_KEY", "region, cohort")

	cfg, err := loadConfig(configPath, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.NSplits)
	assert.Equal(t, []string{"region", "cohort"}, cfg.SectionKey)
}

func TestLoadConfigFlagsOverrideEverything(t *testing.T) {
	configPath := writeFile(t, "folds.yaml", "input: data.csv\nsection_key: [region]\nn_splits: 3\n")
	t.Setenv("SECTION_FOLD_N_SPLITS", "4")

	flags := newRootCmd().PersistentFlags()
	require.NoError(t, flags.Set("n-splits", "6"))
	require.NoError(t, flags.Set("random-state", "9"))
	require.NoError(t, flags.Set("section-key", "site"))

	cfg, err := loadConfig(configPath, flags)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.NSplits)
	assert.Equal(t, []string{"site"}, cfg.SectionKey)
	require.NotNil(t, cfg.RandomState)
	assert.Equal(t, int64(9), *cfg.RandomState)
	assert.Equal(t, "data.csv", cfg.Input)
}

func TestLoadConfigValidation(t *testing.T) {
	_, err := loadConfig(writeFile(t, "a.yaml", "section_key: [region]\n"), nil)
	assert.Error(t, err)

	_, err = loadConfig(writeFile(t, "b.yaml", "input: data.csv\n"), nil)
	assert.ErrorIs(t, err, sfl.ErrNoSectionKey)

	_, err = loadConfig(writeFile(t, "c.yaml", "input: data.csv\nsection_key: [r]\nformat: parquet\n"), nil)
	assert.Error(t, err)

	_, err = loadConfig(writeFile(t, "d.yaml", "input: data.csv\nsection_key: [r]\noutput_format: xml\n"), nil)
	assert.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfigRejectsExplicitTooFewSplits(t *testing.T) {
	_, err := loadConfig(writeFile(t, "zero.yaml", "input: data.csv\nsection_key: [r]\nn_splits: 0\n"), nil)
	assert.ErrorIs(t, err, sfl.ErrTooFewSplits)

	configPath := writeFile(t, "folds.yaml", "input: data.csv\nsection_key: [r]\n")
	flags := newRootCmd().PersistentFlags()
	require.NoError(t, flags.Set("n-splits", "0"))
	_, err = loadConfig(configPath, flags)
	assert.ErrorIs(t, err, sfl.ErrTooFewSplits)

	t.Setenv("SECTION_FOLD_N_SPLITS", "1")
	_, err = loadConfig(configPath, nil)
	assert.ErrorIs(t, err, sfl.ErrTooFewSplits)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
