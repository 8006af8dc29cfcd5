// Command section_fold computes sectioned k-fold splits of a table: every section of
// the table is divided into folds on its own and no fold mixes two sections.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarstars/sectioned_kfold/golang/section_fold/sfl"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "section_fold",
		Short: "Sectioned k-fold splits of a CSV or npy table",
		Long: `section_fold groups the rows of a table by one or more section key columns and
runs an independent k-fold partition inside every section.

Examples:
  # Count the splits of a CSV table
  section_fold count --input data.csv --section-key region --n-splits 4

  # Write the splits as JSON lines
  section_fold split --config folds.yaml > folds.jsonl

  # Write train/test index files folds/run_00000_train.npy, ...
  section_fold split --input codes.npy --format npy --section-key c0 --output-format npy --output folds/run`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("input", "", "input table")
	flags.String("format", "csv", "input format: csv or npy")
	flags.StringSlice("columns", nil, "column names of an npy input")
	flags.StringSlice("section-key", nil, "section key columns")
	flags.Int("n-splits", sfl.DefaultNSplits, "number of folds per section")
	flags.Bool("shuffle", true, "shuffle rows inside every section before folding")
	flags.Int64("random-state", 0, "seed of the shuffle")
	flags.String("output", "", "output file (jsonl) or file prefix (npy)")
	flags.String("output-format", "jsonl", "output format: jsonl or npy")
	flags.String("log-level", "info", "log level")

	rootCmd.AddCommand(newCountCmd(), newSplitCmd(), newSummaryCmd())
	return rootCmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of splits: sections times n_splits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSplitter(cmd, func(cfg RunConfig, skf *sfl.SectionKFold, table sfl.Table, _ *zap.Logger) error {
				count, err := skf.CountSplits(table, cfg.SectionKey...)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
				return err
			})
		},
	}
}

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split",
		Short: "Write the train/test indices of every split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSplitter(cmd, func(cfg RunConfig, skf *sfl.SectionKFold, table sfl.Table, logger *zap.Logger) error {
				writer, closeFn, err := newSplitWriter(cfg, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				n, err := writeSplits(skf, table, cfg.SectionKey, writer)
				if closeErr := closeFn(); err == nil {
					err = closeErr
				}
				logger.Info("splits written", zap.Int("splits", n), zap.String("output", cfg.Output))
				return err
			})
		},
	}
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print train and test sizes of every fold of every section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSplitter(cmd, func(cfg RunConfig, skf *sfl.SectionKFold, table sfl.Table, _ *zap.Logger) error {
				it, err := skf.Split(table, cfg.SectionKey...)
				if err != nil {
					return err
				}
				splits, err := sfl.Collect(it)
				if err != nil {
					return err
				}
				summary, err := sfl.Summarize(splits)
				if err != nil {
					return err
				}
				return writeSummary(cmd.OutOrStdout(), summary)
			})
		},
	}
}

// withSplitter loads the config, the logger and the table and builds the splitter.
func withSplitter(cmd *cobra.Command, run func(RunConfig, *sfl.SectionKFold, sfl.Table, *zap.Logger) error) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	table, err := loadTable(cfg)
	if err != nil {
		logger.Error("failed to load table", zap.String("input", cfg.Input), zap.Error(err))
		return err
	}
	skf, err := sfl.NewSectionKFold(cfg.params(logger))
	if err != nil {
		return err
	}
	return run(cfg, skf, table, logger)
}

func loadTable(cfg RunConfig) (sfl.Table, error) {
	if cfg.Format == "npy" {
		return sfl.ReadNpyTable(cfg.Input, cfg.Columns)
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sfl.ReadCSVTable(f)
}

// writeSplits streams the splits into writer and returns how many were written.
// Splits written before a failing section stay written.
func writeSplits(skf *sfl.SectionKFold, table sfl.Table, sectionKey []string, writer splitWriter) (int, error) {
	it, err := skf.Split(table, sectionKey...)
	if err != nil {
		return 0, err
	}
	n := 0
	for it.HasNext() {
		split, err := it.GetNext()
		if err != nil {
			return n, err
		}
		if err := writer.Write(n, split); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
