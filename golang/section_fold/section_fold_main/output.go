package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"

	"github.com/tarstars/sectioned_kfold/golang/section_fold/sfl"
)

// splitRecord is one JSON line of the split command.
type splitRecord struct {
	Section []string `json:"section"`
	Fold    int      `json:"fold"`
	Train   []int    `json:"train"`
	Test    []int    `json:"test"`
}

// splitWriter receives splits one at a time as the iterator produces them.
type splitWriter interface {
	Write(index int, split sfl.Split) error
}

type jsonLinesWriter struct {
	encoder *json.Encoder
}

func newJSONLinesWriter(w io.Writer) *jsonLinesWriter {
	return &jsonLinesWriter{encoder: json.NewEncoder(w)}
}

func (w *jsonLinesWriter) Write(_ int, split sfl.Split) error {
	return w.encoder.Encode(splitRecord{
		Section: split.Section,
		Fold:    split.Fold,
		Train:   split.Train,
		Test:    split.Test,
	})
}

// npyWriter stores every split as <prefix>_<index>_train.npy and <prefix>_<index>_test.npy.
type npyWriter struct {
	prefix string
}

func (w npyWriter) Write(index int, split sfl.Split) error {
	for _, part := range []struct {
		name    string
		indices []int
	}{{"train", split.Train}, {"test", split.Test}} {
		fileName := fmt.Sprintf("%s_%05d_%s.npy", w.prefix, index, part.name)
		if err := writeIndices(fileName, part.indices); err != nil {
			return err
		}
	}
	return nil
}

func writeIndices(fileName string, indices []int) (err error) {
	dst, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("can't open file %s to write: %w", fileName, err)
	}
	defer func() {
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
	}()

	values := make([]int64, len(indices))
	for ind, p := range indices {
		values[ind] = int64(p)
	}
	return npyio.Write(dst, values)
}

// readIndices is the inverse of writeIndices.
func readIndices(fileName string) ([]int64, error) {
	src, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var values []int64
	if err := npyio.Read(src, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// newSplitWriter picks the writer for cfg. jsonl goes to stdout when no output is set,
// npy needs an output prefix such as folds/run.
func newSplitWriter(cfg RunConfig, stdout io.Writer) (splitWriter, func() error, error) {
	if cfg.OutputFormat == "npy" {
		if cfg.Output == "" {
			return nil, nil, fmt.Errorf("npy output needs an output prefix")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
			return nil, nil, err
		}
		return npyWriter{prefix: cfg.Output}, func() error { return nil }, nil
	}

	if cfg.Output == "" || cfg.Output == "-" {
		return newJSONLinesWriter(stdout), func() error { return nil }, nil
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return nil, nil, err
	}
	return newJSONLinesWriter(f), f.Close, nil
}

// writeSummary prints one line per (section, fold) pair.
func writeSummary(w io.Writer, summary sfl.Summary) error {
	if _, err := fmt.Fprintf(w, "%-24s %6s %8s %8s\n", "section", "fold", "train", "test"); err != nil {
		return err
	}
	for s, key := range summary.Sections {
		for fold := 0; fold < summary.NSplits; fold++ {
			train, test, err := summary.Sizes(s, fold)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%-24s %6d %8d %8d\n", key, fold, train, test); err != nil {
				return err
			}
		}
	}
	return nil
}
