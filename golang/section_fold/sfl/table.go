package sfl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

//Table is the read-only dataset view the splitter groups by. ColumnRecords returns
//one record per row in row order.
type Table interface {
	Nrow() int
	ColumnRecords(name string) ([]string, error)
}

//FrameTable adapts a gota DataFrame.
type FrameTable struct {
	Frame dataframe.DataFrame
}

func (t FrameTable) Nrow() int {
	return t.Frame.Nrow()
}

func (t FrameTable) ColumnRecords(name string) ([]string, error) {
	if t.Frame.Err != nil {
		return nil, t.Frame.Err
	}
	col := t.Frame.Col(name)
	if col.Err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownColumn, name, col.Err)
	}
	return col.Records(), nil
}

//ReadCSVTable loads a CSV with a header row. Every column is kept as a string and no
//record is read as NaN, so section records are compared exactly as written.
//A header without rows gives an empty table.
func ReadCSVTable(r io.Reader) (FrameTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return FrameTable{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return FrameTable{}, fmt.Errorf("read csv: no header row")
	}

	var frame dataframe.DataFrame
	if len(records) == 1 {
		columns := make([]series.Series, len(records[0]))
		for q, name := range records[0] {
			columns[q] = series.New([]string{}, series.String, name)
		}
		frame = dataframe.New(columns...)
	} else {
		frame = dataframe.LoadRecords(records,
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues([]string{}),
		)
	}
	if frame.Err != nil {
		return FrameTable{}, frame.Err
	}
	return FrameTable{Frame: frame}, nil
}

//DenseTable adapts a numeric matrix whose columns are named by Names.
type DenseTable struct {
	Matrix *mat.Dense
	Names  []string
}

func (t DenseTable) Nrow() int {
	if t.Matrix == nil {
		return 0
	}
	h, _ := t.Matrix.Dims()
	return h
}

func (t DenseTable) ColumnRecords(name string) ([]string, error) {
	q := -1
	for ind, current := range t.Names {
		if current == name {
			q = ind
			break
		}
	}
	if q == -1 {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, name)
	}
	if t.Matrix == nil {
		return nil, nil
	}

	h, w := t.Matrix.Dims()
	if q >= w {
		return nil, fmt.Errorf("column %q is number %d but the matrix has %d columns", name, q, w)
	}
	records := make([]string, h)
	for p := 0; p < h; p++ {
		v := t.Matrix.At(p, q)
		if v == 0 {
			// -0 and 0 are one code
			v = 0
		}
		records[p] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return records, nil
}

//DefaultColumnNames names w columns c0, c1, ...
func DefaultColumnNames(w int) []string {
	names := make([]string, w)
	for q := range names {
		names[q] = "c" + strconv.Itoa(q)
	}
	return names
}

//ReadNpy reads the content of npy file
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read npy header of %s: %w", fileName, err)
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, fmt.Errorf("read npy data of %s: %w", fileName, err)
	}
	return denseMat, nil
}

//ReadNpyTable reads a 2d npy matrix of section codes. Empty names default to
//DefaultColumnNames.
func ReadNpyTable(fileName string, names []string) (DenseTable, error) {
	m, err := ReadNpy(fileName)
	if err != nil {
		return DenseTable{}, err
	}
	_, w := m.Dims()
	if len(names) == 0 {
		names = DefaultColumnNames(w)
	}
	if len(names) != w {
		return DenseTable{}, fmt.Errorf("%d column names for a matrix with %d columns", len(names), w)
	}
	return DenseTable{Matrix: m, Names: names}, nil
}
