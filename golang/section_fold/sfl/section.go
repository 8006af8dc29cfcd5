package sfl

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

//SectionKey holds one record per section key column.
type SectionKey []string

func (key SectionKey) String() string {
	return strings.Join(key, "|")
}

//id is an unambiguous map key for grouping.
func (key SectionKey) id() string {
	return strings.Join(key, "\x00")
}

//Compare orders keys column by column. Within a column numeric records go before
//non-numeric ones, numbers compare by value and everything else lexicographically.
func (key SectionKey) Compare(other SectionKey) int {
	for ind := 0; ind < len(key) && ind < len(other); ind++ {
		if c := compareRecords(key[ind], other[ind]); c != 0 {
			return c
		}
	}
	return len(key) - len(other)
}

func compareRecords(a, b string) int {
	fa, okA := parseNumber(a)
	fb, okB := parseNumber(b)
	switch {
	case okA && okB:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

//parseNumber treats NaN as a non-numeric record so that ordering stays total.
func parseNumber(record string) (float64, bool) {
	v, err := strconv.ParseFloat(record, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

//Section is the set of rows sharing one SectionKey. RecordIds are positions in the
//original table in ascending order.
type Section struct {
	Key       SectionKey
	RecordIds []int
}

//Height returns the number of rows in the section.
func (s Section) Height() int {
	return len(s.RecordIds)
}

//translate maps section-local positions back to original table positions.
func (s Section) translate(local []int) ([]int, error) {
	out := make([]int, len(local))
	for ind, p := range local {
		if p < 0 || p >= len(s.RecordIds) {
			return nil, fmt.Errorf("local position %d out of range for section %s of %d rows", p, s.Key, len(s.RecordIds))
		}
		out[ind] = s.RecordIds[p]
	}
	return out, nil
}

//Snapshot is a private grouping of a table by its section key. Sections are
//disjoint, cover every row and are sorted by key.
type Snapshot struct {
	Sections []Section
	Rows     int
}

//TakeSnapshot reads the section key columns of table once and groups the rows.
//The table is only read.
func TakeSnapshot(table Table, sectionKey []string) (*Snapshot, error) {
	if len(sectionKey) == 0 {
		return nil, ErrNoSectionKey
	}

	h := table.Nrow()
	columns := make([][]string, len(sectionKey))
	for q, name := range sectionKey {
		records, err := table.ColumnRecords(name)
		if err != nil {
			return nil, fmt.Errorf("section key column %q: %w", name, err)
		}
		if len(records) != h {
			return nil, fmt.Errorf("section key column %q has %d records, the table has %d rows", name, len(records), h)
		}
		columns[q] = records
	}

	index := make(map[string]int)
	sections := make([]Section, 0)
	for p := 0; p < h; p++ {
		key := make(SectionKey, len(columns))
		for q := range columns {
			key[q] = columns[q][p]
		}
		ind, ok := index[key.id()]
		if !ok {
			ind = len(sections)
			index[key.id()] = ind
			sections = append(sections, Section{Key: key})
		}
		sections[ind].RecordIds = append(sections[ind].RecordIds, p)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Key.Compare(sections[j].Key) < 0
	})

	return &Snapshot{Sections: sections, Rows: h}, nil
}
