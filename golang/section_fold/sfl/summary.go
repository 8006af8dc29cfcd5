package sfl

import (
	"fmt"

	"gorgonia.org/tensor"
)

//Summary holds the train and test sizes of every (section, fold) pair of a split run.
//Sections keep the order in which they were produced.
type Summary struct {
	Sections []SectionKey
	NSplits  int
	sizes    *tensor.Dense // (section, fold, {train, test})
}

//Summarize counts the sizes of splits produced by a SplitIterator.
func Summarize(splits []Split) (Summary, error) {
	var summary Summary
	sectionIndex := make(map[string]int)
	for _, split := range splits {
		if _, ok := sectionIndex[split.Section.id()]; !ok {
			sectionIndex[split.Section.id()] = len(summary.Sections)
			summary.Sections = append(summary.Sections, split.Section)
		}
		if split.Fold+1 > summary.NSplits {
			summary.NSplits = split.Fold + 1
		}
	}
	if len(summary.Sections) == 0 {
		return summary, nil
	}

	summary.sizes = tensor.New(tensor.WithShape(len(summary.Sections), summary.NSplits, 2), tensor.Of(tensor.Int))
	for _, split := range splits {
		s := sectionIndex[split.Section.id()]
		if err := summary.sizes.SetAt(len(split.Train), s, split.Fold, 0); err != nil {
			return Summary{}, err
		}
		if err := summary.sizes.SetAt(len(split.Test), s, split.Fold, 1); err != nil {
			return Summary{}, err
		}
	}
	return summary, nil
}

//Sizes returns the train and test sizes of one fold of one section.
func (s Summary) Sizes(section, fold int) (train, test int, err error) {
	if section < 0 || section >= len(s.Sections) || fold < 0 || fold >= s.NSplits {
		return 0, 0, fmt.Errorf("no fold %d in section %d of a %dx%d summary", fold, section, len(s.Sections), s.NSplits)
	}
	trainVal, err := s.sizes.At(section, fold, 0)
	if err != nil {
		return 0, 0, err
	}
	testVal, err := s.sizes.At(section, fold, 1)
	if err != nil {
		return 0, 0, err
	}
	return trainVal.(int), testVal.(int), nil
}

//SectionRows returns the number of rows of a section, i.e. the sum of its test sizes.
func (s Summary) SectionRows(section int) (int, error) {
	rows := 0
	for fold := 0; fold < s.NSplits; fold++ {
		_, test, err := s.Sizes(section, fold)
		if err != nil {
			return 0, err
		}
		rows += test
	}
	return rows, nil
}

//AssignTestFolds returns, for each of nrow original rows, the fold in which the row
//is a test row, or -1 when no split tests it.
func AssignTestFolds(splits []Split, nrow int) []int {
	assignment := make([]int, nrow)
	for p := range assignment {
		assignment[p] = -1
	}
	for _, split := range splits {
		for _, p := range split.Test {
			if p >= 0 && p < nrow {
				assignment[p] = split.Fold
			}
		}
	}
	return assignment
}
