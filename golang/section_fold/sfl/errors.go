package sfl

import (
	"errors"
	"fmt"
)

var (
	//ErrTooFewSplits is returned when fewer than two folds are requested.
	ErrTooFewSplits = errors.New("n_splits must be at least 2")
	//ErrTooFewRows is returned by KFold when n is smaller than the number of folds.
	ErrTooFewRows = errors.New("not enough rows for the requested number of folds")
	//ErrNoSectionKey is returned when a split is requested without section columns.
	ErrNoSectionKey = errors.New("section key must name at least one column")
	//ErrUnknownColumn is returned by tables that have no column with the requested name.
	ErrUnknownColumn = errors.New("unknown column")
	//ErrInsufficientSectionSize matches every *InsufficientSectionSizeError.
	ErrInsufficientSectionSize = errors.New("section has fewer rows than n_splits")
	//ErrExhausted is returned by SplitIterator.GetNext after the last split.
	ErrExhausted = errors.New("no more splits")
)

//InsufficientSectionSizeError reports a section that can not be divided into NSplits folds.
type InsufficientSectionSizeError struct {
	Section SectionKey
	Rows    int
	NSplits int
}

func (e *InsufficientSectionSizeError) Error() string {
	return fmt.Sprintf("section %s has %d rows, fewer than n_splits=%d", e.Section, e.Rows, e.NSplits)
}

//Is makes errors.Is(err, ErrInsufficientSectionSize) true.
func (e *InsufficientSectionSizeError) Is(target error) bool {
	return target == ErrInsufficientSectionSize
}
