package sfl

import (
	"fmt"

	"go.uber.org/zap"
)

//DefaultNSplits is the number of folds per section when none is given.
const DefaultNSplits = 5

//SectionKFoldParams collect arguments required to construct a splitter.
//Nil Shuffle means true, nil Engine means KFold, nil Logger discards messages.
type SectionKFoldParams struct {
	NSplits     int
	Shuffle     *bool
	RandomState *int64
	Engine      FoldEngine
	Logger      *zap.Logger
}

//SectionKFold runs an independent k-fold partition inside every section of a table,
//so that no train or test set ever mixes rows of two sections.
type SectionKFold struct {
	config FoldConfig
	engine FoldEngine
	logger *zap.Logger
}

//NewSectionKFold creates a new splitter.
func NewSectionKFold(params SectionKFoldParams) (*SectionKFold, error) {
	config := FoldConfig{NSplits: params.NSplits, Shuffle: true}
	if config.NSplits == 0 {
		config.NSplits = DefaultNSplits
	}
	if config.NSplits < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSplits, config.NSplits)
	}
	if params.Shuffle != nil {
		config.Shuffle = *params.Shuffle
	}
	if config.Shuffle && params.RandomState != nil {
		seed := *params.RandomState
		config.RandomState = &seed
	}

	skf := &SectionKFold{config: config, engine: params.Engine, logger: params.Logger}
	if skf.engine == nil {
		skf.engine = KFold{}
	}
	if skf.logger == nil {
		skf.logger = zap.NewNop()
	}
	return skf, nil
}

//Config returns the per-section k-fold configuration.
func (skf *SectionKFold) Config() FoldConfig {
	return skf.config
}

//CountSplits returns the number of sections times NSplits. Section sizes are not
//checked here; an undersized section only fails during Split.
func (skf *SectionKFold) CountSplits(table Table, sectionKey ...string) (int, error) {
	snapshot, err := TakeSnapshot(table, sectionKey)
	if err != nil {
		return 0, err
	}
	return len(snapshot.Sections) * skf.config.NSplits, nil
}

//Split groups the table by sectionKey and returns a lazy iterator over the splits of
//every section, sections in ascending key order.
//
//The table is read once here and never again, so later changes to it do not affect
//the iterator.
func (skf *SectionKFold) Split(table Table, sectionKey ...string) (*SplitIterator, error) {
	snapshot, err := TakeSnapshot(table, sectionKey)
	if err != nil {
		return nil, err
	}
	skf.logger.Debug("sections found",
		zap.Strings("section_key", sectionKey),
		zap.Int("sections", len(snapshot.Sections)),
		zap.Int("rows", snapshot.Rows),
	)
	return &SplitIterator{skf: skf, snapshot: snapshot}, nil
}

//Split is one train/test pair. Train and Test hold positions in the original table.
//Fold counts from zero within Section.
type Split struct {
	Section SectionKey
	Fold    int
	Train   []int
	Test    []int
}

//SplitIterator produces the splits of one Split call on demand. It is not safe for
//concurrent use and can not be restarted.
type SplitIterator struct {
	skf        *SectionKFold
	snapshot   *Snapshot
	sectionInd int
	current    *Section
	folds      []Fold
	foldInd    int
	err        error
}

//HasNext checks whether GetNext may produce another split. It turns false after an error.
func (it *SplitIterator) HasNext() bool {
	if it.err != nil {
		return false
	}
	return it.foldInd < len(it.folds) || it.sectionInd < len(it.snapshot.Sections)
}

//GetNext returns the next split. Reaching a section with fewer rows than NSplits
//returns an *InsufficientSectionSizeError and stops the iterator.
func (it *SplitIterator) GetNext() (Split, error) {
	if it.err != nil {
		return Split{}, it.err
	}
	for it.foldInd >= len(it.folds) {
		if it.sectionInd >= len(it.snapshot.Sections) {
			return Split{}, ErrExhausted
		}
		if err := it.advance(); err != nil {
			it.err = err
			return Split{}, err
		}
	}

	fold := it.folds[it.foldInd]
	train, err := it.current.translate(fold.Train)
	if err != nil {
		it.err = err
		return Split{}, err
	}
	test, err := it.current.translate(fold.Test)
	if err != nil {
		it.err = err
		return Split{}, err
	}

	split := Split{Section: it.current.Key, Fold: it.foldInd, Train: train, Test: test}
	it.foldInd++
	return split, nil
}

//Err returns the error that stopped the iterator, if any.
func (it *SplitIterator) Err() error {
	return it.err
}

//advance partitions the next section.
func (it *SplitIterator) advance() error {
	section := &it.snapshot.Sections[it.sectionInd]
	it.sectionInd++

	h := section.Height()
	nSplits := it.skf.config.NSplits
	if h < nSplits {
		it.skf.logger.Warn("section too small",
			zap.Stringer("section", section.Key),
			zap.Int("rows", h),
			zap.Int("n_splits", nSplits),
		)
		return &InsufficientSectionSizeError{Section: section.Key, Rows: h, NSplits: nSplits}
	}

	folds, err := it.skf.engine.Partition(h, it.skf.config)
	if err != nil {
		return fmt.Errorf("partition section %s: %w", section.Key, err)
	}
	if len(folds) != nSplits {
		return fmt.Errorf("partition section %s: engine returned %d folds, want %d", section.Key, len(folds), nSplits)
	}
	it.skf.logger.Debug("section partitioned",
		zap.Stringer("section", section.Key),
		zap.Int("rows", h),
		zap.Int("n_splits", nSplits),
	)

	it.current = section
	it.folds = folds
	it.foldInd = 0
	return nil
}

//Collect drains the iterator. On failure the splits produced before the error are
//returned together with it.
func Collect(it *SplitIterator) ([]Split, error) {
	splits := make([]Split, 0)
	for it.HasNext() {
		split, err := it.GetNext()
		if err != nil {
			return splits, err
		}
		splits = append(splits, split)
	}
	return splits, nil
}

//Bool returns a pointer to b, for optional parameters.
func Bool(b bool) *bool {
	return &b
}

//Int64 returns a pointer to v, for optional parameters.
func Int64(v int64) *int64 {
	return &v
}
