package sfl

import (
	"fmt"
	"math/rand"
	"time"
)

//FoldConfig holds the parameters of one conventional k-fold partition.
//RandomState is ignored when Shuffle is false.
type FoldConfig struct {
	NSplits     int
	Shuffle     bool
	RandomState *int64
}

//Fold is one train/test partition of the local positions [0, n).
type Fold struct {
	Train []int
	Test  []int
}

//FoldEngine partitions n local positions into cfg.NSplits disjoint test blocks
//and their complementary train sets.
type FoldEngine interface {
	Partition(n int, cfg FoldConfig) ([]Fold, error)
}

//KFold is the conventional k-fold engine. Test blocks are consecutive runs of the
//(optionally shuffled) positions; the first n%k blocks hold one extra element.
//Train positions are returned in ascending order.
type KFold struct{}

//Partition implements FoldEngine.
func (KFold) Partition(n int, cfg FoldConfig) ([]Fold, error) {
	if cfg.NSplits < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSplits, cfg.NSplits)
	}
	if n < cfg.NSplits {
		return nil, fmt.Errorf("%w: %d rows for %d folds", ErrTooFewRows, n, cfg.NSplits)
	}

	positions := make([]int, n)
	for p := range positions {
		positions[p] = p
	}
	if cfg.Shuffle {
		rng := newShuffleRand(cfg.RandomState)
		rng.Shuffle(n, func(i, j int) { positions[i], positions[j] = positions[j], positions[i] })
	}

	folds := make([]Fold, 0, cfg.NSplits)
	current := 0
	for _, size := range FoldSizes(n, cfg.NSplits) {
		test := Gather(NewRange(current, current+size, 1), positions)

		inTest := make([]bool, n)
		for _, p := range test {
			inTest[p] = true
		}
		train := make([]int, 0, n-size)
		for p := 0; p < n; p++ {
			if !inTest[p] {
				train = append(train, p)
			}
		}

		folds = append(folds, Fold{Train: train, Test: test})
		current += size
	}
	return folds, nil
}

//FoldSizes returns the test block sizes for n positions split into k folds.
func FoldSizes(n, k int) []int {
	sizes := make([]int, k)
	for ind := range sizes {
		sizes[ind] = n / k
		if ind < n%k {
			sizes[ind]++
		}
	}
	return sizes
}

//newShuffleRand returns a fresh generator so that every call with the same seed
//produces the same permutation.
func newShuffleRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(*seed))
}
