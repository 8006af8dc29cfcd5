package sfl

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//checkFolds verifies that folds partition [0, n): test blocks are disjoint and
//exhaustive, train is the ascending complement of test.
func checkFolds(t *testing.T, folds []Fold, n int) {
	t.Helper()

	seen := make([]int, n)
	for _, fold := range folds {
		inTest := make(map[int]bool)
		for _, p := range fold.Test {
			require.True(t, p >= 0 && p < n, "test position %d out of range", p)
			inTest[p] = true
			seen[p]++
		}
		require.Len(t, fold.Train, n-len(fold.Test))
		assert.True(t, sort.IntsAreSorted(fold.Train), "train is not sorted: %v", fold.Train)
		for _, p := range fold.Train {
			assert.False(t, inTest[p], "position %d is both train and test", p)
		}
	}
	for p, count := range seen {
		assert.Equal(t, 1, count, "position %d is tested %d times", p, count)
	}
}

func TestFoldSizes(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, FoldSizes(10, 3))
	assert.Equal(t, []int{2, 2, 2}, FoldSizes(6, 3))
	assert.Equal(t, []int{1, 1, 1, 1, 1}, FoldSizes(5, 5))
}

func TestKFoldWithoutShuffle(t *testing.T) {
	folds, err := KFold{}.Partition(5, FoldConfig{NSplits: 2})
	require.NoError(t, err)
	require.Len(t, folds, 2)

	assert.Equal(t, []int{0, 1, 2}, folds[0].Test)
	assert.Equal(t, []int{3, 4}, folds[0].Train)
	assert.Equal(t, []int{3, 4}, folds[1].Test)
	assert.Equal(t, []int{0, 1, 2}, folds[1].Train)
	checkFolds(t, folds, 5)
}

func TestKFoldIgnoresSeedWithoutShuffle(t *testing.T) {
	plain, err := KFold{}.Partition(9, FoldConfig{NSplits: 3})
	require.NoError(t, err)
	seeded, err := KFold{}.Partition(9, FoldConfig{NSplits: 3, RandomState: Int64(17)})
	require.NoError(t, err)
	assert.Equal(t, plain, seeded)
}

func TestKFoldShuffleIsReproducible(t *testing.T) {
	cfg := FoldConfig{NSplits: 4, Shuffle: true, RandomState: Int64(42)}

	first, err := KFold{}.Partition(23, cfg)
	require.NoError(t, err)
	second, err := KFold{}.Partition(23, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	checkFolds(t, first, 23)
	for ind, size := range FoldSizes(23, 4) {
		assert.Len(t, first[ind].Test, size)
	}
}

func TestKFoldShuffleDependsOnSeed(t *testing.T) {
	first, err := KFold{}.Partition(50, FoldConfig{NSplits: 5, Shuffle: true, RandomState: Int64(1)})
	require.NoError(t, err)
	second, err := KFold{}.Partition(50, FoldConfig{NSplits: 5, Shuffle: true, RandomState: Int64(2)})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	checkFolds(t, second, 50)
}

func TestKFoldUnseededShuffleIsStillAPartition(t *testing.T) {
	folds, err := KFold{}.Partition(31, FoldConfig{NSplits: 3, Shuffle: true})
	require.NoError(t, err)
	checkFolds(t, folds, 31)
}

func TestKFoldErrors(t *testing.T) {
	_, err := KFold{}.Partition(10, FoldConfig{NSplits: 1})
	assert.ErrorIs(t, err, ErrTooFewSplits)

	_, err = KFold{}.Partition(3, FoldConfig{NSplits: 4})
	assert.ErrorIs(t, err, ErrTooFewRows)
}
