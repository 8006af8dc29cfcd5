// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/sectioned_kfold/golang/section_fold/sfl"
)

// splitStream is a split iterator handed to the Python side. pending keeps a split
// that did not fit into the caller's buffers so that it can be fetched again.
type splitStream struct {
	mu      sync.Mutex
	it      *sfl.SplitIterator
	pending *sfl.Split
}

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	streams           = make(map[uint64]*splitStream)

	lastErrorMu sync.Mutex
	lastError   string
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func storeStream(s *splitStream) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	streams[handle] = s
	nextHandle++
	return handle
}

func fetchStream(handle uint64) (*splitStream, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	s, ok := streams[handle]
	if !ok {
		return nil, errors.New("invalid split handle")
	}
	return s, nil
}

//export FreeSectionSplit
func FreeSectionSplit(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(streams, uint64(handle))
}

func copyFloatSlice(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length)
	dst := make([]float64, length)
	copy(dst, src)
	return dst, nil
}

func indexSliceFromPtr(ptr *C.longlong, length int) ([]int64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(ptr)), length), nil
}

// buildKeyTable copies the row-major key matrix; every column takes part in the section key.
func buildKeyTable(ptr *C.double, rows, cols C.int) (sfl.DenseTable, error) {
	r := int(rows)
	c := int(cols)
	if r < 0 || c <= 0 {
		return sfl.DenseTable{}, errors.New("invalid key matrix dimensions")
	}
	names := sfl.DefaultColumnNames(c)
	if r == 0 {
		return sfl.DenseTable{Names: names}, nil
	}
	data, err := copyFloatSlice(ptr, r*c)
	if err != nil {
		return sfl.DenseTable{}, err
	}
	return sfl.DenseTable{Matrix: mat.NewDense(r, c, data), Names: names}, nil
}

//buildSplitter passes nSplits through unchanged: the Python side always sends it,
//so 0 is an error rather than the library default.
func buildSplitter(nSplits int, shuffle bool, seed *int64) (*sfl.SectionKFold, error) {
	if nSplits < 2 {
		return nil, fmt.Errorf("%w: got %d", sfl.ErrTooFewSplits, nSplits)
	}
	return sfl.NewSectionKFold(sfl.SectionKFoldParams{
		NSplits:     nSplits,
		Shuffle:     sfl.Bool(shuffle),
		RandomState: seed,
	})
}

//export NewSectionSplit
func NewSectionSplit(
	keysPtr *C.double,
	rows C.int,
	cols C.int,
	nSplits C.int,
	shuffle C.int,
	hasSeed C.int,
	seed C.longlong,
) C.ulonglong {
	setLastError(nil)

	table, err := buildKeyTable(keysPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 0
	}

	var randomState *int64
	if hasSeed != 0 {
		randomState = sfl.Int64(int64(seed))
	}
	skf, err := buildSplitter(int(nSplits), shuffle != 0, randomState)
	if err != nil {
		setLastError(err)
		return 0
	}

	it, err := skf.Split(table, table.Names...)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeStream(&splitStream{it: it}))
}

//export CountSectionSplits
func CountSectionSplits(keysPtr *C.double, rows, cols, nSplits C.int) C.longlong {
	setLastError(nil)

	table, err := buildKeyTable(keysPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return -1
	}
	skf, err := buildSplitter(int(nSplits), false, nil)
	if err != nil {
		setLastError(err)
		return -1
	}
	count, err := skf.CountSplits(table, table.Names...)
	if err != nil {
		setLastError(err)
		return -1
	}
	return C.longlong(count)
}

// NextSectionSplit copies the next split into the caller's buffers.
// Status: 0 split written, 1 exhausted, 2 invalid handle, 3 split failed,
// 4 buffers too small (the lengths are reported and the split is kept for the next call).
//
//export NextSectionSplit
func NextSectionSplit(
	handle C.ulonglong,
	trainOut *C.longlong,
	trainCap C.int,
	testOut *C.longlong,
	testCap C.int,
	trainLen *C.int,
	testLen *C.int,
) C.int {
	setLastError(nil)
	s, err := fetchStream(uint64(handle))
	if err != nil {
		setLastError(err)
		return 2
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		if !s.it.HasNext() {
			return 1
		}
		split, err := s.it.GetNext()
		if err != nil {
			setLastError(err)
			return 3
		}
		s.pending = &split
	}
	split := s.pending

	if trainLen != nil {
		*trainLen = C.int(len(split.Train))
	}
	if testLen != nil {
		*testLen = C.int(len(split.Test))
	}
	if len(split.Train) > int(trainCap) || len(split.Test) > int(testCap) {
		setLastError(errors.New("split buffers too small"))
		return 4
	}

	for _, part := range []struct {
		ptr     *C.longlong
		indices []int
	}{{trainOut, split.Train}, {testOut, split.Test}} {
		out, err := indexSliceFromPtr(part.ptr, len(part.indices))
		if err != nil {
			setLastError(err)
			return 4
		}
		for ind, p := range part.indices {
			out[ind] = int64(p)
		}
	}
	s.pending = nil
	return 0
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
