package sfl

//IntIterable is the interface for iteration over a collection of integers.
type IntIterable interface {
	HasNext() bool
	GetNext() int
}

//Range is an iterator over half interval [begin, end) with the step step.
type Range struct {
	begin, end, step, pos int
}

//NewRange initializes a new iterator over a half interval.
func NewRange(start, end, step int) *Range {
	return &Range{start, end, step, start}
}

//GetNext returns the next element from the iterator and moves iterator to the next position.
func (r *Range) GetNext() int {
	val := r.pos
	r.pos += r.step
	return val
}

//HasNext checks whether there are more values in the iterator.
func (r *Range) HasNext() bool {
	if r.step > 0 {
		return r.pos < r.end
	}
	return r.pos > r.end
}

//Len returns how many values are left in the iterator.
func (r *Range) Len() int {
	if !r.HasNext() {
		return 0
	}
	if r.step > 0 {
		return (r.end - r.pos + r.step - 1) / r.step
	}
	return (r.pos - r.end - r.step - 1) / -r.step
}

//Gather collects positions[i] for every i produced by the iterator.
func Gather(it IntIterable, positions []int) []int {
	var out []int
	if sized, ok := it.(interface{ Len() int }); ok {
		out = make([]int, 0, sized.Len())
	} else {
		out = make([]int, 0)
	}
	for it.HasNext() {
		out = append(out, positions[it.GetNext()])
	}
	return out
}
