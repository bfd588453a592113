package field

// Field is a dense N-dimensional array of float64 values whose index bases
// may be negative, so that halo cells use the same index space as the
// interior. Storage is a single flat slice (the ctessum/sparse.DenseArray
// layout), addressed through per-dimension strides computed from the
// per-dimension ranges.
type Field struct {
	ranges  []Range
	strides []int
	data    []float64
}

// New allocates a zeroed Field spanning the given per-dimension ranges.
func New(ranges ...Range) *Field {
	n := len(ranges)
	strides := make([]int, n)
	size := 1
	// row-major: last dimension varies fastest.
	for d := n - 1; d >= 0; d-- {
		strides[d] = size
		size *= ranges[d].Len()
	}
	return &Field{
		ranges:  append([]Range(nil), ranges...),
		strides: strides,
		data:    make([]float64, size),
	}
}

// NDims returns the rank of the field.
func (f *Field) NDims() int { return len(f.ranges) }

// Range returns the index range of dimension d.
func (f *Field) Range(d int) Range { return f.ranges[d] }

func (f *Field) offset(idx []int) int {
	off := 0
	for d, i := range idx {
		off += (i - f.ranges[d].Lo) * f.strides[d]
	}
	return off
}

// At returns the value at idx.
func (f *Field) At(idx ...int) float64 {
	return f.data[f.offset(idx)]
}

// Set stores v at idx.
func (f *Field) Set(v float64, idx ...int) {
	f.data[f.offset(idx)] = v
}

// Add accumulates v into the cell at idx.
func (f *Field) Add(v float64, idx ...int) {
	f.data[f.offset(idx)] += v
}

// Fill sets every element of f (including halos) to v.
func (f *Field) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

// CopyFrom copies every element of src into f. Both fields must share shape.
func (f *Field) CopyFrom(src *Field) {
	copy(f.data, src.data)
}

// Each calls fn once for every multi-index in the Cartesian product of
// ranges, in row-major (last-dimension-fastest) order -- the deterministic
// enumeration order relied on by the concurr package's reductions.
func Each(ranges []Range, fn func(idx []int)) {
	idx := make([]int, len(ranges))
	for d, r := range ranges {
		idx[d] = r.Lo
	}
	if len(ranges) == 0 {
		return
	}
	for {
		fn(idx)
		d := len(ranges) - 1
		for d >= 0 {
			idx[d]++
			if idx[d] <= ranges[d].Hi {
				break
			}
			idx[d] = ranges[d].Lo
			d--
		}
		if d < 0 {
			return
		}
	}
}

// ForEach enumerates every index within f's own ranges.
func (f *Field) ForEach(fn func(idx []int)) {
	Each(f.ranges, fn)
}

// Sum returns the (single-goroutine) sum of f over the given ranges.
// Cross-worker callers should use concurr.SharedMem.Sum instead so that
// partial sums combine in a deterministic, rank-ordered way.
func (f *Field) Sum(ranges ...Range) float64 {
	var s float64
	Each(ranges, func(idx []int) { s += f.At(idx...) })
	return s
}

// MaxAbs returns the maximum absolute value of f over the given ranges.
func (f *Field) MaxAbs(ranges ...Range) float64 {
	var m float64
	Each(ranges, func(idx []int) {
		v := f.At(idx...)
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	})
	return m
}
