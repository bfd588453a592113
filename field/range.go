// Package field implements the dense N-dimensional array type used to hold
// prognostic fields, advective velocities and scratch arrays on the regular
// Cartesian grid, plus the inclusive integer Range used to describe
// sub-views of those arrays.
//
// The pack's own dense-array helper, github.com/ctessum/sparse.DenseArray,
// stores its elements in a single flat slice indexed through a
// precomputed Shape, but it only supports zero-based indices. Halo cells
// require negative index bases, so Field extends that flat-storage idea
// with a per-dimension Lo offset taken from each dimension's Range (see
// DESIGN.md).
package field

import "fmt"

// Range is an inclusive integer interval [Lo, Hi], used both for scalar
// cell-center ranges and, via Vec, for face-centered (staggered) ranges.
type Range struct {
	Lo, Hi int
}

// Rng constructs an inclusive Range.
func Rng(lo, hi int) Range {
	return Range{Lo: lo, Hi: hi}
}

// Len returns the number of scalar grid points covered by r.
func (r Range) Len() int {
	return r.Hi - r.Lo + 1
}

// Widen returns r widened by h cells on each side (the "r ^ h" operator).
func (r Range) Widen(h int) Range {
	return Range{Lo: r.Lo - h, Hi: r.Hi + h}
}

// Vec returns the staggered (vector, face-centered) range corresponding to
// r: one fewer point, since face i+1/2 is only defined for i in
// [Lo, Hi-1]. This is the "r ^ half" operator.
func (r Range) Vec() Range {
	return Range{Lo: r.Lo, Hi: r.Hi - 1}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d]", r.Lo, r.Hi)
}

// Contains reports whether i falls within r.
func (r Range) Contains(i int) bool {
	return i >= r.Lo && i <= r.Hi
}
