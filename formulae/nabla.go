package formulae

import "github.com/spatialmodel/mpdatago/field"

// Gradient computes, for dimension d, the face-centered (staggered)
// derivative of the cell-centered field in:
//
//	out(i) = (in(i+1) - in(i)) / spacing
//
// over ranges (a scalar range, since face i stores d/dx at i+1/2). out
// must already be allocated over the corresponding staggered range.
func Gradient(out, in *field.Field, d int, ranges []field.Range, spacing float64) {
	field.Each(ranges, func(idx []int) {
		right := append([]int(nil), idx...)
		right[d] = idx[d] + 1
		out.Set((in.At(right...)-in.At(idx...))/spacing, idx...)
	})
}

// Divergence computes the cell-centered divergence of the staggered
// vector components (one per dimension):
//
//	out(i) = sum_d (components[d](i) - components[d](i-1 in dim d)) / spacing[d]
//
// over ranges (a cell-centered, scalar range).
func Divergence(out *field.Field, components []*field.Field, ranges []field.Range, spacing []float64) {
	field.Each(ranges, func(idx []int) {
		var sum float64
		for d, c := range components {
			left := append([]int(nil), idx...)
			left[d] = idx[d] - 1
			sum += (c.At(idx...) - c.At(left...)) / spacing[d]
		}
		out.Set(sum, idx...)
	})
}

// Laplacian computes the cell-centered Laplacian of the cell-centered
// field in, using grad scratch fields (one per dimension, each allocated
// over the staggered range for its dimension and the full perpendicular
// halo-widened range) as intermediate storage -- the same two-gradients-
// then-a-divergence pattern the pressure solver's lap() uses (see
// DESIGN.md, grounded on solver_pressure_mr.hpp and
// mpdata_rhs_vip_prs_2d_common.hpp's lap()).
func Laplacian(out *field.Field, grads []*field.Field, in *field.Field, ranges []field.Range, gradRanges [][]field.Range, spacing []float64) {
	for d := range grads {
		Gradient(grads[d], in, d, gradRanges[d], spacing[d])
	}
	Divergence(out, grads, ranges, spacing)
}
