// Package bcond implements the boundary-condition protocol: filling halo
// cells on a face of the domain according to a named policy (cyclic,
// rigid, polar, open), for scalar, pressure, and vector (along/normal)
// fields. It follows the teacher's convention of keeping policy selection
// as a small tagged switch rather than a chain of virtual dispatch (see
// DESIGN.md), since the source's own cyclic_2d.hpp shows each face
// resolved at (C++) compile time per dimension and side.
package bcond

import "github.com/spatialmodel/mpdatago/field"

// Side names which edge of a dimension a Face governs.
type Side int

const (
	Left Side = iota
	Right
)

// Kind names a boundary-condition policy.
type Kind int

const (
	Null Kind = iota
	Shared
	Cyclic
	Rigid
	Polar
	Open
)

// Face fills the halo of one side of one grid dimension. It owns that
// side's precomputed halo/interior index ranges for both the scalar and
// staggered (vector) index spaces.
type Face struct {
	Dim  int
	Side Side
	Kind Kind

	halo int

	// scalar ranges, in the dimension this face governs
	leftHaloSclr, rghtHaloSclr   field.Range
	leftIntrSclr, rghtIntrSclr   field.Range
	leftHaloVctr, rghtHaloVctr   field.Range
	leftIntrVctr, rghtIntrVctr   field.Range
}

// New constructs a Face for dimension d, side s, policy kind, given the
// dimension's interior (non-halo) scalar range and the halo width.
func New(d int, s Side, kind Kind, interior field.Range, halo int) *Face {
	lo, hi := interior.Lo, interior.Hi
	f := &Face{
		Dim: d, Side: s, Kind: kind, halo: halo,

		leftHaloSclr: field.Rng(lo-halo, lo-1),
		rghtHaloSclr: field.Rng(hi+1, hi+halo),
		leftIntrSclr: field.Rng(lo, lo+halo-1),
		rghtIntrSclr: field.Rng(hi-halo+1, hi),

		// vector (face-centered) indices: face i+1/2 is stored at
		// integer index i, so the staggered halo/interior ranges are
		// one cell narrower on the side away from the boundary,
		// matching Range.Vec's "r^half" convention.
		leftHaloVctr: field.Rng(lo-halo, lo-1),
		rghtHaloVctr: field.Rng(hi+1, hi+halo-1),
		leftIntrVctr: field.Rng(lo, lo+halo-1),
		rghtIntrVctr: field.Rng(hi-halo+1, hi-1),
	}
	return f
}

// regionRanges builds the full n-dimensional range slice for a single
// plane at index `at` in dimension f.Dim, with perp supplying the ranges
// (in ascending-dimension order, skipping f.Dim) for every other
// dimension.
func regionRanges(ndims, d, at int, perp []field.Range) []field.Range {
	out := make([]field.Range, ndims)
	pi := 0
	for i := 0; i < ndims; i++ {
		if i == d {
			out[i] = field.Rng(at, at)
		} else {
			out[i] = perp[pi]
			pi++
		}
	}
	return out
}

// transferPlane copies, for k in [0,width), the plane at dstAt+k*dstStep
// in dst from the plane at srcAt+k*srcStep in src (both restricted to the
// same perp ranges in every other dimension), scaling by sign.
func transferPlane(dst, src *field.Field, ndims, d int, dstAt, srcAt, width, dstStep, srcStep int, perp []field.Range, sign float64) {
	for k := 0; k < width; k++ {
		dAt := dstAt + k*dstStep
		sAt := srcAt + k*srcStep
		ranges := regionRanges(ndims, d, dAt, perp)
		field.Each(ranges, func(idx []int) {
			srcIdx := append([]int(nil), idx...)
			srcIdx[d] = sAt
			dst.Set(sign*src.At(srcIdx...), idx...)
		})
	}
}

// extrapolatePlane sets every plane in dst's halo range [dstAt, dstAt+width)
// in dimension d to the single source plane at srcAt (Dirichlet
// extrapolation from the outermost interior cell).
func extrapolatePlane(dst, src *field.Field, ndims, d, dstAt, srcAt, width int, perp []field.Range) {
	for k := 0; k < width; k++ {
		dAt := dstAt + k
		ranges := regionRanges(ndims, d, dAt, perp)
		field.Each(ranges, func(idx []int) {
			srcIdx := append([]int(nil), idx...)
			srcIdx[d] = srcAt
			dst.Set(src.At(srcIdx...), idx...)
		})
	}
}

func (f *Face) ndims(a *field.Field) int { return a.NDims() }

// FillHalosScalar fills a's scalar halo on this face. perp gives the
// ranges, in ascending-dimension order skipping f.Dim, already widened to
// include any halos filled by faces processed earlier in the fixed X, Y,
// Z order (spec §4.2's corner tie-break).
func (f *Face) FillHalosScalar(a *field.Field, perp ...field.Range) {
	n := f.ndims(a)
	switch f.Kind {
	case Null, Shared:
		return
	case Cyclic:
		if f.Side == Left {
			transferPlane(a, a, n, f.Dim, f.leftHaloSclr.Lo, f.rghtIntrSclr.Lo, f.halo, 1, 1, perp, 1)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloSclr.Lo, f.leftIntrSclr.Lo, f.halo, 1, 1, perp, 1)
		}
	case Rigid, Polar:
		sign := 1.0
		if f.Side == Left {
			// halo index lo-h+k mirrors interior index lo+(h-1-k)
			transferPlane(a, a, n, f.Dim, f.leftHaloSclr.Lo, f.leftIntrSclr.Hi, f.halo, 1, -1, perp, sign)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloSclr.Lo, f.rghtIntrSclr.Hi, f.halo, 1, -1, perp, sign)
		}
	case Open:
		if f.Side == Left {
			extrapolatePlane(a, a, n, f.Dim, f.leftHaloSclr.Lo, f.leftIntrSclr.Lo, f.halo, perp)
		} else {
			extrapolatePlane(a, a, n, f.Dim, f.rghtHaloSclr.Lo, f.rghtIntrSclr.Hi, f.halo, perp)
		}
	}
}

// FillHalosPressure fills a's pressure halo on this face. Cyclic and open
// match the scalar halo; rigid mirrors (zero-normal-derivative, i.e.
// Neumann, boundary condition for Phi).
func (f *Face) FillHalosPressure(a *field.Field, perp ...field.Range) {
	f.FillHalosScalar(a, perp...)
}

// SetEdgePressureWithVelocity is the set_edge_pres(a, v, ...) edge
// substitution used when projecting the pressure gradient at a rigid
// boundary: at a rigid wall, it sets a's edge plane to -v's edge plane,
// so that v + a is exactly zero there regardless of any
// pressure-gradient rounding -- the way
// mpdata_rhs_vip_prs_2d_common.hpp's final set_edges(tmp_u, tmp_w,
// state(u), state(w), ...) call stamps the velocity-correction
// temporaries against the actual provisional velocity. For
// cyclic/open/polar/null faces this is a no-op, since only rigid walls
// need this substitution.
func (f *Face) SetEdgePressureWithVelocity(a, v *field.Field, perp ...field.Range) {
	if f.Kind != Rigid {
		return
	}
	n := f.ndims(a)
	var at int
	if f.Side == Left {
		at = f.leftIntrSclr.Lo
	} else {
		at = f.rghtIntrSclr.Hi
	}
	ranges := regionRanges(n, f.Dim, at, perp)
	field.Each(ranges, func(idx []int) {
		a.Set(-v.At(idx...), idx...)
	})
}

// FillHalosVectorAlong fills the halo of a vector component that runs
// parallel to this face (i.e. a component of av other than av[f.Dim]).
func (f *Face) FillHalosVectorAlong(av []*field.Field, alongDim int, perp ...field.Range) {
	a := av[alongDim]
	n := f.ndims(a)
	switch f.Kind {
	case Null, Shared:
		return
	case Cyclic:
		if f.Side == Left {
			transferPlane(a, a, n, f.Dim, f.leftHaloVctr.Lo, f.rghtIntrVctr.Lo, f.halo, 1, 1, perp, 1)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloVctr.Lo, f.leftIntrVctr.Lo, f.halo, 1, 1, perp, 1)
		}
	case Rigid:
		// no-slip tangential: mirror with sign flip.
		if f.Side == Left {
			transferPlane(a, a, n, f.Dim, f.leftHaloVctr.Lo, f.leftIntrVctr.Hi, f.halo, 1, -1, perp, -1)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloVctr.Lo, f.rghtIntrVctr.Lo, f.halo, 1, -1, perp, -1)
		}
	case Polar:
		// hemisphere swap flips both wind components (§9 open-question
		// resolution, see DESIGN.md).
		if f.Side == Left {
			transferPlane(a, a, n, f.Dim, f.leftHaloVctr.Lo, f.leftIntrVctr.Hi, f.halo, 1, -1, perp, -1)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloVctr.Lo, f.rghtIntrVctr.Lo, f.halo, 1, -1, perp, -1)
		}
	case Open:
		if f.Side == Left {
			extrapolatePlane(a, a, n, f.Dim, f.leftHaloVctr.Lo, f.leftIntrVctr.Lo, f.halo, perp)
		} else {
			extrapolatePlane(a, a, n, f.Dim, f.rghtHaloVctr.Lo, f.rghtIntrVctr.Hi, f.halo, perp)
		}
	}
}

// FillHalosVectorNormal fills the halo of the vector component normal to
// this face (av[f.Dim]). Cyclic and open match the scalar halo; rigid
// copies the interior planes into the halo in mirrored order without a
// sign change, and does not set the edge value to zero; polar does the
// same mirror with a sign flip.
func (f *Face) FillHalosVectorNormal(a *field.Field, perp ...field.Range) {
	n := f.ndims(a)
	switch f.Kind {
	case Null, Shared:
		return
	case Cyclic, Open:
		f.FillHalosScalar(a, perp...)
	case Rigid:
		if f.Side == Left {
			transferPlane(a, a, n, f.Dim, f.leftHaloVctr.Lo, f.leftIntrVctr.Hi, f.halo, 1, -1, perp, 1)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloVctr.Lo, f.rghtIntrVctr.Lo, f.halo, 1, -1, perp, 1)
		}
	case Polar:
		if f.Side == Left {
			transferPlane(a, a, n, f.Dim, f.leftHaloVctr.Lo, f.leftIntrVctr.Hi, f.halo, 1, -1, perp, -1)
		} else {
			transferPlane(a, a, n, f.Dim, f.rghtHaloVctr.Lo, f.rghtIntrVctr.Lo, f.halo, 1, -1, perp, -1)
		}
	}
}
