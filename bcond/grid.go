package bcond

import "github.com/spatialmodel/mpdatago/field"

// Grid bundles the two Faces (left, right) governing each dimension of
// the domain, plus the halo width shared by every dimension (spec §3:
// "halo width equal to the maximum halo required by any layer").
type Grid struct {
	NDims    int
	Halo     int
	Faces    [][2]*Face    // Faces[d] = {left, right}
	Interior []field.Range // interior scalar range per dimension
	widened  []field.Range // Interior[d].Widen(Halo), precomputed
}

// NewGrid builds a Grid governing the given per-dimension interior
// ranges, with one Face per side per dimension built from kinds[d] =
// {leftKind, rightKind}.
func NewGrid(interior []field.Range, halo int, kinds [][2]Kind) *Grid {
	g := &Grid{
		NDims:    len(interior),
		Halo:     halo,
		Faces:    make([][2]*Face, len(interior)),
		Interior: append([]field.Range(nil), interior...),
		widened:  make([]field.Range, len(interior)),
	}
	for d, r := range interior {
		g.widened[d] = r.Widen(halo)
		g.Faces[d][0] = New(d, Left, kinds[d][0], r, halo)
		g.Faces[d][1] = New(d, Right, kinds[d][1], r, halo)
	}
	return g
}

// Widened returns the halo-widened interior range of every dimension, the
// "full array including halo" region spec §9 specifies for courant().
func (g *Grid) Widened() []field.Range {
	return append([]field.Range(nil), g.widened...)
}

// perp returns, in ascending-dimension order, the halo-widened ranges of
// every dimension other than d -- the perpendicular ranges each face
// expects (spec §4.7: already-filled halos from previously processed
// dimensions are included by always widening, since a face only ever
// transforms its own dimension's index and copies other dimensions'
// index through unchanged; see bcond.go's transferPlane).
func (g *Grid) perp(d int) []field.Range {
	out := make([]field.Range, 0, g.NDims-1)
	for i := 0; i < g.NDims; i++ {
		if i == d {
			continue
		}
		out = append(out, g.widened[i])
	}
	return out
}

// FillHalosScalar fills a's full halo, processing dimensions in ascending
// order (X, then Y, then Z), each face's left side before its right.
func (g *Grid) FillHalosScalar(a *field.Field) {
	for d := 0; d < g.NDims; d++ {
		p := g.perp(d)
		g.Faces[d][0].FillHalosScalar(a, p...)
		g.Faces[d][1].FillHalosScalar(a, p...)
	}
}

// FillHalosPressure fills a's pressure halo, same traversal as FillHalosScalar.
func (g *Grid) FillHalosPressure(a *field.Field) {
	for d := 0; d < g.NDims; d++ {
		p := g.perp(d)
		g.Faces[d][0].FillHalosPressure(a, p...)
		g.Faces[d][1].FillHalosPressure(a, p...)
	}
}

// SetEdgePressureVelocity stamps each dimension's velocity-correction
// component tmp[d] against its own actual provisional velocity v[d],
// using only that dimension's own pair of faces -- the way
// mpdata_rhs_vip_prs_2d_common.hpp's set_edges(tmp_u, tmp_w, state(u),
// state(w), i, j) restricts the X faces to tmp_u/state(u) and the Y
// faces to tmp_w/state(w) rather than stamping every component on
// every face.
func (g *Grid) SetEdgePressureVelocity(tmp, v []*field.Field) {
	for d := 0; d < g.NDims; d++ {
		p := g.perp(d)
		g.Faces[d][0].SetEdgePressureWithVelocity(tmp[d], v[d], p...)
		g.Faces[d][1].SetEdgePressureWithVelocity(tmp[d], v[d], p...)
	}
}

// FillHalosVector fills the halo of one component of the staggered
// vector av, av[vecDim], treating it as normal to the faces of dimension
// vecDim and as running along the faces of every other dimension. The
// other components of av are left untouched.
func (g *Grid) FillHalosVector(av []*field.Field, vecDim int) {
	for d := 0; d < g.NDims; d++ {
		p := g.perp(d)
		if d == vecDim {
			g.Faces[d][0].FillHalosVectorNormal(av[vecDim], p...)
			g.Faces[d][1].FillHalosVectorNormal(av[vecDim], p...)
		} else {
			g.Faces[d][0].FillHalosVectorAlong(av, vecDim, p...)
			g.Faces[d][1].FillHalosVectorAlong(av, vecDim, p...)
		}
	}
}
