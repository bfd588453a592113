package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/spatialmodel/mpdatago/config"
	"github.com/spatialmodel/mpdatago/field"
	"github.com/spatialmodel/mpdatago/formulae"
)

// PressureSolver projects a provisional VIP velocity onto the
// divergence-free manifold by solving the elliptic equation
// div(grad(Phi)) = div(u) in pseudo-time, following
// solver_pressure_mr.hpp's residual/beta/update structure generalized to
// three interchangeable pseudo-time schemes (spec §4.5, SPEC_FULL.md
// §C.3).
type PressureSolver struct {
	s *Base

	Phi  *field.Field
	r    *field.Field
	lapR *field.Field

	gradScratch []*field.Field // one per dimension, staggered shape
	tmp         []*field.Field // provisional-velocity copy, tmp_u/tmp_w/tmp_v

	// p and ap are the conjugate-residual search direction and its
	// Laplacian; unused by the other two schemes.
	p, ap *field.Field

	scheme config.PressureScheme

	Iterations int
}

// NewPressureSolver allocates the pressure layer's scratch arrays once,
// up front (spec §5's "no per-step allocation" resource discipline).
func NewPressureSolver(s *Base) *PressureSolver {
	const halo = 2
	interior := s.Grid.Interior
	nDims := s.Cfg.NDims()

	ps := &PressureSolver{
		s:      s,
		Phi:    field.New(widenAll(interior, halo)...),
		r:      field.New(widenAll(interior, halo)...),
		lapR:   field.New(widenAll(interior, halo)...),
		scheme: s.Cfg.PressureScheme,
	}
	ps.gradScratch = make([]*field.Field, nDims)
	ps.tmp = make([]*field.Field, nDims)
	for d := 0; d < nDims; d++ {
		ps.gradScratch[d] = field.New(vectorRanges(interior, halo, d)...)
		ps.tmp[d] = field.New(vectorRanges(interior, halo, d)...)
	}
	if ps.scheme == config.PressureConjRes {
		ps.p = field.New(widenAll(interior, halo)...)
		ps.ap = field.New(widenAll(interior, halo)...)
	}
	return ps
}

// Tmp returns the velocity-correction temporary for dimension d, set by
// Update and consumed by the caller's ante_step Apply.
func (ps *PressureSolver) Tmp(d int) *field.Field { return ps.tmp[d] }

// collect gathers f's values over ranges, in Each's deterministic order,
// for use with gonum/floats' dot-product helpers.
func collect(f *field.Field, ranges []field.Range) []float64 {
	out := make([]float64, 0, rangeSize(ranges))
	field.Each(ranges, func(idx []int) { out = append(out, f.At(idx...)) })
	return out
}

func rangeSize(ranges []field.Range) int {
	n := 1
	for _, r := range ranges {
		n *= r.Len()
	}
	return n
}

// laplacian computes lapR = div(grad(in)) as one gradient component per
// dimension followed by a divergence. The gradients are computed over
// every face the divergence reads (faceRange), so they are not
// halo-exchanged; in itself is read one cell beyond the interior, so its
// halo must already be filled. Like the antidiffusive-velocity computation in
// mpdata.go, the gradient/divergence pass itself is done by rank 0 over
// the whole domain rather than split per slab, for the same
// boundary-face-ownership reason documented there (see DESIGN.md); every
// rank still participates in the surrounding barriers.
func (ps *PressureSolver) laplacian(rank int, in *field.Field, out *field.Field) {
	s := ps.s
	spacing := s.Cfg.Spacing()
	s.Mem.Barrier()
	if rank == 0 {
		for d := 0; d < s.Cfg.NDims(); d++ {
			gr := s.faceRange(d)
			formulae.Gradient(ps.gradScratch[d], in, d, gr, spacing[d])
		}
		formulae.Divergence(out, ps.gradScratch, s.Grid.Interior, spacing)
	}
	s.Mem.Barrier()
}

// Update runs the full pressure projection procedure of spec §4.5 given
// the current provisional VIP velocities vip (one field per dimension,
// staggered), filling ps.Tmp(d) with the velocity correction each
// dimension's ante_step Apply adds back in.
func (ps *PressureSolver) Update(rank int, vip []*field.Field) error {
	s := ps.s
	nDims := s.Cfg.NDims()
	spacing := s.Cfg.Spacing()
	ranges := s.rankRanges(rank)

	for d := 0; d < nDims; d++ {
		fr := s.vipRanges(rank, d)
		field.Each(fr, func(idx []int) {
			ps.tmp[d].Set(vip[d].At(idx...), idx...)
		})
	}
	s.Mem.Barrier()

	s.xchngPressure(rank, ps.Phi)
	for d := 0; d < nDims; d++ {
		s.xchngVector(rank, ps.tmp, d)
	}

	formulae.Divergence(ps.r, ps.tmp, ranges, spacing)
	ps.laplacian(rank, ps.Phi, ps.lapR)
	field.Each(ranges, func(idx []int) {
		ps.r.Set(ps.r.At(idx...)-ps.lapR.At(idx...), idx...)
	})
	s.Mem.Barrier()

	if ps.scheme == config.PressureConjRes {
		ps.p.CopyFrom(ps.r)
		ps.laplacian(rank, ps.p, ps.ap)
	}

	ps.Iterations = 0
	for {
		maxR := s.Mem.MaxAbs(rank, ps.r, ranges...)
		if maxR < s.Cfg.PrsTol {
			break
		}
		ps.Iterations++
		if ps.Iterations > s.Cfg.MaxPressureIters {
			return fmt.Errorf("solver: pressure solver failed to converge within %d iterations (max|r|=%.3e, tol=%.3e)",
				s.Cfg.MaxPressureIters, maxR, s.Cfg.PrsTol)
		}

		if err := ps.iterate(rank, ranges); err != nil {
			return err
		}
	}

	s.xchngPressure(rank, ps.Phi)
	s.Mem.Barrier()
	if rank == 0 {
		for d := 0; d < nDims; d++ {
			gr := s.faceRange(d)
			formulae.Gradient(ps.tmp[d], ps.Phi, d, gr, -spacing[d])
		}
		s.Grid.SetEdgePressureVelocity(ps.tmp, vip)
	}
	s.Mem.Barrier()
	return nil
}

// iterate performs one pseudo-time step, dispatching on ps.scheme. All
// three variants share the residual-update shape of spec §4.5 step 4;
// they differ in how the step size (or conjugate direction) is derived.
func (ps *PressureSolver) iterate(rank int, ranges []field.Range) error {
	s := ps.s
	s.xchng(rank, ps.r)

	switch ps.scheme {
	case config.PressureRichardson:
		ps.laplacian(rank, ps.r, ps.lapR)
		s.Mem.Barrier()
		applyResidualStep(ps.Phi, ps.r, ps.lapR, 0.25, ranges)

	case config.PressureConjRes:
		apSlice := collect(ps.ap, ranges)
		rSlice := collect(ps.r, ranges)
		num := s.Mem.SumScalar(rank, floats.Dot(rSlice, apSlice))
		den := s.Mem.SumScalar(rank, floats.Dot(apSlice, apSlice))
		alpha := richardsonFallback(num, den, s.Cfg.MaxAbsDivEps)

		field.Each(ranges, func(idx []int) {
			ps.Phi.Set(ps.Phi.At(idx...)+alpha*ps.p.At(idx...), idx...)
			ps.r.Set(ps.r.At(idx...)-alpha*ps.ap.At(idx...), idx...)
		})
		s.Mem.Barrier()

		ps.laplacian(rank, ps.r, ps.lapR)
		arSlice := collect(ps.lapR, ranges)
		gNum := s.Mem.SumScalar(rank, floats.Dot(apSlice, arSlice))
		gDen := s.Mem.SumScalar(rank, floats.Dot(apSlice, apSlice))
		gamma := richardsonFallback(-gNum, gDen, s.Cfg.MaxAbsDivEps)

		field.Each(ranges, func(idx []int) {
			ps.p.Set(ps.r.At(idx...)+gamma*ps.p.At(idx...), idx...)
			ps.ap.Set(ps.lapR.At(idx...)+gamma*ps.ap.At(idx...), idx...)
		})
		s.Mem.Barrier()

	default: // config.PressureMinRes
		ps.laplacian(rank, ps.r, ps.lapR)
		s.Mem.Barrier()

		rSlice := collect(ps.r, ranges)
		lapSlice := collect(ps.lapR, ranges)
		num := s.Mem.SumScalar(rank, floats.Dot(rSlice, lapSlice))
		den := s.Mem.SumScalar(rank, floats.Dot(lapSlice, lapSlice))
		beta := richardsonFallback(-num, den, s.Cfg.MaxAbsDivEps)

		applyResidualStep(ps.Phi, ps.r, ps.lapR, beta, ranges)
	}
	return nil
}

// applyResidualStep performs Phi += beta*r, r += beta*lapR over ranges.
func applyResidualStep(phi, r, lapR *field.Field, beta float64, ranges []field.Range) {
	field.Each(ranges, func(idx []int) {
		phi.Set(phi.At(idx...)+beta*r.At(idx...), idx...)
		r.Set(r.At(idx...)+beta*lapR.At(idx...), idx...)
	})
}

// richardsonFallback divides num/den, falling back to the fixed
// Richardson step 0.25 when den is too small to divide by safely (spec
// §4.5's "division...guarded against zero" convergence invariant).
func richardsonFallback(num, den, eps float64) float64 {
	if math.Abs(den) < eps {
		return 0.25
	}
	return num / den
}
