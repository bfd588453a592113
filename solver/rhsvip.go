package solver

import (
	"github.com/spatialmodel/mpdatago/field"
	"github.com/spatialmodel/mpdatago/formulae"
)

// RhsVip is the default Hooks implementation: it extrapolates the
// advective velocity from the VIP (pressure-coupled) prognostic
// velocities, applies the previous step's pressure correction and the
// optional velocity absorber in AnteStep, then drives the pressure
// projection in PostStep (spec §4.6).
type RhsVip struct {
	base *Base

	// vipDims[d] is the equation index of the velocity component
	// staggered along dimension d.
	vipDims []int

	pressure *PressureSolver

	// VarGC enables GC extrapolation from the VIP velocities at each
	// ante_step; when false GC is treated as externally prescribed and
	// left untouched.
	VarGC bool

	absorberAlpha  []*field.Field // one per dimension, nil entries disable the absorber there
	absorberTarget float64

	forcing         *ForcingSpec
	buoyancyScratch *field.Field
	dragScratch     []*field.Field
}

// ForcingSpec configures the optional explicit right-hand-side forcing
// named in spec §1 ("slow forcings (buoyancy, drag)") and §4.6
// ("applies explicit/trapezoidal forcings"): buoyancy couples a
// potential-temperature equation into one VIP dimension's tendency,
// following pbl.cpp's tht/w coupling; drag is a quadratic velocity
// retardation applied to every VIP dimension. A nil *ForcingSpec (the
// default) disables forcing entirely.
type ForcingSpec struct {
	// ThtEqn is the equation index of potential temperature; negative
	// disables the buoyancy term.
	ThtEqn int
	// BuoyancyDim is the VIP dimension (an index into the vipDims slice
	// passed to NewRhsVip, not a raw spatial dimension) buoyancy acts
	// on -- the vertical dimension in pbl.cpp.
	BuoyancyDim int
	// G and ThtRef are the gravitational acceleration and reference
	// potential temperature of pbl.cpp's rt_params_t fields g, Tht_ref.
	G, ThtRef float64
	// CDrag is the quadratic drag coefficient; zero disables drag.
	CDrag float64
}

// NewRhsVip builds the RHS+VIP hooks layer over base, where vipDims maps
// each spatial dimension to the index of its velocity equation in
// base.Eqns (len(vipDims) must equal base.Cfg.NDims()).
func NewRhsVip(base *Base, vipDims []int, varGC bool) *RhsVip {
	h := &RhsVip{
		base:           base,
		vipDims:        vipDims,
		pressure:       NewPressureSolver(base),
		VarGC:          varGC,
		absorberTarget: base.Cfg.VabRelaxedState,
	}
	h.absorberAlpha = make([]*field.Field, len(vipDims))
	if len(base.Cfg.VabCoefficient) > 0 {
		for d := range vipDims {
			h.absorberAlpha[d] = buildAbsorberCoeff(base.Grid.Interior, 2, d, base.Cfg.VabCoefficient)
		}
	}
	return h
}

// Pressure exposes the pressure layer, e.g. for tests inspecting Phi or
// Iterations.
func (h *RhsVip) Pressure() *PressureSolver { return h.pressure }

// EnableForcing wires the buoyancy/drag forcing described by spec into
// this layer, allocating its scratch tendency arrays. Passing it again
// replaces any previously configured spec.
func (h *RhsVip) EnableForcing(spec ForcingSpec) {
	h.forcing = &spec
	interior := h.base.Grid.Interior
	const halo = 2
	h.buoyancyScratch = field.New(vectorRanges(interior, halo, spec.BuoyancyDim)...)
	h.dragScratch = make([]*field.Field, len(h.vipDims))
	for d := range h.vipDims {
		h.dragScratch[d] = field.New(vectorRanges(interior, halo, d)...)
	}
}

func buildAbsorberCoeff(interior []field.Range, halo, dim int, profile []float64) *field.Field {
	f := field.New(vectorRanges(interior, halo, dim)...)
	lastDim := len(interior) - 1
	field.Each(fieldRanges(f), func(idx []int) {
		k := idx[lastDim]
		if k < 0 {
			k = 0
		}
		if k >= len(profile) {
			k = len(profile) - 1
		}
		f.Set(profile[k], idx...)
	})
	return f
}

func (h *RhsVip) vipFields() []*field.Field {
	out := make([]*field.Field, len(h.vipDims))
	for d, e := range h.vipDims {
		out[d] = h.base.Mem.State(e)
	}
	return out
}

// AnteStep implements Hooks: extrapolates GC (if VarGC), applies the
// pressure correction computed by the previous step's PostStep, then the
// velocity absorber.
func (h *RhsVip) AnteStep(s *Base, rank int, slab field.Range) error {
	s.ParentAnteStep(rank)

	if h.VarGC {
		h.extrapolateGC(rank)
	}
	h.applyForcing(rank, 0.5*s.stepDt())
	h.applyPressureCorrection(rank)
	h.applyAbsorber(rank)
	return nil
}

// PostStep implements Hooks: completes the trapezoidal forcing half-step
// (spec §4.6's "post_step does the half-step post-add"), then drives the
// elliptic pressure projection on the provisional VIP velocities,
// leaving the correction in h.pressure's Tmp arrays for the next step's
// AnteStep to apply -- the same ordering mpdata_rhs_vip_prs_2d_common.hpp
// uses (forcings strictly before the pressure solve).
func (h *RhsVip) PostStep(s *Base, rank int, slab field.Range) error {
	s.ParentPostStep(rank)
	h.applyForcing(rank, 0.5*s.stepDt())
	return h.pressure.Update(rank, h.vipFields())
}

// applyForcing adds halfDt times the configured buoyancy/drag tendency
// into the VIP velocities; a no-op when no ForcingSpec has been
// enabled.
func (h *RhsVip) applyForcing(rank int, halfDt float64) {
	fs := h.forcing
	if fs == nil {
		return
	}
	s := h.base

	if fs.ThtEqn >= 0 {
		d := fs.BuoyancyDim
		e := h.vipDims[d]
		fr := s.eqnRanges(rank, e)
		tht := s.Mem.State(fs.ThtEqn)
		formulae.Buoyancy(h.buoyancyScratch, tht, d, fr, fs.G, fs.ThtRef)
		cur := s.Mem.State(e)
		field.Each(fr, func(idx []int) {
			cur.Add(halfDt*h.buoyancyScratch.At(idx...), idx...)
		})
	}

	if fs.CDrag != 0 {
		for d, e := range h.vipDims {
			fr := s.eqnRanges(rank, e)
			cur := s.Mem.State(e)
			formulae.Drag(h.dragScratch[d], cur, fr, fs.CDrag)
			field.Each(fr, func(idx []int) {
				cur.Add(halfDt*h.dragScratch[d].At(idx...), idx...)
			})
		}
	}
}

// extrapolateGC sets GC[d] from a linear extrapolation of the VIP
// velocity at the current and previous time levels to time+dt/2,
// converted to a Courant number via dt/spacing[d]. Each dimension's
// write is followed by a halo exchange: DonorCellUpdate/
// AntidiffusiveVelocity read GC one cell beyond the interior (spec
// §4.3), and since GC is otherwise only ever written on each worker's
// own interior slab, its halo would stay stale/zero at every cyclic or
// physical boundary without this.
func (h *RhsVip) extrapolateGC(rank int) {
	s := h.base
	spacing := s.Cfg.Spacing()
	for d, e := range h.vipDims {
		cur := s.Mem.State(e)
		prev := s.Mem.StateAt(e, 1)
		gc := s.Mem.GC[d]
		factor := s.stepDt() / spacing[d]

		fr := s.eqnRanges(rank, e)
		field.Each(fr, func(idx []int) {
			uHalf := 1.5*cur.At(idx...) - 0.5*prev.At(idx...)
			gc.Set(uHalf*factor, idx...)
		})
		s.xchngVector(rank, s.Mem.GC, d)
	}
}

// applyPressureCorrection adds the velocity-correction temporaries from
// the previous step's pressure solve into the current VIP velocities
// (spec §4.5's "Apply" step).
func (h *RhsVip) applyPressureCorrection(rank int) {
	s := h.base
	for d, e := range h.vipDims {
		cur := s.Mem.State(e)
		tmp := h.pressure.Tmp(d)

		fr := s.eqnRanges(rank, e)
		field.Each(fr, func(idx []int) {
			cur.Add(tmp.At(idx...), idx...)
		})
	}
}

// applyAbsorber relaxes each VIP velocity toward absorberTarget over its
// sponge layer; a no-op for dimensions without a configured coefficient.
func (h *RhsVip) applyAbsorber(rank int) {
	s := h.base
	for d, e := range h.vipDims {
		alpha := h.absorberAlpha[d]
		if alpha == nil {
			continue
		}
		cur := s.Mem.State(e)

		fr := s.eqnRanges(rank, e)
		formulae.Absorber(cur, alpha, h.absorberTarget, s.stepDt(), fr)
	}
}
