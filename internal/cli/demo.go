package cli

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/mpdatago/bcond"
	"github.com/spatialmodel/mpdatago/config"
	"github.com/spatialmodel/mpdatago/field"
	"github.com/spatialmodel/mpdatago/solver"
)

// Equation selects which of the two built-in problem setups run wires
// up: a passive-scalar advection test case, or the full RHS+VIP
// pressure-coupled velocity case.
type Equation string

const (
	EquationAdvect Equation = "advect"
	EquationVIP    Equation = "vip"
)

// buildSolver assembles a Base (and, for the vip equation, its RhsVip
// hooks) over cfg, seeds a reproducible smoke-test initial condition (for
// advect, a cosine-bell scalar carried by a constant Courant number along
// dimension 0; for vip, the same cosine bell in every velocity
// component), and returns the ready-to-Advance Base.
func buildSolver(cfg config.Config, eqn Equation, log *logrus.Entry) (*solver.Base, error) {
	nDims := cfg.NDims()
	kinds := make([][2]bcond.Kind, nDims)
	for d := range kinds {
		kinds[d] = [2]bcond.Kind{bcond.Cyclic, bcond.Cyclic}
	}

	switch eqn {
	case EquationAdvect:
		eqns := []solver.EqnSpec{{Name: "psi", VIPDim: -1}}
		s, err := solver.New(cfg, kinds, eqns, solver.ScalarHooks{}, log)
		if err != nil {
			return nil, err
		}
		seedCosineBell(s.Mem.State(0), s.Grid.Interior)
		seedRotatingGC(s, cfg)
		return s, nil

	case EquationVIP:
		eqns := make([]solver.EqnSpec, nDims)
		vipDims := make([]int, nDims)
		for d := 0; d < nDims; d++ {
			eqns[d] = solver.EqnSpec{Name: fmt.Sprintf("v%d", d), VIPDim: d}
			vipDims[d] = d
		}
		hooks := &placeholderHooks{}
		s, err := solver.New(cfg, kinds, eqns, hooks, log)
		if err != nil {
			return nil, err
		}
		rv := solver.NewRhsVip(s, vipDims, true)
		s.Hooks = rv
		for d := 0; d < nDims; d++ {
			seedCosineBell(s.Mem.State(d), s.Grid.Interior)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("cli: unknown equation %q (want %q or %q)", eqn, EquationAdvect, EquationVIP)
	}
}

// placeholderHooks lets buildSolver allocate a Base before it has a
// RhsVip to hand it (RhsVip itself needs the Base to exist first); it
// is overwritten before Advance ever runs.
type placeholderHooks struct{}

func (placeholderHooks) AnteStep(s *solver.Base, rank int, slab field.Range) error {
	s.ParentAnteStep(rank)
	return nil
}

func (placeholderHooks) PostStep(s *solver.Base, rank int, slab field.Range) error {
	s.ParentPostStep(rank)
	return nil
}

// seedCosineBell fills psi with a smooth bump centered in the domain, a
// standard MPDATA smoke-test initial condition.
func seedCosineBell(psi *field.Field, interior []field.Range) {
	centers := make([]float64, len(interior))
	radii := make([]float64, len(interior))
	for d, r := range interior {
		centers[d] = float64(r.Lo+r.Hi) / 2
		radii[d] = float64(r.Hi-r.Lo+1) / 4
	}
	field.Each(interior, func(idx []int) {
		var s float64
		for d, i := range idx {
			dist := (float64(i) - centers[d]) / radii[d]
			s += dist * dist
		}
		r := math.Sqrt(s)
		if r >= 1 {
			psi.Set(0, idx...)
			return
		}
		psi.Set(0.5*(1+math.Cos(math.Pi*r)), idx...)
	})
}

// seedRotatingGC prescribes a constant-Courant translation along
// dimension 0, the simplest GC that exercises cyclic wraparound.
func seedRotatingGC(s *solver.Base, cfg config.Config) {
	c := 0.2
	field.Each(fieldRanges(s.Mem.GC[0]), func(idx []int) {
		s.Mem.GC[0].Set(c, idx...)
	})
}

func fieldRanges(f *field.Field) []field.Range {
	ranges := make([]field.Range, f.NDims())
	for d := 0; d < f.NDims(); d++ {
		ranges[d] = f.Range(d)
	}
	return ranges
}
