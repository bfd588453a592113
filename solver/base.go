// Package solver implements the time-step orchestrator, the MPDATA
// advection operator, the RHS+VIP forcing/absorber layer, and the
// elliptic pressure projection, composed the way the source's deeply
// templated solver stack is flattened into a single concrete struct
// dispatching through a small Hooks interface (see DESIGN.md and spec
// §9's "deep template inheritance -> layered composition" note).
package solver

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/mpdatago/bcond"
	"github.com/spatialmodel/mpdatago/concurr"
	"github.com/spatialmodel/mpdatago/config"
	"github.com/spatialmodel/mpdatago/field"
)

// Hooks injects the per-layer behavior the base orchestrator cannot know
// about on its own: velocity extrapolation and pressure-correction
// application (AnteStep), forcings and the pressure solve (PostStep).
// Every implementation's AnteStep/PostStep must call the matching
// Base.ParentAnteStep/Base.ParentPostStep as its first action -- the hook
// contract of spec §4.4, enforced in debug mode by Base.step via a
// per-worker witness flag.
type Hooks interface {
	AnteStep(s *Base, rank int, slab field.Range) error
	PostStep(s *Base, rank int, slab field.Range) error
}

// EqnSpec names one prognostic equation and, if it is a VIP (velocity)
// component, the dimension it corresponds to.
type EqnSpec struct {
	Name string
	// VIPDim is the dimension index (0-based) this equation's velocity
	// component is staggered along, or -1 if the equation is an ordinary
	// advected scalar not coupled through pressure.
	VIPDim int
}

// Base is the time-step orchestrator: shared memory, grid, boundary
// faces, the equation roster, and the hook contract. It sequences halo
// exchange, advection, and cycling identically regardless of which Hooks
// implementation is plugged in.
type Base struct {
	Mem    *concurr.SharedMem
	Runner *concurr.Runner
	Grid   *bcond.Grid
	Cfg    config.Config
	Log    *logrus.Entry
	Eqns   []EqnSpec
	Hooks  Hooks

	Timestep int
	Time     float64

	// hintScales[e] is the power-of-two exponent hintScale(e) applies
	// before advection and undoes after (spec SPEC_FULL.md §C.1); 0 is a
	// no-op and is the default for every equation.
	hintScales []int

	anteWitness []bool
	postWitness []bool

	// adaptiveDt is the current step size under adaptive-dt mode
	// (Cfg.Dt == 0); unused otherwise.
	adaptiveDt float64

	// gcStar[d] and gcStar2[d] hold the antidiffusive Courant number for
	// dimension d, recomputed each corrective MPDATA pass; the two ping-
	// pong against each other across passes so each pass after the first
	// feeds the prior pass's corrected Courant field forward as its own
	// base (spec §4.3 step 2's "swapping the roles of full and scratch
	// GC"), rather than always re-deriving from the physical s.Mem.GC.
	// corrScratch ping-pongs against the ring's next slot across
	// corrective passes.
	gcStar      []*field.Field
	gcStar2     []*field.Field
	corrScratch *field.Field

	// Debug enables the hook-contract assertions; on by design, since the
	// cost is one bool check per worker per step.
	Debug bool
}

// New allocates the shared memory, grid, and equation roster for a
// solver over cfg's domain, and constructs a Runner with cfg.NWorkers
// slab-owning goroutines (spec §6's alloc/concurrency-runner lifecycle
// step 1-2).
func New(cfg config.Config, kinds [][2]bcond.Kind, eqns []EqnSpec, hooks Hooks, log *logrus.Entry) (*Base, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	nDims := cfg.NDims()
	halo := 2 // covers both the donor-cell stencil and the antidiffusive stencil's one extra cell

	interior := make([]field.Range, nDims)
	for d, n := range cfg.GridSize {
		interior[d] = field.Rng(0, n-1)
	}
	grid := bcond.NewGrid(interior, halo, kinds)

	nWorkers := cfg.NWorkers
	if nWorkers <= 0 {
		nWorkers = runtime.GOMAXPROCS(0)
	}
	if n := interior[0].Len(); nWorkers > n {
		nWorkers = n
	}

	nTlev := 2
	mem := concurr.New(len(eqns), nTlev, nDims, nWorkers)
	for e, eq := range eqns {
		var shape []field.Range
		if eq.VIPDim >= 0 {
			shape = vectorRanges(interior, halo, eq.VIPDim)
		} else {
			shape = widenAll(interior, halo)
		}
		mem.Psi[e] = make([]*field.Field, nTlev)
		for t := range mem.Psi[e] {
			mem.Psi[e][t] = field.New(shape...)
		}
	}
	mem.GC = make([]*field.Field, nDims)
	for d := 0; d < nDims; d++ {
		mem.GC[d] = field.New(vectorRanges(interior, halo, d)...)
	}

	runner := concurr.NewRunner(mem, interior[0].Lo, interior[0].Hi, halo, nWorkers)

	gcStar := make([]*field.Field, nDims)
	gcStar2 := make([]*field.Field, nDims)
	for d := 0; d < nDims; d++ {
		gcStar[d] = field.New(vectorRanges(interior, halo, d)...)
		gcStar2[d] = field.New(vectorRanges(interior, halo, d)...)
	}
	corrScratch := field.New(widenAll(interior, halo)...)

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Base{
		Mem:         mem,
		Runner:      runner,
		Grid:        grid,
		Cfg:         cfg,
		Log:         log,
		Eqns:        eqns,
		Hooks:       hooks,
		hintScales:  make([]int, len(eqns)),
		anteWitness: make([]bool, runner.P),
		postWitness: make([]bool, runner.P),
		gcStar:      gcStar,
		gcStar2:     gcStar2,
		corrScratch: corrScratch,
		Debug:       true,
	}
	return s, nil
}

// widenAll widens every range in interior by h -- the scalar (cell
// centered) field shape.
func widenAll(interior []field.Range, h int) []field.Range {
	out := make([]field.Range, len(interior))
	for d, r := range interior {
		out[d] = r.Widen(h)
	}
	return out
}

// vectorRanges builds the staggered shape for the dim-th advective
// velocity component: widened-then-staggered in its own dimension,
// widened (scalar) in every other.
func vectorRanges(interior []field.Range, h, dim int) []field.Range {
	out := widenAll(interior, h)
	out[dim] = out[dim].Vec()
	return out
}

// rankRanges returns the interior ranges this worker computes over: the
// full grid interior in every dimension except the outermost, which is
// restricted to the worker's slab.
func (s *Base) rankRanges(rank int) []field.Range {
	out := append([]field.Range(nil), s.Grid.Interior...)
	out[0] = s.Mem.Slab(rank)
	return out
}

// eqnRanges is rankRanges narrowed to equation e's own storage shape: if
// e is a VIP velocity component, its dimension is staggered (one fewer
// point) to match the field allocated for it in New. When that
// dimension is also the slabbed dimension (0), the last worker's slab
// loses its final face the way any other per-rank staggered split would
// (see DESIGN.md).
func (s *Base) eqnRanges(rank, e int) []field.Range {
	out := s.rankRanges(rank)
	if vd := s.Eqns[e].VIPDim; vd >= 0 && out[vd].Hi == s.Grid.Interior[vd].Hi {
		out[vd] = out[vd].Vec()
	}
	return out
}

// vipRanges is eqnRanges for a staggered field known by dimension rather
// than equation index (e.g. GC[d] or the pressure layer's tmp(d)).
func (s *Base) vipRanges(rank, d int) []field.Range {
	out := s.rankRanges(rank)
	if out[d].Hi == s.Grid.Interior[d].Hi {
		out[d] = out[d].Vec()
	}
	return out
}

// SetHintScale overrides equation e's hint_scale exponent.
func (s *Base) SetHintScale(e, exp int) { s.hintScales[e] = exp }

// HintScale returns equation e's current hint_scale exponent.
func (s *Base) HintScale(e int) int { return s.hintScales[e] }

// ParentAnteStep performs the base orchestrator's own ante-step work and
// flips this worker's witness flag; Hooks.AnteStep implementations must
// call it first.
func (s *Base) ParentAnteStep(rank int) {
	s.anteWitness[rank] = true
}

// ParentPostStep performs the base orchestrator's own post-step work and
// flips this worker's witness flag; Hooks.PostStep implementations must
// call it first.
func (s *Base) ParentPostStep(rank int) {
	s.postWitness[rank] = true
}

// xchng halo-exchanges a on the current face set, bracketed by barriers
// (spec §4.7). Only rank 0 performs the actual writes, since every
// worker shares the same backing array and the halo cells touched belong
// to no worker's interior slab.
func (s *Base) xchng(rank int, a *field.Field) {
	s.Mem.Barrier()
	if rank == 0 {
		s.Grid.FillHalosScalar(a)
	}
	s.Mem.Barrier()
}

func (s *Base) xchngVector(rank int, av []*field.Field, vecDim int) {
	s.Mem.Barrier()
	if rank == 0 {
		s.Grid.FillHalosVector(av, vecDim)
	}
	s.Mem.Barrier()
}

func (s *Base) xchngPressure(rank int, a *field.Field) {
	s.Mem.Barrier()
	if rank == 0 {
		s.Grid.FillHalosPressure(a)
	}
	s.Mem.Barrier()
}

// Advance runs nt steps (spec §6's advance(nt)), returning the first
// fatal error encountered by any worker (a convergence failure or a
// hook-contract violation promoted from panic); every worker observes
// the cooperative panic flag and exits cleanly.
func (s *Base) Advance(nt int) error {
	var mu sync.Mutex
	var stepErr error
	recordErr := func(err error) {
		mu.Lock()
		if stepErr == nil {
			stepErr = err
		}
		mu.Unlock()
		s.Mem.SetPanic()
	}

	s.Log.WithFields(logrus.Fields{"from": s.Timestep, "to": nt}).Debug("solver: advancing")

	s.Runner.Run(func(rank int, slab field.Range) {
		defer func() {
			if r := recover(); r != nil {
				recordErr(fmt.Errorf("solver: worker %d panicked: %v", rank, r))
			}
		}()
		for s.Timestep < nt {
			if err := s.step(rank, slab); err != nil {
				recordErr(err)
			}
			s.Mem.Barrier()
			if s.Mem.PanicRequested() {
				return
			}
		}
	})
	return stepErr
}

// step performs one full outer-loop iteration per spec §4.4.
func (s *Base) step(rank int, slab field.Range) error {
	s.applyAdaptiveDt(rank)

	s.anteWitness[rank] = false
	if err := s.Hooks.AnteStep(s, rank, slab); err != nil {
		return err
	}
	if s.Debug && !s.anteWitness[rank] {
		panic("solver: AnteStep hook did not call Base.ParentAnteStep")
	}

	for e := range s.Eqns {
		s.applyHintScale(rank, e, slab)
	}

	for e := range s.Eqns {
		cur := s.Mem.State(e)
		s.xchng(rank, cur)
		if err := s.advop(rank, e); err != nil {
			return err
		}
		s.Mem.Barrier()
	}

	// N, Timestep and Time are single shared values, so rank 0 alone
	// updates them; the barrier publishes the rotated ring to every worker.
	if rank == 0 {
		for e := range s.Eqns {
			s.Mem.Cycle(e)
		}
	}
	s.Mem.Barrier()

	for e := range s.Eqns {
		s.undoHintScale(rank, e, slab)
	}

	if rank == 0 {
		s.Timestep++
		s.Time = float64(s.Timestep) * s.stepDt()
		s.Log.WithFields(logrus.Fields{"timestep": s.Timestep, "time": s.Time}).Debug("solver: step complete")
	}

	s.postWitness[rank] = false
	if err := s.Hooks.PostStep(s, rank, slab); err != nil {
		return err
	}
	if s.Debug && !s.postWitness[rank] {
		panic("solver: PostStep hook did not call Base.ParentPostStep")
	}
	return nil
}

func (s *Base) stepDt() float64 {
	if s.Cfg.Dt != 0 {
		return s.Cfg.Dt
	}
	return s.adaptiveDt
}

func (s *Base) applyHintScale(rank int, e int, slab field.Range) {
	exp := s.hintScales[e]
	if exp == 0 {
		return
	}
	scale := pow2(exp)
	ranges := s.eqnRanges(rank, e)
	cur := s.Mem.State(e)
	field.Each(ranges, func(idx []int) {
		cur.Set(cur.At(idx...)*scale, idx...)
	})
}

func (s *Base) undoHintScale(rank int, e int, slab field.Range) {
	exp := s.hintScales[e]
	if exp == 0 {
		return
	}
	scale := 1.0 / pow2(exp)
	ranges := s.eqnRanges(rank, e)
	cur := s.Mem.State(e)
	field.Each(ranges, func(idx []int) {
		cur.Set(cur.At(idx...)*scale, idx...)
	})
}

func pow2(exp int) float64 {
	if exp >= 0 {
		v := 1.0
		for i := 0; i < exp; i++ {
			v *= 2
		}
		return v
	}
	v := 1.0
	for i := 0; i < -exp; i++ {
		v /= 2
	}
	return v
}
