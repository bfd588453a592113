package solver

import (
	"math"
	"testing"

	"github.com/spatialmodel/mpdatago/bcond"
	"github.com/spatialmodel/mpdatago/config"
	"github.com/spatialmodel/mpdatago/field"
)

// newForcingTestBase builds a 2-D {u, w, tht} solver the way pbl.cpp
// wires its n_eqns=4 3-D case down to the minimal {vip_i=u, vip_k=w,
// tht} coupling this test exercises.
func newForcingTestBase(t *testing.T, n int) (*Base, *RhsVip) {
	t.Helper()
	cfg := config.Default()
	cfg.GridSize = []int{n, n}
	cfg.Dt = 0.01
	cfg.Di, cfg.Dj = 1, 1
	cfg.NIters = 1
	cfg.NWorkers = 1
	cfg.G = 10
	cfg.ThtRef = 300
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
	kinds := [][2]bcond.Kind{{bcond.Cyclic, bcond.Cyclic}, {bcond.Cyclic, bcond.Cyclic}}
	eqns := []EqnSpec{
		{Name: "u", VIPDim: 0},
		{Name: "w", VIPDim: 1},
		{Name: "tht", VIPDim: -1},
	}
	s, err := New(cfg, kinds, eqns, ScalarHooks{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rv := NewRhsVip(s, []int{0, 1}, false)
	rv.EnableForcing(ForcingSpec{ThtEqn: 2, BuoyancyDim: 1, G: cfg.G, ThtRef: cfg.ThtRef})
	s.Hooks = rv
	return s, rv
}

// TestBuoyancyAcceleratesWarmAirUpward exercises spec §1's "slow
// forcings (buoyancy, drag)": a patch warmer than Tht_ref should gain
// positive vertical (w) velocity after one step's forcing half-steps,
// mirroring pbl.cpp's tht/w coupling.
func TestBuoyancyAcceleratesWarmAirUpward(t *testing.T) {
	s, rv := newForcingTestBase(t, 8)

	tht := s.Mem.State(2)
	field.Each(fieldRangesOf(tht), func(idx []int) {
		tht.Set(300, idx...) // ambient everywhere...
	})
	tht.Set(310, 3, 3) // ...except one warm cell.

	w := s.Mem.State(1)
	w.Fill(0)
	u := s.Mem.State(0)
	u.Fill(0)

	rv.applyForcing(0, 0.5*s.stepDt())

	// the face above the warm cell (vip index (3,3), face j+1/2 of that
	// cell in dimension 1) should now have positive w.
	if got := w.At(3, 3); got <= 0 {
		t.Errorf("w(3,3) after buoyancy half-step = %v, want > 0", got)
	}
}

func TestDragDampensVelocity(t *testing.T) {
	s, rv := newForcingTestBase(t, 8)
	rv.EnableForcing(ForcingSpec{ThtEqn: -1, CDrag: 0.5})

	u := s.Mem.State(0)
	u.Fill(2)
	w := s.Mem.State(1)
	w.Fill(0)

	rv.applyForcing(0, 0.5*s.stepDt())

	if got := u.At(2, 2); got >= 2 {
		t.Errorf("u(2,2) after drag half-step = %v, want < 2 (damped)", got)
	}
}

// TestVarGCHaloExchanged exercises the RHS+VIP pathway (VarGC=true) on a
// cyclic boundary: extrapolateGC must halo-exchange GC after writing it,
// or every donor-cell read one cell beyond the interior (spec §4.3) sees
// the stale/zero value GC starts with instead of the wrapped Courant
// number.
func TestVarGCHaloExchanged(t *testing.T) {
	cfg := config.Default()
	cfg.GridSize = []int{8}
	cfg.Dt = 1
	cfg.Di = 1
	cfg.NIters = 1
	cfg.NWorkers = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
	kinds := [][2]bcond.Kind{{bcond.Cyclic, bcond.Cyclic}}
	eqns := []EqnSpec{
		{Name: "u", VIPDim: 0},
		{Name: "psi", VIPDim: -1},
	}
	s, err := New(cfg, kinds, eqns, ScalarHooks{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rv := NewRhsVip(s, []int{0}, true)
	s.Hooks = rv

	for _, lvl := range s.Mem.Psi[0] {
		lvl.Fill(2)
	}
	s.Mem.Psi[1][0].Fill(1)

	if err := s.Advance(1); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	const want = 2.0 // uHalf=2, factor=dt/di=1, constant everywhere including the wrap
	if got := s.Mem.GC[0].At(-1); math.Abs(got-want) > 1e-9 {
		t.Errorf("GC[0](-1) (left halo, wraps to the right boundary) = %v, want %v", got, want)
	}
	if got := s.Mem.GC[0].At(8); math.Abs(got-want) > 1e-9 {
		t.Errorf("GC[0](8) (right halo, wraps to the left boundary) = %v, want %v", got, want)
	}
}

func fieldRangesOf(f *field.Field) []field.Range {
	out := make([]field.Range, f.NDims())
	for d := 0; d < f.NDims(); d++ {
		out[d] = f.Range(d)
	}
	return out
}
