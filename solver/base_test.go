package solver

import (
	"math"
	"strings"
	"testing"

	"github.com/spatialmodel/mpdatago/bcond"
	"github.com/spatialmodel/mpdatago/config"
	"github.com/spatialmodel/mpdatago/field"
)

func newTestBase(t *testing.T, n int, nIters int, hooks Hooks) *Base {
	t.Helper()
	cfg := config.Default()
	cfg.GridSize = []int{n}
	cfg.Dt = 1
	cfg.Di = 1
	cfg.NIters = nIters
	cfg.NWorkers = 2
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	kinds := [][2]bcond.Kind{{bcond.Cyclic, bcond.Cyclic}}
	s, err := New(cfg, kinds, []EqnSpec{{Name: "psi", VIPDim: -1}}, hooks, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func fillConstantGC(s *Base, c float64) {
	field.Each(fieldRanges(s.Mem.GC[0]), func(idx []int) {
		s.Mem.GC[0].Set(c, idx...)
	})
}

func TestAdvanceConservesMassCyclic(t *testing.T) {
	s := newTestBase(t, 16, 2, ScalarHooks{})
	fillConstantGC(s, 0.3)

	cur := s.Mem.State(0)
	var before float64
	for i := 0; i < 16; i++ {
		v := math.Sin(float64(i)) + 2
		cur.Set(v, i)
		before += v
	}

	if err := s.Advance(1); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	after := s.Mem.State(0)
	var sum float64
	for i := 0; i < 16; i++ {
		sum += after.At(i)
	}
	if math.Abs(sum-before) > 1e-9 {
		t.Errorf("mass not conserved: before=%v after=%v", before, sum)
	}
	if s.Timestep != 1 {
		t.Errorf("Timestep = %d, want 1", s.Timestep)
	}
}

func TestAdvancePositiveDefinite(t *testing.T) {
	s := newTestBase(t, 16, 3, ScalarHooks{})
	fillConstantGC(s, 0.4)

	cur := s.Mem.State(0)
	for i := 0; i < 16; i++ {
		if i == 5 {
			cur.Set(0, i)
			continue
		}
		cur.Set(float64(i%4+1), i)
	}

	if err := s.Advance(5); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	final := s.Mem.State(0)
	for i := 0; i < 16; i++ {
		if v := final.At(i); v < -1e-9 {
			t.Errorf("final(%d) = %v, want >= 0", i, v)
		}
	}
}

func TestNIters1ReproducesDonorCell(t *testing.T) {
	sMP := newTestBase(t, 10, 1, ScalarHooks{})
	fillConstantGC(sMP, 0.5)
	cur := sMP.Mem.State(0)
	for i := 0; i < 10; i++ {
		cur.Set(float64(i), i)
	}
	if err := sMP.Advance(1); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	// Hand-compute the expected pure donor-cell update with the same
	// constant Courant number and cyclic wrap.
	vals := make([]float64, 10)
	for i := range vals {
		vals[i] = float64(i)
	}
	want := make([]float64, 10)
	c := 0.5
	for i := 0; i < 10; i++ {
		left := (i - 1 + 10) % 10
		fHi := c * vals[i]
		fLo := c * vals[left]
		want[i] = vals[i] - (fHi - fLo)
	}
	got := sMP.Mem.State(0)
	for i := 0; i < 10; i++ {
		if math.Abs(got.At(i)-want[i]) > 1e-9 {
			t.Errorf("got(%d) = %v, want %v", i, got.At(i), want[i])
		}
	}
}

// TestCascadingCorrectivePasses exercises spec §4.3 step 2's "swapping
// the roles of full and scratch GC": each corrective pass after the
// first must feed the previous pass's antidiffusive Courant field
// forward as its own base, not always re-derive from the original
// physical GC. The expected values are hand-computed (matching the
// algorithm, not re-deriving it) for NIters=3, FCT disabled so the
// comparison isolates the cascading arithmetic; they differ from what a
// solver that always recomputes from the physical GC would produce.
func TestCascadingCorrectivePasses(t *testing.T) {
	s := newTestBase(t, 6, 3, ScalarHooks{})
	s.Cfg.FCT = false
	fillConstantGC(s, 0.4)

	cur := s.Mem.State(0)
	psi0 := []float64{1, 2, 0, 3, 1, 4}
	for i, v := range psi0 {
		cur.Set(v, i)
	}

	if err := s.Advance(1); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	want := []float64{
		2.1973445804638208, 1.6144805628534817, 0.615398919179664,
		1.9003542511666593, 1.6834506173000712, 2.988971069036303,
	}
	got := s.Mem.State(0)
	for i, w := range want {
		if v := got.At(i); math.Abs(v-w) > 1e-9 {
			t.Errorf("got(%d) = %v, want %v (cascaded antidiffusive GC)", i, v, w)
		}
	}
}

func TestHookContractViolationSurfacesError(t *testing.T) {
	s := newTestBase(t, 8, 1, brokenAnteStepHooks{})
	fillConstantGC(s, 0.1)
	err := s.Advance(1)
	if err == nil {
		t.Fatal("want error from hook-contract violation, got nil")
	}
	if !strings.Contains(err.Error(), "did not call Base.ParentAnteStep") {
		t.Errorf("error = %v, want hook-contract message", err)
	}
}

type brokenAnteStepHooks struct{}

func (brokenAnteStepHooks) AnteStep(s *Base, rank int, slab field.Range) error {
	return nil // forgets to call s.ParentAnteStep
}

func (brokenAnteStepHooks) PostStep(s *Base, rank int, slab field.Range) error {
	s.ParentPostStep(rank)
	return nil
}

func TestCycleReturnsToOriginalAfterNTlev(t *testing.T) {
	s := newTestBase(t, 8, 1, ScalarHooks{})
	orig := s.Mem.N[0]
	s.Mem.Cycle(0)
	s.Mem.Cycle(0)
	if s.Mem.N[0] != orig {
		t.Errorf("N[0] = %d after 2 cycles (NTlev=2), want %d", s.Mem.N[0], orig)
	}
}
