package concurr

import (
	"sync"
	"testing"

	"github.com/spatialmodel/mpdatago/field"
)

func TestCycleRotation(t *testing.T) {
	m := New(1, 2, 1, 1)
	if m.N[0] != -2 {
		t.Fatalf("initial N[0] = %d, want -2", m.N[0])
	}
	m.Cycle(0)
	m.Cycle(0)
	if m.N[0] != -2 {
		t.Errorf("after two cycles with n_tlev=2, N[0] = %d, want -2", m.N[0])
	}
}

func TestBarrierReleasesAllParties(t *testing.T) {
	const p = 8
	b := NewBarrier(p)
	var wg sync.WaitGroup
	var mu sync.Mutex
	arrived := 0
	wg.Add(p)
	for i := 0; i < p; i++ {
		go func() {
			defer wg.Done()
			mu.Lock()
			arrived++
			mu.Unlock()
			b.Wait()
			mu.Lock()
			if arrived != p {
				t.Errorf("goroutine proceeded past barrier before all %d parties arrived", p)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestSumDeterministicAcrossWorkers(t *testing.T) {
	const p = 4
	f := field.New(field.Rng(0, 99))
	for i := 0; i <= 99; i++ {
		f.Set(float64(i), i)
	}
	mem := New(1, 2, 1, p)
	NewRunnerForTest(mem, 0, 99, p)

	results := make([]float64, p)
	var wg sync.WaitGroup
	wg.Add(p)
	for rank := 0; rank < p; rank++ {
		go func(rank int) {
			defer wg.Done()
			results[rank] = mem.Sum(rank, f, f.Range(0))
		}(rank)
	}
	wg.Wait()

	want := f.Sum(f.Range(0))
	for rank, got := range results {
		if got != want {
			t.Errorf("worker %d Sum = %v, want %v", rank, got, want)
		}
	}
}

// NewRunnerForTest wires slab partitioning into mem without constructing a
// full Runner, for tests that only exercise SharedMem's reductions.
func NewRunnerForTest(mem *SharedMem, lo, hi, p int) {
	mem.SetSlabs(partitionSlabs(lo, hi, p))
}
