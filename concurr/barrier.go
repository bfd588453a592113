// Package concurr provides the shared-memory substrate used by the solver:
// the field/advector/scratch storage shared across worker goroutines, a
// reusable barrier, and deterministic cross-worker reductions. It plays the
// role the teacher's goroutine-per-slab pattern in run.go's Calculations
// plays for per-cell work, generalized here to per-slab PDE work that needs
// synchronization points between phases instead of running to completion
// independently.
package concurr

import "sync"

// Barrier is a reusable cyclic barrier for a fixed number of parties,
// built on sync.Cond since none of the reference libraries in this pack
// provide a multi-use barrier primitive (DESIGN.md).
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation uint64
}

// NewBarrier returns a Barrier for the given number of parties.
func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all parties have called Wait for the current
// generation, then releases them all together.
func (b *Barrier) Wait() {
	b.mu.Lock()
	gen := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
	} else {
		for gen == b.generation {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
}
