package solver

import "github.com/spatialmodel/mpdatago/field"

// fieldRanges returns f's own per-dimension ranges.
func fieldRanges(f *field.Field) []field.Range {
	out := make([]field.Range, f.NDims())
	for d := range out {
		out[d] = f.Range(d)
	}
	return out
}

// courant returns max|GC|, reduced deterministically across every worker.
// Every dimension but the outermost is covered over its full range
// including halo; in the outermost dimension each worker covers only its
// own interior slab, so the halo faces of that dimension are not included.
func (s *Base) courant(rank int) float64 {
	var max float64
	for _, gc := range s.Mem.GC {
		ranges := fieldRanges(gc)
		m := s.Mem.MaxAbs(rank, gc, ranges...)
		if m > max {
			max = m
		}
	}
	return max
}

// applyAdaptiveDt implements spec §4.4 step 1: when Cfg.Dt is zero, the
// Courant number of the current GC is measured, dt is rescaled so the
// new maximum Courant number equals Cfg.MaxCourant, and GC is rescaled by
// the same factor so it continues to represent the Courant number for
// the new dt. A no-op when Cfg.Dt is fixed. Each dimension's rescale
// only ever writes its own worker's slab in the outermost dimension, so
// that dimension's GC halo is left stale after the rescale; it is
// refreshed by a halo exchange the same way extrapolateGC refreshes GC
// after writing it. The step size itself is a single shared value, so
// rank 0 alone rescales it and a barrier publishes it to every worker.
func (s *Base) applyAdaptiveDt(rank int) {
	if s.Cfg.Dt != 0 {
		return
	}
	if s.adaptiveDt == 0 {
		s.adaptiveDt = s.Cfg.MaxCourant
	}
	maxC := s.courant(rank)
	if maxC <= s.Cfg.MaxAbsDivEps {
		return
	}
	factor := s.Cfg.MaxCourant / maxC
	for d, gc := range s.Mem.GC {
		ranges := fieldRanges(gc)
		ranges[0] = s.restrictSlabRange(rank, ranges[0])
		field.Each(ranges, func(idx []int) {
			gc.Set(gc.At(idx...)*factor, idx...)
		})
		s.xchngVector(rank, s.Mem.GC, d)
	}
	if rank == 0 {
		s.adaptiveDt *= factor
	}
	s.Mem.Barrier()
}

// restrictSlabRange intersects r with the worker's slab of the outermost
// dimension, so each grid point's GC is rescaled exactly once.
func (s *Base) restrictSlabRange(rank int, r field.Range) field.Range {
	slab := s.Mem.Slab(rank)
	lo, hi := r.Lo, r.Hi
	if slab.Lo > lo {
		lo = slab.Lo
	}
	if slab.Hi < hi {
		hi = slab.Hi
	}
	return field.Rng(lo, hi)
}
