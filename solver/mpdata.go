package solver

import (
	"github.com/spatialmodel/mpdatago/field"
	"github.com/spatialmodel/mpdatago/formulae"
)

// faceRange returns the per-dimension range of face indices dimension d's
// donor-cell pass reads from: one face beyond the interior on the low
// side (idx-1 for the leftmost interior cell) through the last interior
// index (idx for the rightmost cell), each already covered by the GC/
// gcStar arrays' halo.
func (s *Base) faceRange(d int) []field.Range {
	out := append([]field.Range(nil), s.Grid.Interior...)
	lo, hi := out[d].Lo, out[d].Hi
	out[d] = field.Rng(lo-1, hi)
	return out
}

// advop implements spec §4.3's MPDATA step for equation e: a donor-cell
// pass using GC into the ring's next slot, followed by NIters-1
// corrective antidiffusive passes with optional FCT clipping. Each
// corrective pass after the first treats the previous pass's antidiffusive
// Courant field as its own base, cascading higher-order corrections
// (spec §4.3 step 2's "swapping the roles of full and scratch GC") rather
// than re-deriving every pass from the original physical GC; gcStar and
// gcStar2 ping-pong in the base-gc/output-gc roles across passes so no
// pass ever reads and writes the same field. The antidiffusive-velocity/
// FCT computation (cheap relative to the donor-cell update itself) is
// done by rank 0 over the whole domain rather than partitioned per slab,
// avoiding the boundary-face ownership bookkeeping a staggered per-rank
// split would otherwise need (see DESIGN.md); the donor-cell update that
// follows remains fully parallel across ranks.
func (s *Base) advop(rank int, e int) error {
	cur := s.Mem.State(e)
	next := s.Mem.StateAt(e, -1)
	ranges := s.eqnRanges(rank, e)

	formulae.DonorCellUpdate(next, cur, s.Mem.GC, ranges)

	if s.Cfg.NIters < 2 {
		return nil
	}

	nDims := s.Cfg.NDims()
	src, dst := next, s.corrScratch
	gcBufs := [2][]*field.Field{s.gcStar, s.gcStar2}
	gcBase := s.Mem.GC
	bufIdx := 0
	for k := 2; k <= s.Cfg.NIters; k++ {
		s.xchng(rank, src)

		gcNext := gcBufs[bufIdx]
		s.Mem.Barrier()
		if rank == 0 {
			for d := 0; d < nDims; d++ {
				fr := s.faceRange(d)
				formulae.AntidiffusiveVelocity(gcNext[d], gcBase[d], src, d, fr, s.Cfg.MaxAbsDivEps)
				if s.Cfg.FCT {
					formulae.FCTClip(gcNext[d], src, d, fr)
				}
			}
		}
		s.Mem.Barrier()

		formulae.DonorCellUpdate(dst, src, gcNext, ranges)
		s.Mem.Barrier()
		src, dst = dst, src

		gcBase = gcNext
		bufIdx = 1 - bufIdx
	}

	if src != next {
		next.CopyFrom(src)
	}
	return nil
}
