package solver

import "github.com/spatialmodel/mpdatago/field"

// ScalarHooks is the Hooks implementation for a pure advection problem:
// no VIP velocities, no pressure coupling, no absorber. It exists for
// callers (and the cmd/mpdata demo driver) that only need MPDATA
// transport of one or more passive scalars against a prescribed GC.
type ScalarHooks struct{}

func (ScalarHooks) AnteStep(s *Base, rank int, slab field.Range) error {
	s.ParentAnteStep(rank)
	return nil
}

func (ScalarHooks) PostStep(s *Base, rank int, slab field.Range) error {
	s.ParentPostStep(rank)
	return nil
}
