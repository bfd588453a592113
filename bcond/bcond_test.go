package bcond

import (
	"testing"

	"github.com/spatialmodel/mpdatago/field"
)

func TestCyclicPingPong1D(t *testing.T) {
	const halo = 2
	interior := field.Rng(0, 9)
	g := NewGrid([]field.Range{interior}, halo, [][2]Kind{{Cyclic, Cyclic}})

	a := field.New(interior.Widen(halo))
	for i := 0; i <= 9; i++ {
		a.Set(float64(i), i)
	}

	g.FillHalosScalar(a)

	want := map[int]float64{-2: 8, -1: 9, 10: 0, 11: 1}
	for idx, w := range want {
		if got := a.At(idx); got != w {
			t.Errorf("a(%d) = %v, want %v", idx, got, w)
		}
	}
}

func TestRigidMirrorHalo(t *testing.T) {
	const halo = 1
	interior := field.Rng(0, 4)
	g := NewGrid([]field.Range{interior}, halo, [][2]Kind{{Rigid, Rigid}})

	a := field.New(interior.Widen(halo))
	for i := 0; i <= 4; i++ {
		a.Set(float64(i), i)
	}
	g.FillHalosScalar(a)

	if got := a.At(-1); got != 0 {
		t.Errorf("left mirror halo a(-1) = %v, want 0", got)
	}
	if got := a.At(5); got != 4 {
		t.Errorf("right mirror halo a(5) = %v, want 4", got)
	}
}

func TestSetEdgePressureWithVelocity(t *testing.T) {
	const halo = 1
	interior := field.Rng(0, 4)
	g := NewGrid([]field.Range{interior}, halo, [][2]Kind{{Rigid, Rigid}})

	tmp := field.New(interior.Widen(halo))
	v := field.New(interior.Widen(halo))
	v.Set(1.5, 0)
	v.Set(-2.5, 4)

	g.SetEdgePressureVelocity([]*field.Field{tmp}, []*field.Field{v})

	if got := tmp.At(0); got != -1.5 {
		t.Errorf("tmp(0) = %v, want -1.5 (so v+tmp=0 at left wall)", got)
	}
	if got := tmp.At(4); got != 2.5 {
		t.Errorf("tmp(4) = %v, want 2.5 (so v+tmp=0 at right wall)", got)
	}
}

func TestCornerFillOrder2D(t *testing.T) {
	const halo = 1
	ix := field.Rng(0, 3)
	iy := field.Rng(0, 3)
	g := NewGrid([]field.Range{ix, iy}, halo, [][2]Kind{{Cyclic, Cyclic}, {Cyclic, Cyclic}})

	a := field.New(ix.Widen(halo), iy.Widen(halo))
	for i := 0; i <= 3; i++ {
		for j := 0; j <= 3; j++ {
			a.Set(float64(i*10+j), i, j)
		}
	}
	g.FillHalosScalar(a)

	// corner (-1,-1) should cyclically wrap to the opposite interior
	// corner (3,3).
	if got := a.At(-1, -1); got != 33 {
		t.Errorf("corner a(-1,-1) = %v, want 33", got)
	}
	if got := a.At(4, 4); got != 0 {
		t.Errorf("corner a(4,4) = %v, want 0", got)
	}
}
