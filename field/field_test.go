package field

import "testing"

func TestRangeWidenVec(t *testing.T) {
	r := Rng(0, 9)
	if w := r.Widen(2); w.Lo != -2 || w.Hi != 11 {
		t.Errorf("Widen(2) = %v, want [-2:11]", w)
	}
	if v := r.Vec(); v.Lo != 0 || v.Hi != 8 {
		t.Errorf("Vec() = %v, want [0:8]", v)
	}
	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}
}

func TestFieldNegativeBase(t *testing.T) {
	// a 1-D field of size 10 with halo 2, so valid indices run -2..11.
	f := New(Rng(-2, 11))
	for i := -2; i <= 11; i++ {
		f.Set(float64(i), i)
	}
	for i := -2; i <= 11; i++ {
		if got := f.At(i); got != float64(i) {
			t.Errorf("At(%d) = %v, want %v", i, got, i)
		}
	}
}

func Test2DRowMajorOrder(t *testing.T) {
	f := New(Rng(0, 1), Rng(0, 2))
	n := 0
	f.ForEach(func(idx []int) {
		f.Set(float64(n), idx...)
		n++
	})
	// row-major: last dim fastest, so (0,0)=0 (0,1)=1 (0,2)=2 (1,0)=3 ...
	want := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	for i, idx := range want {
		if got := f.At(idx[0], idx[1]); got != float64(i) {
			t.Errorf("At%v = %v, want %v", idx, got, i)
		}
	}
}

func TestSumMaxAbs(t *testing.T) {
	f := New(Rng(0, 3))
	for i := 0; i <= 3; i++ {
		f.Set(float64(i-2), i)
	}
	if s := f.Sum(Rng(0, 3)); s != -2 {
		t.Errorf("Sum = %v, want -2", s)
	}
	if m := f.MaxAbs(Rng(0, 3)); m != 2 {
		t.Errorf("MaxAbs = %v, want 2", m)
	}
}
