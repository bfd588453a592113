package formulae

import "github.com/spatialmodel/mpdatago/field"

// Buoyancy computes the face-centered buoyancy tendency
//
//	g * (tht - thtRef) / thtRef
//
// for a VIP velocity staggered along dimension d, averaging the
// cell-centered potential-temperature field tht onto that face —
// the coupling pbl.cpp wires between its tht and w equations via the
// rt_params_t fields g and Tht_ref.
func Buoyancy(out, tht *field.Field, d int, ranges []field.Range, g, thtRef float64) {
	field.Each(ranges, func(idx []int) {
		right := append([]int(nil), idx...)
		right[d] = idx[d] + 1
		avg := 0.5 * (tht.At(idx...) + tht.At(right...))
		out.Set(g*(avg-thtRef)/thtRef, idx...)
	})
}

// Drag computes a quadratic-drag tendency -cdrag*|u|*u for a VIP
// velocity component, matching pbl.cpp's cdrag parameter (zero disables
// drag entirely, writing a zeroed tendency).
func Drag(out, u *field.Field, ranges []field.Range, cdrag float64) {
	field.Each(ranges, func(idx []int) {
		if cdrag == 0 {
			out.Set(0, idx...)
			return
		}
		v := u.At(idx...)
		out.Set(-cdrag*absf(v)*v, idx...)
	})
}
