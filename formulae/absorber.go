package formulae

import "github.com/spatialmodel/mpdatago/field"

// Absorber relaxes a velocity field toward a target state over a sponge
// layer: u <- u + dt*alpha(x)*(target - u), where alpha is a spatially
// varying coefficient field (spec §4.6, vab_coefficient/vab_relaxed_state;
// supplemented per SPEC_FULL.md §C.4).
func Absorber(u, alpha *field.Field, target, dt float64, ranges []field.Range) {
	field.Each(ranges, func(idx []int) {
		a := alpha.At(idx...)
		if a == 0 {
			return
		}
		v := u.At(idx...)
		u.Set(v+dt*a*(target-v), idx...)
	})
}
