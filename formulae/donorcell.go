// Package formulae implements the stateless numerical kernels shared by
// every solver layer: the donor-cell flux and update, the MPDATA
// antidiffusive velocity (with optional flux-corrected-transport clip),
// and the gradient/divergence/Laplacian operators the pressure solver
// needs. None of these kernels hold state or talk to shared memory --
// they operate on the field.Field views and ranges their caller passes in,
// the way science.go's UpwindAdvection computes a flux from its
// neighbors' concentrations without owning the grid itself.
package formulae

import "github.com/spatialmodel/mpdatago/field"

// MaxAbsDivEps is the default guard against division by (near-)zero
// denominators in the antidiffusive-velocity and pressure-solver formulae
// (spec §6, max_abs_div_eps), sized the way the source picks
// blitz::epsilon(real_t(44)): a small multiple of machine epsilon.
const MaxAbsDivEps = 44 * 2.220446049250313e-16

// DonorCellFlux returns the donor-cell (first-order upwind) flux across a
// face with signed Courant number c, given the scalar values on the left
// (psiL) and right (psiR) of the face.
func DonorCellFlux(psiL, psiR, c float64) float64 {
	return maxf(c, 0)*psiL + minf(c, 0)*psiR
}

// DonorCellUpdate advances psiOut = psiIn - sum_d [F_{i+1/2} - F_{i-1/2}]
// over the interior ranges, using the staggered Courant-number fields gc
// (one per dimension). psiIn and psiOut may be the same field only if the
// caller resolves aliasing (they are not, in this solver: MPDATA always
// writes into the ring's next slot).
func DonorCellUpdate(psiOut, psiIn *field.Field, gc []*field.Field, interior []field.Range) {
	field.Each(interior, func(idx []int) {
		val := psiIn.At(idx...)
		for d, r := range interior {
			left := append([]int(nil), idx...)
			right := append([]int(nil), idx...)
			faceLo := append([]int(nil), idx...)
			faceHi := append([]int(nil), idx...)
			left[d] = idx[d] - 1
			right[d] = idx[d] + 1
			faceLo[d] = idx[d] - 1 // face i-1/2 stored at index i-1 of the staggered array
			faceHi[d] = idx[d]     // face i+1/2 stored at index i

			cHi := gc[d].At(faceHi...)
			cLo := gc[d].At(faceLo...)

			fHi := DonorCellFlux(psiIn.At(idx...), psiIn.At(right...), cHi)
			fLo := DonorCellFlux(psiIn.At(left...), psiIn.At(idx...), cLo)

			val -= fHi - fLo
			_ = r
		}
		psiOut.Set(val, idx...)
	})
}

// AntidiffusiveVelocity computes, for dimension d, the corrective Courant
// number
//
//	C* = (|C| - C^2) * (psi_{i+1} - psi_i) / (psi_{i+1} + psi_i + eps)
//
// storing the result into gcStar over ranges (face indices in dimension d,
// scalar indices in every other dimension). Cross-derivative
// terms from other dimensions (spec §4.3) are omitted -- see DESIGN.md for
// why a dimensionally-split antidiffusive velocity is used here.
func AntidiffusiveVelocity(gcStar, gc, psi *field.Field, d int, ranges []field.Range, eps float64) {
	field.Each(ranges, func(idx []int) {
		right := append([]int(nil), idx...)
		right[d] = idx[d] + 1

		c := gc.At(idx...)
		pL := psi.At(idx...)
		pR := psi.At(right...)

		denom := pR + pL + eps
		cStar := (absf(c) - c*c) * (pR - pL) / denom
		gcStar.Set(cStar, idx...)
	})
}

// FCTClip clamps the antidiffusive Courant number gcStar on the staggered
// range so that the corrective donor-cell pass driven by it cannot create
// a value outside the range spanned by psi's neighbors at each point --
// the flux-corrected-transport non-oscillatory constraint from spec
// §4.3 step 3.
func FCTClip(gcStar, psi *field.Field, d int, ranges []field.Range) {
	field.Each(ranges, func(idx []int) {
		right := append([]int(nil), idx...)
		right[d] = idx[d] + 1

		pL := psi.At(idx...)
		pR := psi.At(right...)

		c := gcStar.At(idx...)
		if c > 0 && pR < pL {
			c = 0
		}
		if c < 0 && pL < pR {
			c = 0
		}
		gcStar.Set(c, idx...)
	})
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absf(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
