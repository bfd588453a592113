// Package config defines the runtime parameters of a solver instance
// (rt_params_t) and the validation rules construction must satisfy
// before a solver is allocated.
package config

import "fmt"

// PressureScheme selects which pseudo-time iteration the pressure
// projection layer uses to drive the divergence residual to zero.
type PressureScheme int

const (
	// PressureMinRes is the minimum-residual iteration: at each
	// pseudo-time step beta is chosen to minimise the residual norm.
	PressureMinRes PressureScheme = iota
	// PressureConjRes keeps an A-conjugate search direction across
	// iterations instead of re-deriving it from the current residual.
	PressureConjRes
	// PressureRichardson pins beta at a fixed 0.25, trading
	// convergence rate for the simplicity of a stationary iteration.
	PressureRichardson
)

// String implements fmt.Stringer so PressureScheme prints usefully in
// logs and flag help text.
func (s PressureScheme) String() string {
	switch s {
	case PressureMinRes:
		return "minres"
	case PressureConjRes:
		return "conjres"
	case PressureRichardson:
		return "richardson"
	default:
		return "unknown"
	}
}

// ParsePressureScheme maps a config/flag string onto a PressureScheme.
func ParsePressureScheme(s string) (PressureScheme, error) {
	switch s {
	case "minres", "":
		return PressureMinRes, nil
	case "conjres":
		return PressureConjRes, nil
	case "richardson":
		return PressureRichardson, nil
	default:
		return 0, fmt.Errorf("config: unknown pressure scheme %q", s)
	}
}

// Config mirrors the source's rt_params_t: the set of options recognised
// by the core engine, independent of how they were loaded (flags, a
// file, or programmatic construction in a test).
type Config struct {
	// GridSize gives the interior extent of each dimension; len(GridSize)
	// is n_dims and must be 1, 2, or 3.
	GridSize []int

	// Dt is the initial (or fixed) time step. Zero means adaptive mode,
	// which requires MaxCourant to be set.
	Dt float64

	// Di, Dj, Dk are the per-dimension cell spacings; unused trailing
	// entries for dimensions beyond NDims() are ignored.
	Di, Dj, Dk float64

	// MaxAbsDivEps guards the antidiffusive-velocity and pressure
	// denominators against division by (near) zero.
	MaxAbsDivEps float64

	// MaxCourant is the adaptive-dt target Courant number; ignored when
	// Dt is nonzero.
	MaxCourant float64

	// PrsTol is the pressure residual convergence threshold (L-infinity
	// norm of the divergence residual).
	PrsTol float64

	// NIters is the number of MPDATA passes per advop: 1 reproduces
	// pure donor-cell, >=2 adds antidiffusive corrective passes.
	NIters int

	// MaxPressureIters caps the pressure pseudo-time loop; exhaustion is
	// a fatal convergence failure, never a silent early exit.
	MaxPressureIters int

	// FCT enables flux-corrected-transport clipping of the antidiffusive
	// Courant number before each corrective pass.
	FCT bool

	// PressureScheme selects the pseudo-time iteration variant.
	PressureScheme PressureScheme

	// VabCoefficient and VabRelaxedState parametrize the optional
	// velocity absorber (sponge layer): alpha(x) and the target value
	// velocities relax toward. A nil VabCoefficient disables the
	// absorber entirely.
	VabCoefficient  []float64
	VabRelaxedState float64

	// G, ThtRef, and CDrag hold pbl.cpp's rt_params_t fields g, Tht_ref,
	// cdrag. The solver does not read them: buoyancy and drag run only
	// when the caller passes a solver.ForcingSpec, which carries its own
	// G, ThtRef and CDrag, to RhsVip.EnableForcing.
	G, ThtRef, CDrag float64

	// NWorkers is the number of slab-owning goroutines; zero selects
	// runtime.GOMAXPROCS(0).
	NWorkers int

	// OutFreq, OutWindow, OutVars, OutDir are handed to the output
	// collaborator unexamined; the core never interprets them.
	OutFreq   int
	OutWindow int
	OutVars   []string
	OutDir    string
}

// Default returns a Config with the source's stated defaults: FCT on,
// minimum-residual pressure scheme, an iteration cap of 10000 matching
// spec §4.5's "e.g. 10000".
func Default() Config {
	return Config{
		MaxAbsDivEps:     44 * 2.220446049250313e-16,
		PrsTol:           1e-6,
		NIters:           2,
		MaxPressureIters: 10000,
		FCT:              true,
		PressureScheme:   PressureMinRes,
	}
}

// NDims reports the dimensionality implied by GridSize.
func (c Config) NDims() int { return len(c.GridSize) }

// Validate fails construction on any of the configuration errors named
// in spec §7: bogus grid size, negative spacing, zero iteration
// count, or adaptive mode without a Courant target.
func (c Config) Validate() error {
	if len(c.GridSize) < 1 || len(c.GridSize) > 3 {
		return fmt.Errorf("config: grid_size must have 1-3 dimensions, got %d", len(c.GridSize))
	}
	for d, n := range c.GridSize {
		if n < 1 {
			return fmt.Errorf("config: grid_size[%d] = %d, want >= 1", d, n)
		}
	}
	spacings := []float64{c.Di, c.Dj, c.Dk}[:len(c.GridSize)]
	for d, s := range spacings {
		if s < 0 {
			return fmt.Errorf("config: spacing for dimension %d is negative (%v)", d, s)
		}
	}
	if c.Dt == 0 && c.MaxCourant <= 0 {
		return fmt.Errorf("config: dt is zero (adaptive mode) but max_courant is not positive")
	}
	if c.NIters < 1 {
		return fmt.Errorf("config: n_iters = %d, want >= 1", c.NIters)
	}
	if c.PrsTol <= 0 {
		return fmt.Errorf("config: prs_tol = %v, want > 0", c.PrsTol)
	}
	if c.MaxPressureIters < 1 {
		return fmt.Errorf("config: max_pressure_iters = %d, want >= 1", c.MaxPressureIters)
	}
	return nil
}

// Spacing returns the per-dimension cell spacing as a slice sized to
// NDims(), the layout formulae.Gradient/Divergence/Laplacian expect.
func (c Config) Spacing() []float64 {
	return append([]float64(nil), []float64{c.Di, c.Dj, c.Dk}[:c.NDims()]...)
}
