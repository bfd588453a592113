package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RegisterFlags binds the Config fields onto fs, the way the teacher's
// command wiring registers a flat options slice onto a cobra command's
// flag set -- one --flag per Config field except VabCoefficient, which
// has no flag, long-form only.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("grid-size", "64", "comma-separated per-dimension grid size, e.g. 64,64")
	fs.Float64("dt", 0, "time step; 0 selects adaptive mode (requires --max-courant)")
	fs.Float64("di", 1, "grid spacing in the first dimension")
	fs.Float64("dj", 1, "grid spacing in the second dimension")
	fs.Float64("dk", 1, "grid spacing in the third dimension")
	fs.Float64("max-courant", 0.5, "Courant target for adaptive time stepping")
	fs.Float64("prs-tol", 1e-6, "pressure residual convergence threshold")
	fs.Int("n-iters", 2, "number of MPDATA passes per advection step")
	fs.Int("max-pressure-iters", 10000, "pseudo-time iteration cap for the pressure solver")
	fs.Bool("fct", true, "enable flux-corrected-transport clipping")
	fs.String("pressure-scheme", "minres", "pressure scheme: minres, conjres, or richardson")
	fs.Float64("vab-relaxed-state", 0, "velocity absorber target state")
	fs.Float64("g", 0, "gravitational acceleration for the buoyancy forcing")
	fs.Float64("tht-ref", 0, "reference potential temperature for the buoyancy forcing")
	fs.Float64("cdrag", 0, "quadratic drag coefficient; 0 disables drag")
	fs.Int("workers", 0, "slab worker count; 0 selects GOMAXPROCS")
	fs.Int("out-freq", 0, "output snapshot frequency in steps")
	fs.Int("out-window", 0, "output snapshot window, in steps, around out-freq multiples")
	fs.String("out-vars", "", "comma-separated variable names to snapshot")
	fs.String("out-dir", "", "output directory; $VAR references are expanded")
}

// Load reads a Config from v, which the caller has already configured
// with file/env sources and bound to fs via viper.BindPFlags, the way
// the former inmaputil/config.go loaded rt_params_t-equivalent options.
// Values are coerced with github.com/spf13/cast so that a config file's
// stringly-typed YAML/TOML values and a flag's string representation
// are treated uniformly.
func Load(v *viper.Viper) (Config, error) {
	c := Default()

	// Keys v holds no value for keep their Default() value instead of
	// reading as zero.
	v.SetDefault("prs-tol", c.PrsTol)
	v.SetDefault("n-iters", c.NIters)
	v.SetDefault("max-pressure-iters", c.MaxPressureIters)
	v.SetDefault("fct", c.FCT)

	sizes, err := parseIntList(v.GetString("grid-size"))
	if err != nil {
		return Config{}, fmt.Errorf("config: grid-size: %w", err)
	}
	c.GridSize = sizes

	c.Dt = cast.ToFloat64(v.Get("dt"))
	c.Di = cast.ToFloat64(v.Get("di"))
	c.Dj = cast.ToFloat64(v.Get("dj"))
	c.Dk = cast.ToFloat64(v.Get("dk"))
	c.MaxCourant = cast.ToFloat64(v.Get("max-courant"))
	c.PrsTol = cast.ToFloat64(v.Get("prs-tol"))
	c.NIters = cast.ToInt(v.Get("n-iters"))
	c.MaxPressureIters = cast.ToInt(v.Get("max-pressure-iters"))
	c.FCT = cast.ToBool(v.Get("fct"))
	c.VabRelaxedState = cast.ToFloat64(v.Get("vab-relaxed-state"))
	c.G = cast.ToFloat64(v.Get("g"))
	c.ThtRef = cast.ToFloat64(v.Get("tht-ref"))
	c.CDrag = cast.ToFloat64(v.Get("cdrag"))
	c.NWorkers = cast.ToInt(v.Get("workers"))
	c.OutFreq = cast.ToInt(v.Get("out-freq"))
	c.OutWindow = cast.ToInt(v.Get("out-window"))

	scheme, err := ParsePressureScheme(cast.ToString(v.Get("pressure-scheme")))
	if err != nil {
		return Config{}, err
	}
	c.PressureScheme = scheme

	if outVars := cast.ToString(v.Get("out-vars")); outVars != "" {
		c.OutVars = strings.Split(outVars, ",")
	}
	c.OutDir = os.ExpandEnv(cast.ToString(v.Get("out-dir")))

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer: %w", p, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty grid size list")
	}
	return out, nil
}
