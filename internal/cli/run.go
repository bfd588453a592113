package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/spatialmodel/mpdatago/config"
)

// runSolver implements the run command: load Config from v, build the
// selected equation's solver, advance it --steps times, and print a
// final diagnostic summary.
func runSolver(v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	eqn := Equation(v.GetString("equation"))
	steps := v.GetInt("steps")
	if steps <= 0 {
		return fmt.Errorf("cli: --steps must be positive, got %d", steps)
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	log = log.WithFields(logrus.Fields{"equation": eqn, "grid_size": cfg.GridSize})

	s, err := buildSolver(cfg, eqn, log)
	if err != nil {
		return err
	}

	log.WithField("steps", steps).Info("cli: starting run")
	if err := s.Advance(steps); err != nil {
		return fmt.Errorf("cli: run failed: %w", err)
	}

	mass := s.Mem.State(0).Sum(s.Grid.Interior...)
	log.WithFields(logrus.Fields{
		"timestep":  s.Timestep,
		"time":      s.Time,
		"sum(psi0)": mass,
	}).Info("cli: run complete")
	return nil
}
