// Package cli wires github.com/spf13/cobra's command tree for the
// mpdata binary, generalizing the flat options-slice registration the
// source used for its own command wiring (spec SPEC_FULL.md §A) to this
// module's own Config.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spatialmodel/mpdatago/config"
)

// Cfg holds configuration information bound across the command tree.
var Cfg = viper.New()

// options lists the CLI's own flags (beyond the Config flags
// config.RegisterFlags already contributes), the same flat
// name/usage/default/flagsets shape as the teacher's options slice.
var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "config specifies the configuration file location.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name:       "equation",
			usage:      "equation selects the built-in problem setup: advect (passive scalar) or vip (pressure-coupled velocity).",
			defaultVal: "advect",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name:       "steps",
			usage:      "steps is the number of time steps to advance.",
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name:       "log-level",
			usage:      "log-level sets the logrus level (debug, info, warn, error).",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	for _, o := range options {
		for _, fs := range o.flagsets {
			switch v := o.defaultVal.(type) {
			case string:
				fs.String(o.name, v, o.usage)
			case int:
				fs.Int(o.name, v, o.usage)
			case bool:
				fs.Bool(o.name, v, o.usage)
			default:
				panic(fmt.Sprintf("cli: unhandled option type for %q", o.name))
			}
		}
	}
	config.RegisterFlags(runCmd.Flags())
	config.RegisterFlags(validateCmd.Flags())

	Cfg.BindPFlags(Root.PersistentFlags())
	Cfg.BindPFlags(runCmd.Flags())
	Cfg.BindPFlags(validateCmd.Flags())
	Cfg.SetEnvPrefix("MPDATA")
	Cfg.AutomaticEnv()

	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(validateCmd)
}

func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cli: problem reading configuration file: %v", err)
		}
	}
	if lvl, err := logrus.ParseLevel(Cfg.GetString("log-level")); err == nil {
		logrus.SetLevel(lvl)
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "mpdata",
	Short: "A multidimensional positive-definite advection solver.",
	Long: `mpdata drives a grid-based MPDATA advection solver, with an optional
elliptic pressure projection for pressure-coupled (VIP) velocity problems.

Configuration can be set with a configuration file (--config), command-line
flags, or environment variables prefixed MPDATA_.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version number",
	DisableAutoGenTag: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("mpdata v%s\n", Version)
	},
}

var runCmd = &cobra.Command{
	Use:               "run",
	Short:             "Run a solver to completion.",
	Long:              "run builds a solver from the configured equation and grid, advances it for --steps time steps, and reports diagnostics.",
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolver(Cfg)
	},
}

var validateCmd = &cobra.Command{
	Use:               "validate",
	Short:             "Validate a configuration without running it.",
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(Cfg)
		if err != nil {
			return err
		}
		cmd.Printf("configuration OK: %dD grid %v, dt=%v, pressure scheme %s\n",
			cfg.NDims(), cfg.GridSize, cfg.Dt, cfg.PressureScheme)
		return nil
	},
}

// Version is set at build time via -ldflags, following the teacher's
// own version-stamping convention; it defaults to "dev" otherwise.
var Version = "dev"
