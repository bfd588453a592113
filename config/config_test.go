package config

import (
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestValidateRejectsBadGridSize(t *testing.T) {
	c := Default()
	c.GridSize = []int{0, 10}
	c.Dt = 1
	if err := c.Validate(); err == nil {
		t.Fatal("want error for zero grid size, got nil")
	}
}

func TestValidateRejectsAdaptiveWithoutCourant(t *testing.T) {
	c := Default()
	c.GridSize = []int{10}
	c.Dt = 0
	c.MaxCourant = 0
	if err := c.Validate(); err == nil {
		t.Fatal("want error for adaptive mode without max_courant, got nil")
	}
}

func TestValidateAcceptsReasonableConfig(t *testing.T) {
	c := Default()
	c.GridSize = []int{10, 20}
	c.Dt = 1
	c.Di, c.Dj = 1, 1
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParsePressureScheme(t *testing.T) {
	cases := map[string]PressureScheme{
		"":           PressureMinRes,
		"minres":     PressureMinRes,
		"conjres":    PressureConjRes,
		"richardson": PressureRichardson,
	}
	for in, want := range cases {
		got, err := ParsePressureScheme(in)
		if err != nil {
			t.Fatalf("ParsePressureScheme(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePressureScheme(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParsePressureScheme("bogus"); err == nil {
		t.Error("want error for unknown scheme")
	}
}

func TestLoadFromFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--grid-size=8,16", "--dt=0.5", "--pressure-scheme=conjres"}); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		t.Fatal(err)
	}

	c, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Join(intsToStrings(c.GridSize), ",") != "8,16" {
		t.Errorf("GridSize = %v, want [8 16]", c.GridSize)
	}
	if c.Dt != 0.5 {
		t.Errorf("Dt = %v, want 0.5", c.Dt)
	}
	if c.PressureScheme != PressureConjRes {
		t.Errorf("PressureScheme = %v, want conjres", c.PressureScheme)
	}
}

func intsToStrings(ns []int) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = strconv.Itoa(n)
	}
	return out
}
