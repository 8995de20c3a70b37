package vm

import "github.com/caarlos0/env/v6"

// Config tunes the VM's resource limits and GC behavior. Zero values are
// replaced with the reference defaults by LoadConfig; every field can also be
// overridden through the matching WISTERIA_ environment variable, read via
// github.com/caarlos0/env.
type Config struct {
	FramesMax int  `env:"WISTERIA_FRAMES_MAX" envDefault:"64"`
	StressGC  bool `env:"WISTERIA_STRESS_GC" envDefault:"false"`
	LogGC     bool `env:"WISTERIA_LOG_GC" envDefault:"false"`
}

// StackMax is derived from FramesMax the same way the reference
// implementation derives STACK_MAX from FRAMES_MAX: each frame may address
// up to 256 stack slots (one byte of local-slot operand).
func (c Config) StackMax() int { return c.FramesMax * 256 }

// DefaultConfig returns the reference implementation's defaults without
// consulting the environment.
func DefaultConfig() Config {
	return Config{FramesMax: 64}
}

// LoadConfig returns DefaultConfig overridden by any WISTERIA_* environment
// variables that are set.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
