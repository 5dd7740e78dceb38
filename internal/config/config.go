package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SHIPYARD_SEED.
const EnvPrefix = "SHIPYARD_"

// Simulator holds all configuration for the simulation tools.
type Simulator struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// Extra definition files merged over the embedded defaults, in order.
	DataFiles []string `yaml:"data_files" env:"DATA_FILES" envSeparator:","`

	Seed     uint64  `yaml:"seed" env:"SEED"`
	TickRate float64 `yaml:"tick_rate" env:"TICK_RATE"` // Hz
	MaxTicks int     `yaml:"max_ticks" env:"MAX_TICKS"`

	Physics Physics `yaml:"physics" envPrefix:"PHYSICS_"`
	Combat  Combat  `yaml:"combat" envPrefix:"COMBAT_"`

	// Relative tolerance for a saved design's expected_stats block.
	ExpectedStatsTolerance float64 `yaml:"expected_stats_tolerance" env:"EXPECTED_STATS_TOLERANCE"`

	// Database is optional; an empty host disables persistence.
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
}

// Physics are the constants of the ship stats formulas.
type Physics struct {
	KSpeed            float64 `yaml:"k_speed" env:"K_SPEED"`
	KThrust           float64 `yaml:"k_thrust" env:"K_THRUST"`
	KTurn             float64 `yaml:"k_turn" env:"K_TURN"`
	BaseRadius        float64 `yaml:"base_radius" env:"BASE_RADIUS"`
	ReferenceMass     float64 `yaml:"reference_mass" env:"REFERENCE_MASS"`
	ReferenceDiameter float64 `yaml:"reference_diameter" env:"REFERENCE_DIAMETER"`
}

// Combat tunes combat resolution.
type Combat struct {
	// DamageSelection picks the component absorbing damage in a layer: "uniform" or "hp_weighted".
	DamageSelection string `yaml:"damage_selection" env:"DAMAGE_SELECTION"`
	// ArenaSize is the distance between opposing fleets at battle start.
	ArenaSize float64 `yaml:"arena_size" env:"ARENA_SIZE"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultPhysics returns the reference stat constants.
func DefaultPhysics() Physics {
	return Physics{
		KSpeed:            25,
		KThrust:           2500,
		KTurn:             5000,
		BaseRadius:        40,
		ReferenceMass:     1000,
		ReferenceDiameter: 80,
	}
}

// DefaultSimulator returns Simulator config with sensible defaults.
func DefaultSimulator() Simulator {
	return Simulator{
		LogLevel: "info",
		Seed:     1,
		TickRate: 100,
		MaxTicks: 100 * 300,
		Physics:  DefaultPhysics(),
		Combat: Combat{
			DamageSelection: "uniform",
			ArenaSize:       2000,
		},
		ExpectedStatsTolerance: 0.01,
		Database: DatabaseConfig{
			Port:    5432,
			User:    "shipyard",
			DBName:  "shipyard",
			SSLMode: "disable",
		},
	}
}

// LoadSimulator loads config from a YAML file and applies SHIPYARD_* environment
// overrides. If the file doesn't exist, defaults are used.
func LoadSimulator(path string) (Simulator, error) {
	cfg := DefaultSimulator()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c Simulator) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %v", c.TickRate)
	}
	p := c.Physics
	if p.ReferenceMass <= 0 || p.ReferenceDiameter <= 0 {
		return fmt.Errorf("physics reference_mass and reference_diameter must be positive")
	}
	switch c.Combat.DamageSelection {
	case "", "uniform", "hp_weighted":
	default:
		return fmt.Errorf("unknown combat.damage_selection %q", c.Combat.DamageSelection)
	}
	if c.ExpectedStatsTolerance < 0 {
		return fmt.Errorf("expected_stats_tolerance must not be negative")
	}
	return nil
}

// TickDuration returns the fixed step in seconds.
func (c Simulator) TickDuration() float64 { return 1 / c.TickRate }

// SlogLevel converts LogLevel to a slog.Level, defaulting to Info.
func (c Simulator) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
