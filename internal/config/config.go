package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every configuration validation error.
var ErrInvalid = errors.New("invalid configuration")

// Match duration presets, in minutes.
const (
	StandardDuration MatchDuration = 17.5
	ShortDuration    MatchDuration = 11
)

const (
	DefaultPendingTarget = 3
	DefaultFemaleRatio   = 0.5
	DefaultStrategy      = "wait_weighted"
)

var durationPresets = map[string]MatchDuration{
	"standard": StandardDuration,
	"short":    ShortDuration,
}

// MatchDuration is a match length in simulated minutes. It can be written
// as a number or as one of the preset names.
type MatchDuration float64

func (d *MatchDuration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

func (d *MatchDuration) UnmarshalText(text []byte) error {
	v, err := ParseMatchDuration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Minutes returns the duration as a float.
func (d MatchDuration) Minutes() float64 {
	return float64(d)
}

// ParseMatchDuration accepts a preset name ("standard", "short") or a
// number of minutes.
func ParseMatchDuration(s string) (MatchDuration, error) {
	s = strings.TrimSpace(s)
	if p, ok := durationPresets[strings.ToLower(s)]; ok {
		return p, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid match duration %q: want minutes or one of standard, short", s)
	}
	return MatchDuration(f), nil
}

type RosterEntry struct {
	Name   string `yaml:"name" toml:"name"`
	Gender string `yaml:"gender" toml:"gender"`
}

// Facility describes the courts and the player pool.
type Facility struct {
	Courts        int           `yaml:"courts" toml:"courts"`
	Players       int           `yaml:"players" toml:"players"`
	FemaleRatio   *float64      `yaml:"female_ratio" toml:"female_ratio"`
	Men           *int          `yaml:"men" toml:"men"`
	Women         *int          `yaml:"women" toml:"women"`
	MatchDuration MatchDuration `yaml:"match_duration" toml:"match_duration"`
	PendingTarget int           `yaml:"pending_target" toml:"pending_target"`
	Roster        []RosterEntry `yaml:"roster" toml:"roster"`
}

type Run struct {
	Minutes int `yaml:"minutes" toml:"minutes"`
}

type Config struct {
	Facility Facility `yaml:"facility" toml:"facility"`
	Run      Run      `yaml:"run" toml:"run"`
	Strategy string   `yaml:"strategy" toml:"strategy"`
}

// Default returns the six-court, 38-player facility running for six hours.
func Default() *Config {
	ratio := DefaultFemaleRatio
	return &Config{
		Facility: Facility{
			Courts:        6,
			Players:       38,
			FemaleRatio:   &ratio,
			MatchDuration: StandardDuration,
			PendingTarget: DefaultPendingTarget,
		},
		Run:      Run{Minutes: 360},
		Strategy: DefaultStrategy,
	}
}

// Headcount returns the number of men and women in the pool. An explicit
// roster wins over explicit counts, which win over the ratio split.
func (f *Facility) Headcount() (men, women int) {
	if len(f.Roster) > 0 {
		for _, e := range f.Roster {
			switch strings.ToUpper(e.Gender) {
			case "M":
				men++
			case "F":
				women++
			}
		}
		return men, women
	}
	if f.Men != nil || f.Women != nil {
		if f.Men != nil {
			men = *f.Men
		}
		if f.Women != nil {
			women = *f.Women
		}
		return men, women
	}
	ratio := DefaultFemaleRatio
	if f.FemaleRatio != nil {
		ratio = *f.FemaleRatio
	}
	women = int(float64(f.Players) * ratio)
	return f.Players - women, women
}

// Validate rejects facilities that could never produce a match.
func (f *Facility) Validate() error {
	if f.Courts < 1 {
		return fmt.Errorf("%w: at least one court is required, got %d", ErrInvalid, f.Courts)
	}
	if f.MatchDuration <= 0 {
		return fmt.Errorf("%w: match duration must be positive, got %g", ErrInvalid, f.MatchDuration.Minutes())
	}
	if f.PendingTarget < 0 {
		return fmt.Errorf("%w: pending target must not be negative, got %d", ErrInvalid, f.PendingTarget)
	}
	if f.FemaleRatio != nil && (*f.FemaleRatio < 0 || *f.FemaleRatio > 1) {
		return fmt.Errorf("%w: female ratio %g is outside [0, 1]", ErrInvalid, *f.FemaleRatio)
	}
	if (f.Men != nil && *f.Men < 0) || (f.Women != nil && *f.Women < 0) {
		return fmt.Errorf("%w: player counts must not be negative", ErrInvalid)
	}
	if len(f.Roster) == 0 && f.Players > 0 && (f.Men != nil || f.Women != nil) {
		if men, women := f.Headcount(); men+women != f.Players {
			return fmt.Errorf("%w: players is %d but men and women add up to %d", ErrInvalid, f.Players, men+women)
		}
	}

	seen := make(map[string]bool)
	for i, e := range f.Roster {
		if e.Name == "" {
			return fmt.Errorf("%w: roster entry %d has no name", ErrInvalid, i+1)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: player %q appears more than once in the roster", ErrInvalid, e.Name)
		}
		seen[e.Name] = true
		switch strings.ToUpper(e.Gender) {
		case "M", "F":
		default:
			return fmt.Errorf("%w: player %q has gender %q, want M or F", ErrInvalid, e.Name, e.Gender)
		}
	}

	men, women := f.Headcount()
	if men < 4 && women < 4 && (men < 2 || women < 2) {
		return fmt.Errorf("%w: %d men and %d women can never form a match (need 4 of one gender or 2 of each)",
			ErrInvalid, men, women)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Facility.PendingTarget == 0 {
		c.Facility.PendingTarget = DefaultPendingTarget
	}
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return finish(&cfg)
}

// LoadTOML parses TOML bytes into a Config and validates it.
func LoadTOML(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return finish(&cfg)
}

// LoadFromFile reads a config file. Files ending in .toml are parsed as
// TOML, everything else as YAML.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return LoadTOML(data)
	}
	return LoadFromBytes(data)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := c.Facility.Validate(); err != nil {
		return err
	}
	if c.Run.Minutes < 1 {
		return fmt.Errorf("%w: run length must be at least one minute, got %d", ErrInvalid, c.Run.Minutes)
	}
	return nil
}
