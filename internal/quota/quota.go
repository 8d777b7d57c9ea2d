package quota

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Schedule is one client's expected working hours per weekday. Weekdays
// absent from the map contribute zero expected hours, which is how
// weekends and excluded days fall out without special-casing.
type Schedule struct {
	Weekdays map[time.Weekday]float64
	Enabled  bool
}

// Config maps case-folded client names to their schedules.
type Config map[string]Schedule

// foldCaser performs Unicode case folding for client name matching.
var foldCaser = cases.Fold()

// FoldName canonicalizes a client name for quota lookup.
func FoldName(name string) string {
	return foldCaser.String(name)
}

// Lookup returns the schedule for a client, folding case. The second
// return is false when the client has no quota configuration; callers
// treat that as "expected hours = 0", never as an error.
func (c Config) Lookup(client string) (Schedule, bool) {
	s, ok := c[FoldName(client)]
	return s, ok
}

// fileConfig mirrors the on-disk YAML layout. Weekday keys use
// 0=Monday..6=Sunday, matching how schedules are written by hand
// ("0: 8.5" reads as Monday).
type fileConfig struct {
	Clients map[string]fileSchedule `yaml:"clients"`
}

type fileSchedule struct {
	Enabled        bool            `yaml:"enabled"`
	WeeklySchedule map[int]float64 `yaml:"weekly_schedule"`
}

// LoadConfig reads the quota configuration file.
//
// A missing file means no client has a quota configured; that returns an
// empty Config, not an error. Weekday keys outside 0..6 are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return nil, fmt.Errorf("read quota config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse quota config: %w", err)
	}

	cfg := make(Config, len(fc.Clients))
	for name, fs := range fc.Clients {
		sched := Schedule{
			Weekdays: make(map[time.Weekday]float64, len(fs.WeeklySchedule)),
			Enabled:  fs.Enabled,
		}
		for day, hours := range fs.WeeklySchedule {
			if day < 0 || day > 6 {
				return nil, fmt.Errorf("quota config client %q: weekday %d out of range 0..6", name, day)
			}
			sched.Weekdays[mondayIndexed(day)] = hours
		}
		cfg[FoldName(name)] = sched
	}
	return cfg, nil
}

// mondayIndexed converts a 0=Monday..6=Sunday file key to time.Weekday.
func mondayIndexed(day int) time.Weekday {
	return time.Weekday((day + 1) % 7)
}

// Engine answers expected-hours queries from a loaded configuration and
// holiday calendar.
type Engine struct {
	config   Config
	holidays Holidays
}

// NewEngine creates an Engine over the given configuration and holidays.
func NewEngine(cfg Config, holidays Holidays) *Engine {
	return &Engine{config: cfg, holidays: holidays}
}

// HasQuota reports whether a client has an enabled quota configuration.
// Used to decide whether progress is worth rendering at all.
func (e *Engine) HasQuota(client string) bool {
	sched, ok := e.config.Lookup(client)
	return ok && sched.Enabled
}

// ExpectedHours returns the configured expected hours for a client over
// the inclusive date range [from, to].
//
// Only business days (Mon-Fri) count; holiday dates contribute zero
// regardless of weekday. A client with no configuration, or a disabled
// schedule, yields 0.
func (e *Engine) ExpectedHours(client string, from, to time.Time) float64 {
	sched, ok := e.config.Lookup(client)
	if !ok || !sched.Enabled {
		return 0
	}

	total := 0.0
	for day := dateOf(from); !day.After(dateOf(to)); day = day.AddDate(0, 0, 1) {
		wd := day.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if e.holidays.Contains(day) {
			continue
		}
		total += sched.Weekdays[wd]
	}
	return total
}

// Progress returns the percentage of expected hours worked, capped at
// 100. Zero expected hours yields 0, never a division by zero.
func Progress(actual, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	p := actual / expected * 100
	if p > 100 {
		return 100
	}
	return p
}

// dateOf truncates a timestamp to its local calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
