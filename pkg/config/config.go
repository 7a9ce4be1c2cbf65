// Package config loads the SDK's Options (§6 "Configuration") the same
// way openchoreo's rca/config package loads its config: koanf defaults
// layered with environment variables and, optionally, a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Options are the SDK-wide settings from spec §6's configuration table.
type Options struct {
	BaseURL            string        `koanf:"base_url"`
	Bearer             string        `koanf:"bearer_token"`
	Timeout            time.Duration `koanf:"timeout"`
	MaxRetries         int           `koanf:"max_retries"`
	PollIntervalInitMS int           `koanf:"poll_interval_initial_ms"`
	PollIntervalMaxMS  int           `koanf:"poll_interval_max_ms"`
	StrictTypes        bool          `koanf:"strict_types"`
	EventMode          string        `koanf:"event_mode"` // polling | subscription | auto
}

// PollIntervalInit and PollIntervalMax convert the millisecond fields to
// time.Duration for callers wiring the Execution Tracker.
func (o Options) PollIntervalInit() time.Duration {
	return time.Duration(o.PollIntervalInitMS) * time.Millisecond
}

func (o Options) PollIntervalMax() time.Duration {
	return time.Duration(o.PollIntervalMaxMS) * time.Millisecond
}

const envPrefix = "WORKFLOWCLIENT_"

// Load loads Options from built-in defaults, an optional YAML file at
// path (skipped if path is empty or the file doesn't exist), and
// WORKFLOWCLIENT_*-prefixed environment variables, in that ascending
// order of precedence.
func Load(path string) (*Options, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: load file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var opts Options
	if err := k.Unmarshal("", &opts); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	timeoutSeconds := k.Int64("timeout_seconds")
	if timeoutSeconds > 0 {
		opts.Timeout = time.Duration(timeoutSeconds) * time.Second
	} else if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &opts, nil
}

func envKeyTransform(s string) string {
	// WORKFLOWCLIENT_MAX_RETRIES -> max_retries
	trimmed := s[len(envPrefix):]
	out := make([]byte, 0, len(trimmed))
	for _, r := range trimmed {
		if r >= 'A' && r <= 'Z' {
			out = append(out, byte(r-'A'+'a'))
		} else {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

func defaults() map[string]any {
	return map[string]any{
		"base_url":                 "",
		"bearer_token":             "",
		"timeout_seconds":          30,
		"max_retries":              2,
		"poll_interval_initial_ms": 500,
		"poll_interval_max_ms":     10000,
		"strict_types":             false,
		"event_mode":               "auto",
	}
}

func (o Options) validate() error {
	if o.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if o.PollIntervalInitMS <= 0 || o.PollIntervalMaxMS <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if o.PollIntervalInitMS > o.PollIntervalMaxMS {
		return fmt.Errorf("poll_interval_initial_ms must not exceed poll_interval_max_ms")
	}
	switch o.EventMode {
	case "polling", "subscription", "auto":
	default:
		return fmt.Errorf("event_mode must be one of polling, subscription, auto, got %q", o.EventMode)
	}
	return nil
}
