// Package config holds gridtop's configuration surface and logging setup.
package config

import (
	"fmt"
	"os"
	"os/user"

	"gopkg.in/yaml.v3"

	"github.com/hpcops/gridtop/internal/model"
)

// MinLiveIntervalSec is the floor for the refresh interval against a live
// scheduler. Polling faster than this hammers the master host; configuring
// it is a fatal startup error, not a runtime throttle.
const MinLiveIntervalSec = 60

type Config struct {
	// User and Project select whose jobs the report focuses on. Both
	// default at load time: user to the OS user, project to the
	// scheduler-reported default.
	User    string `yaml:"user"`
	Project string `yaml:"project"`

	IntervalSec int  `yaml:"interval_sec"`
	Once        bool `yaml:"once"`

	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Queues     QueuesConfig     `yaml:"queues"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Fixtures   FixturesConfig   `yaml:"fixtures"`
	Notify     NotifyConfig     `yaml:"notify"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SchedulerConfig struct {
	Binary       string   `yaml:"binary"`
	SnapshotArgs []string `yaml:"snapshot_args"`
	DetailArgs   []string `yaml:"detail_args"`
}

type QueuesConfig struct {
	LabPrefix   string `yaml:"lab_prefix"`
	LongPrefix  string `yaml:"long_prefix"`
	ShortPrefix string `yaml:"short_prefix"`
}

type EnrichmentConfig struct {
	CooldownSec   int `yaml:"cooldown_sec"`
	MinNameLen    int `yaml:"min_name_len"`
	QueueCapacity int `yaml:"queue_capacity"`
}

type FixturesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the stock configuration.
func Default() Config {
	cfg := Config{
		IntervalSec: MinLiveIntervalSec,
		Scheduler: SchedulerConfig{
			Binary:       "qstat",
			SnapshotArgs: []string{"-ext", "-u", "*"},
			DetailArgs:   []string{"-j"},
		},
		Queues: QueuesConfig{
			LabPrefix:   "lab",
			LongPrefix:  "long",
			ShortPrefix: "short",
		},
		Enrichment: EnrichmentConfig{
			CooldownSec: 15,
			MinNameLen:  10,
		},
		Logging: LoggingConfig{Level: "info"},
	}
	if u, err := user.Current(); err == nil {
		cfg.User = u.Username
	}
	return cfg
}

// Load reads the optional yaml config file over the defaults, then applies
// GRIDTOP_USER and GRIDTOP_PROJECT from the environment. A missing file is
// fine; a malformed one is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GRIDTOP_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("GRIDTOP_PROJECT"); v != "" {
		c.Project = v
	}
}

// Validate enforces the startup invariants.
func (c *Config) Validate() error {
	if c.IntervalSec <= 0 {
		return fmt.Errorf("interval must be positive, got %d", c.IntervalSec)
	}
	if !c.Fixtures.Enabled && !c.Once && c.IntervalSec < MinLiveIntervalSec {
		return fmt.Errorf("live refresh interval %ds is under the %ds minimum",
			c.IntervalSec, MinLiveIntervalSec)
	}
	if c.Fixtures.Enabled && c.Fixtures.Dir == "" {
		return fmt.Errorf("fixture mode needs a fixture directory")
	}
	if c.Scheduler.Binary == "" {
		return fmt.Errorf("scheduler binary must be set")
	}
	return nil
}

// QueuePrefixes converts the queue section into the model's prefix table.
func (c *Config) QueuePrefixes() model.QueuePrefixes {
	return model.QueuePrefixes{
		Lab:   c.Queues.LabPrefix,
		Long:  c.Queues.LongPrefix,
		Short: c.Queues.ShortPrefix,
	}
}
