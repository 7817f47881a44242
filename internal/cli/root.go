// Package cli provides the command-line interface for gridtop.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hpcops/gridtop/internal/config"
	"github.com/hpcops/gridtop/internal/events"
	"github.com/hpcops/gridtop/internal/monitor"
	"github.com/hpcops/gridtop/internal/notify"
	"github.com/hpcops/gridtop/internal/registry"
	"github.com/hpcops/gridtop/internal/sched"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configPath  string
	flagUser    string
	flagProject string
	interval    int
	once        bool
	fixturesDir string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gridtop",
	Short: "Live terminal monitor for batch scheduler jobs",
	Long: `Gridtop polls the batch scheduler for the cluster-wide job list, keeps
a job and task model across poll cycles, and renders a refreshing
per-user summary table with estimated time left per job group.

Against a live scheduler the refresh interval has a hard floor to keep
load off the master host. Point it at a directory of recorded snapshot
files instead with --fixtures to replay a session.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog := config.SetupLogger(cfg.Logging)
	defer closeLog()

	var source sched.Source
	if cfg.Fixtures.Enabled {
		fs, err := sched.NewFixtureSource(cfg.Fixtures.Dir)
		if err != nil {
			return err
		}
		logger.Info("replaying fixtures", "dir", cfg.Fixtures.Dir, "snapshots", fs.SnapshotCount())
		source = fs
	} else {
		source = sched.NewCommandSource(cfg.Scheduler.Binary, cfg.Scheduler.SnapshotArgs, cfg.Scheduler.DetailArgs)
	}

	bus := events.NewBus(0)
	defer bus.Close()
	if cfg.Notify.Enabled {
		defer notify.Watch(bus, logger)()
	}

	reg := registry.New(source, registry.Options{
		Project:       cfg.Project,
		MinNameLen:    cfg.Enrichment.MinNameLen,
		QueueCapacity: cfg.Enrichment.QueueCapacity,
		Cooldown:      time.Duration(cfg.Enrichment.CooldownSec) * time.Second,
		Logger:        logger,
		Bus:           bus,
	})

	mon := monitor.New(reg, monitor.Options{
		Interval:    time.Duration(cfg.IntervalSec) * time.Second,
		Once:        cfg.Once,
		User:        cfg.User,
		Project:     cfg.Project,
		Prefixes:    cfg.QueuePrefixes(),
		FixtureDir:  fixtureWatchDir(cfg),
		ClearScreen: !cfg.Once,
		Logger:      logger,
	})

	logger.Info("gridtop starting",
		"user", cfg.User,
		"project", cfg.Project,
		"interval_sec", cfg.IntervalSec,
		"once", cfg.Once)
	return mon.Run(ctx)
}

// applyFlags lets the command line override the config file.
func applyFlags(cfg *config.Config) {
	if flagUser != "" {
		cfg.User = flagUser
	}
	if flagProject != "" {
		cfg.Project = flagProject
	}
	if interval > 0 {
		cfg.IntervalSec = interval
	}
	if once {
		cfg.Once = true
	}
	if fixturesDir != "" {
		cfg.Fixtures.Enabled = true
		cfg.Fixtures.Dir = fixturesDir
	}
}

func fixtureWatchDir(cfg config.Config) string {
	if cfg.Fixtures.Enabled {
		return cfg.Fixtures.Dir
	}
	return ""
}

// Execute runs the root command under a signal-cancelled context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the yaml config file")
	rootCmd.Flags().StringVarP(&flagUser, "user", "u", "", "user whose jobs to monitor (default: current user)")
	rootCmd.Flags().StringVarP(&flagProject, "project", "p", "", "project for the utilization summary")
	rootCmd.Flags().IntVarP(&interval, "interval", "i", 0, "refresh interval in seconds")
	rootCmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	rootCmd.Flags().StringVar(&fixturesDir, "fixtures", "", "replay snapshot files from this directory instead of the scheduler")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/.config/gridtop/config.yaml", home)
}
