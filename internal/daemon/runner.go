package daemon

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
	"github.com/LimTec-de/dockapptoggler/internal/usecase"
)

// RunnerConfig aggregates the configuration of every component the daemon
// assembles.
type RunnerConfig struct {
	HitTester  usecase.HitTesterConfig
	Windows    usecase.WindowServiceConfig
	Controller usecase.ControllerConfig
	Events     EventMonitorConfig
	Health     HealthConfig

	// TrustPollInterval is the wait between permission re-checks while the
	// user has not granted introspection access yet.
	TrustPollInterval time.Duration

	// RegistryHeartbeat is the liveness-file update cadence.
	RegistryHeartbeat time.Duration

	// RelaunchArgs are appended to the command line of a replacement
	// process spawned on a memory-pressure restart.
	RelaunchArgs []string
}

// DefaultRunnerConfig returns the default daemon configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		HitTester:         usecase.DefaultHitTesterConfig(),
		Windows:           usecase.DefaultWindowServiceConfig(),
		Controller:        usecase.DefaultControllerConfig(),
		Events:            DefaultEventMonitorConfig(),
		Health:            DefaultHealthConfig(),
		TrustPollInterval: 5 * time.Second,
		RegistryHeartbeat: 30 * time.Second,
		RelaunchArgs:      []string{"--skip-welcome"},
	}
}

// Runner assembles and drives the daemon: the serialized execution loop,
// the selection controller, the input monitor, and the watchdogs. Run
// blocks until the context is canceled or a memory-pressure restart is
// requested.
type Runner struct {
	config     RunnerConfig
	version    string
	ax         domain.Introspector
	procs      domain.ProcessRegistry
	tap        domain.EventTap
	ui         domain.ChooserUI
	sampler    domain.MemorySampler
	relauncher domain.Relauncher
	registry   domain.DaemonRegistry
	logger     *zap.Logger

	restart chan string
}

// NewRunner creates a daemon runner over the platform adapters.
func NewRunner(
	config RunnerConfig,
	version string,
	ax domain.Introspector,
	procs domain.ProcessRegistry,
	tap domain.EventTap,
	ui domain.ChooserUI,
	sampler domain.MemorySampler,
	relauncher domain.Relauncher,
	registry domain.DaemonRegistry,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		config:     config,
		version:    version,
		ax:         ax,
		procs:      procs,
		tap:        tap,
		ui:         ui,
		sampler:    sampler,
		relauncher: relauncher,
		registry:   registry,
		logger:     logger,
		restart:    make(chan string, 1),
	}
}

// RequestRestart asks the daemon to re-exec itself; used by the config
// watcher so file edits take effect without a manual restart.
func (r *Runner) RequestRestart(reason string) {
	select {
	case r.restart <- reason:
	default:
	}
}

// Run starts the daemon and blocks until shutdown.
func (r *Runner) Run(ctx context.Context) error {
	pid := os.Getpid()
	if err := r.registry.Register(pid, r.version); err != nil {
		r.logger.Warn("daemon registry unavailable", zap.Error(err))
	}

	r.logger.Info("daemon starting",
		zap.Int("pid", pid),
		zap.String("version", r.version))

	// Raise the one-time permission dialog on first launch; without the
	// grant the daemon idles and re-checks until the user flips the
	// setting, so a later grant needs no manual restart.
	if !r.ax.Trusted(true) {
		r.logger.Warn("introspection access not granted, waiting")
		if err := r.waitForTrust(ctx); err != nil {
			return err
		}
		r.logger.Info("introspection access granted")
	}

	loop := sched.New()
	loop.Start()
	defer loop.Stop()

	hit := usecase.NewHitTester(r.config.HitTester, r.ax, r.procs, r.logger)
	windows := usecase.NewWindowService(r.config.Windows, r.ax, r.procs, loop, r.logger)
	ctrl := usecase.NewController(r.config.Controller, loop, hit, windows, r.ui, r.procs, r.logger)

	events := NewEventMonitor(r.config.Events, r.tap, loop,
		ctrl.Dispatch, ctrl.ResetTransientState, r.logger)

	health := NewHealthMonitor(r.config.Health, loop, events, ctrl, r.sampler,
		func() { r.RequestRestart("memory pressure") }, r.logger)

	r.procs.WatchTerminations(func(pid int) {
		loop.Do(func() { ctrl.HandleAppTermination(pid) })
	})

	var startErr error
	startDone := make(chan struct{})
	loop.Do(func() {
		startErr = events.Start()
		if startErr == nil {
			health.Start()
		}
		close(startDone)
	})
	<-startDone
	if startErr != nil {
		return startErr
	}
	defer func() {
		done := make(chan struct{})
		loop.Do(func() {
			health.Stop()
			events.Stop()
			ctrl.ForceCloseSession()
			close(done)
		})
		<-done
	}()

	heartbeat := time.NewTicker(r.config.RegistryHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("daemon stopping")
			return ctx.Err()

		case reason := <-r.restart:
			r.logger.Warn("restarting", zap.String("reason", reason))
			if err := r.relauncher.Relaunch(r.config.RelaunchArgs...); err != nil {
				r.logger.Error("relaunch failed, continuing", zap.Error(err))
				continue
			}
			return nil

		case <-heartbeat.C:
			if err := r.registry.UpdateHeartbeat(); err != nil {
				r.logger.Warn("heartbeat update failed", zap.Error(err))
			}
		}
	}
}

func (r *Runner) waitForTrust(ctx context.Context) error {
	ticker := time.NewTicker(r.config.TrustPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.ax.Trusted(false) {
				return nil
			}
		}
	}
}
