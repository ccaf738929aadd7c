// Package main is the CLI entry point for docktoggler.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LimTec-de/dockapptoggler/internal/config"
	"github.com/LimTec-de/dockapptoggler/internal/daemon"
	"github.com/LimTec-de/dockapptoggler/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.3.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docktoggler",
	Short: "Dock click and hover window management",
	Long: `docktoggler watches the dock: hovering an icon opens a window
chooser, clicking an icon toggles the application between hidden and
restored. Window stacking order is preserved across hide and restore.

Requires accessibility and input monitoring permissions.`,
	Version: Version,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	Long: `Spawns the daemon detached from the terminal. On first launch the
system permission dialogs appear; the daemon waits for the grants and
then begins monitoring.`,
	RunE: runStart,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	Long:  `Runs the daemon attached to the terminal. Used by start for the background copy.`,
	RunE:  runDaemon,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	Long:  `Shows whether the daemon is running and when it last reported in.`,
	RunE:  runStatus,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runStop,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath  string
	debugLog    bool
	skipWelcome bool
	jsonOutput  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: XDG config dir)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
	runCmd.Flags().BoolVar(&skipWelcome, "skip-welcome", false, "Suppress the first-run banner")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	registry := infra.NewFileRegistry()

	alive, _ := registry.IsDaemonAlive()
	if alive {
		fmt.Println("docktoggler is already running")
		return nil
	}

	spawnArgs := []string{"run", "--skip-welcome"}
	if configPath != "" {
		spawnArgs = append(spawnArgs, "--config", configPath)
	}
	if debugLog {
		spawnArgs = append(spawnArgs, "--debug")
	}

	pid, err := daemon.StartDetached(spawnArgs...)
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Give the daemon a moment to register before reporting.
	time.Sleep(500 * time.Millisecond)

	fmt.Printf("docktoggler started (pid %d)\n", pid)
	fmt.Println("Hover a dock icon for the window chooser; click to toggle.")
	fmt.Println("If this is the first run, grant the permission dialogs that appear.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	registry := infra.NewFileRegistry()

	entry, err := registry.Get()
	if err != nil || entry == nil {
		fmt.Println("Status: NOT RUNNING")
		fmt.Println("\nRun 'docktoggler start' to begin.")
		return nil
	}

	alive, _ := registry.IsDaemonAlive()
	if alive {
		fmt.Printf("Status: RUNNING (pid %d)\n", entry.PID)
	} else {
		fmt.Println("Status: NOT RUNNING (stale registry entry)")
	}

	if entry.AppVersion != "" {
		fmt.Printf("Version: %s\n", entry.AppVersion)
	}
	if entry.StartedAt > 0 {
		fmt.Printf("Started: %s ago\n",
			time.Since(time.Unix(entry.StartedAt, 0)).Round(time.Second))
	}
	if entry.LastHeartbeat > 0 {
		fmt.Printf("Last heartbeat: %s ago\n",
			time.Since(time.Unix(entry.LastHeartbeat, 0)).Round(time.Second))
	}
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	registry := infra.NewFileRegistry()

	entry, err := registry.Get()
	if err != nil || entry == nil {
		fmt.Println("docktoggler is not running")
		return nil
	}

	alive, _ := registry.IsDaemonAlive()
	if !alive {
		fmt.Println("docktoggler is not running (clearing stale registry entry)")
		return registry.Clear()
	}

	proc, err := os.FindProcess(entry.PID)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal pid %d: %w", entry.PID, err)
	}

	fmt.Printf("Stopped docktoggler (pid %d)\n", entry.PID)
	return registry.Clear()
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if !skipWelcome {
		fmt.Println("docktoggler running; logs in /var/tmp/docktoggler.log")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	registry := infra.NewFileRegistry()
	defer func() { _ = registry.Clear() }()

	// A relaunched copy keeps the same flags it was started with.
	relaunchArgs := []string{"run"}
	if configPath != "" {
		relaunchArgs = append(relaunchArgs, "--config", configPath)
	}
	if debugLog {
		relaunchArgs = append(relaunchArgs, "--debug")
	}

	runner := daemon.NewRunner(
		cfg.RunnerConfig(),
		Version,
		infra.NewAXIntrospector(),
		infra.NewWorkspaceRegistry(),
		infra.NewCGEventTap(),
		infra.NewPanelChooser(nil, logger),
		infra.NewProcessMemorySampler(),
		infra.NewSelfRelauncher(relaunchArgs...),
		registry,
		logger,
	)

	// A config edit restarts the daemon so every component picks up the
	// new settings.
	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		runner.RequestRestart("config change")
	}, logger)
	if err == nil {
		if err := watcher.Start(); err != nil {
			logger.Warn("config watcher start failed", zap.Error(err))
		}
		defer func() { _ = watcher.Stop() }()
	}

	err = runner.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func createLogger() *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"/var/tmp/docktoggler.log"}
	zcfg.ErrorOutputPaths = []string{"/var/tmp/docktoggler.error.log"}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debugLog {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := zcfg.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("docktoggler %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
