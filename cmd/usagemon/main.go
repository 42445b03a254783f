// Package main is the CLI entry point for usagemon.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkliu/usagemon/internal/config"
	"github.com/mkliu/usagemon/internal/domain"
	"github.com/mkliu/usagemon/internal/infra"
	"github.com/mkliu/usagemon/internal/infra/x11"
	"github.com/mkliu/usagemon/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "usagemon",
	Short: "Usage monitor - logs foreground window focus and idle time",
	Long: `usagemon observes which application window holds focus and whether
the user is actively interacting with the machine, and appends a
human-auditable CSV record, one file per day.

Everything stays on this host: no network, no remote storage.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring daemon in the foreground",
	Long: `Starts monitoring and blocks until a signal arrives.
SIGINT ends the log with "Application Terminated by User", SIGTERM with
"System Shutdown", SIGHUP with "System Logoff".`,
	RunE: runRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the monitor is running",
	RunE:  runStatus,
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print recent rows from today's activity log",
	RunE:  runTail,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath string
	tailLines  int
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 20, "Number of rows to print")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	bootLogger, _ := zap.NewProduction()
	cfg, err := config.Load(configPath, bootLogger)
	_ = bootLogger.Sync()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := createLogger(cfg.LogDirectory)
	defer func() { _ = logger.Sync() }()

	// Refuse to start when another live instance holds the registry.
	registry := infra.NewFileRunRegistry()
	pc := infra.NewProcessChecker()
	if current, err := registry.Current(); err == nil && current != nil {
		if pc.IsRunning(current.PID) && current.PID != pc.CurrentPID() {
			return fmt.Errorf("usagemon is already running (pid %d)", current.PID)
		}
		logger.Info("clearing stale run registry", zap.Int("pid", current.PID))
		_ = registry.Clear()
	}

	if err := registry.Register(domain.RunInfo{
		PID:          pc.CurrentPID(),
		StartedAt:    time.Now().Unix(),
		LogDirectory: cfg.LogDirectory,
		AppVersion:   Version,
	}); err != nil {
		logger.Warn("failed to register run", zap.Error(err))
	}

	source, err := x11.New(cfg.PollInterval(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event source: %w", err)
	}

	sink := infra.NewZapErrorSink(logger)
	activityLog := infra.NewActivityLog(cfg.LogDirectory, sink)

	engine := usecase.NewEngine(usecase.EngineConfig{
		IdleThreshold: cfg.IdleThreshold(),
		CheckInterval: cfg.CheckInterval(),
		Heartbeat: func() {
			if err := registry.Heartbeat(); err != nil {
				logger.Debug("heartbeat failed", zap.Error(err))
			}
		},
	}, source, infra.NewTickerTimer(), activityLog, logger)

	if err := engine.Start(); err != nil {
		_ = registry.Clear()
		return fmt.Errorf("failed to start engine: %w", err)
	}

	fmt.Printf("usagemon running, logging to %s\n", cfg.LogDirectory)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-sigChan

	reason := terminationReason(sig)
	logger.Info("received shutdown signal",
		zap.String("signal", sig.String()),
		zap.String("reason", reason))

	engine.StopWithReason(reason)

	// Give the final append a moment to reach disk before the process
	// is torn down.
	time.Sleep(time.Second)

	_ = registry.Clear()
	return nil
}

// terminationReason maps a shutdown signal to the closing log row.
func terminationReason(sig os.Signal) string {
	switch sig {
	case syscall.SIGTERM:
		return domain.MsgSystemShutdown
	case syscall.SIGHUP:
		return domain.MsgSystemLogoff
	default:
		return domain.MsgUserTerminated
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	registry := infra.NewFileRunRegistry()
	pc := infra.NewProcessChecker()

	fmt.Println("\n=== usagemon Status ===")

	current, err := registry.Current()
	if err != nil || current == nil {
		fmt.Println("Status: NOT RUNNING")
		fmt.Println("\nRun 'usagemon run' to start monitoring.")
		return nil
	}

	if pc.IsRunning(current.PID) {
		fmt.Println("Status: RUNNING")
		fmt.Printf("PID: %d\n", current.PID)
		fmt.Printf("Uptime: %s\n", time.Since(current.StartedTime()).Round(time.Second))
	} else {
		fmt.Println("Status: NOT RUNNING (stale registry entry)")
	}

	if current.LastHeartbeat > 0 {
		lastBeat := time.Unix(current.LastHeartbeat, 0)
		fmt.Printf("Last heartbeat: %s ago\n", time.Since(lastBeat).Round(time.Second))
	}

	fmt.Printf("Log directory: %s\n", current.LogDirectory)

	activityLog := infra.NewActivityLog(current.LogDirectory, infra.NewZapErrorSink(zap.NewNop()))
	events, err := activityLog.ReadDay(time.Now())
	if err == nil {
		fmt.Printf("Today's log: %s (%d rows)\n",
			filepath.Base(activityLog.FilePath(time.Now())), len(events))
	}

	fmt.Println("=======================")
	return nil
}

func runTail(cmd *cobra.Command, args []string) error {
	bootLogger := zap.NewNop()
	cfg, err := config.Load(configPath, bootLogger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := cfg.LogDirectory
	// Prefer the directory the running instance actually writes to.
	registry := infra.NewFileRunRegistry()
	if current, err := registry.Current(); err == nil && current != nil && current.LogDirectory != "" {
		dir = current.LogDirectory
	}

	activityLog := infra.NewActivityLog(dir, infra.NewZapErrorSink(bootLogger))
	events, err := activityLog.ReadDay(time.Now())
	if err != nil {
		return fmt.Errorf("failed to read today's log: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No activity logged today.")
		return nil
	}

	start := len(events) - tailLines
	if start < 0 {
		start = 0
	}
	for _, ev := range events[start:] {
		fmt.Printf("%s  %s\n", ev.Timestamp.Format("15:04:05"), ev.Message)
	}
	return nil
}

func createLogger(logDir string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(logDir, "usagemon.log")}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger, _ := zap.NewProduction()
		return logger
	}

	logger, err := cfg.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("usagemon %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
