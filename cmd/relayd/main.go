// Package main is the CLI entry point for relayd.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/secretarylab/relayd/internal/automation"
	"github.com/secretarylab/relayd/internal/bridge"
	"github.com/secretarylab/relayd/internal/classify"
	"github.com/secretarylab/relayd/internal/config"
	"github.com/secretarylab/relayd/internal/daemon"
	"github.com/secretarylab/relayd/internal/domain"
	"github.com/secretarylab/relayd/internal/heuristics"
	"github.com/secretarylab/relayd/internal/infra"
	"github.com/secretarylab/relayd/internal/pipeline"
	"github.com/secretarylab/relayd/internal/server"
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
	Use:   "relayd",
	Short: "Chat notification relay and reply automation daemon",
	Long: `relayd ingests chat-app notifications from a device bridge, filters out
summary and system noise, relays real conversational messages to an external
decision-maker over a local HTTP/websocket API, and on command drives the
chat app's accessibility tree to inject a reply.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay daemon",
	Long: `Starts the control API and waits for the device bridge to connect.
The decision-maker subscribes to /events and posts replies to /reply.`,
	RunE: runRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon and bridge status",
	Long:  `Queries the running daemon's health endpoint and checks the bridge transport process.`,
	RunE:  runStatus,
}

var heuristicsCmd = &cobra.Command{
	Use:   "heuristics",
	Short: "Print the effective target-app heuristics",
	Long: `Shows the heuristic data in effect after applying any configured override
file: target packages, filter keywords, and element lookup candidates.`,
	RunE: runHeuristics,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to TOML config file")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(heuristicsCmd)
	rootCmd.AddCommand(versionCmd)
}

// notificationEvents adapts the ingestion pipeline to the bridge's event
// interface (the pipeline's outcome is observed through logs and /events).
type notificationEvents struct {
	pipeline *pipeline.Pipeline
}

func (n *notificationEvents) HandleNotification(ctx context.Context, raw domain.RawNotification) {
	n.pipeline.OnNotification(ctx, raw)
}

func (n *notificationEvents) HandleNotificationRemoved(key string) {
	n.pipeline.OnNotificationRemoved(key)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := loadHeuristics(cfg)
	if err != nil {
		return err
	}

	state := domain.NewSessionState()
	hub := server.NewHub(logger)
	classifier := classify.NewClassifier(store, logger)

	events := &notificationEvents{}
	br := bridge.New(events, logger)

	events.pipeline = pipeline.NewPipeline(
		pipeline.Config{
			ActivationAttempts: cfg.Pipeline.ActivationAttempts,
			ActivationInterval: time.Duration(cfg.Pipeline.ActivationIntervalMS) * time.Millisecond,
		},
		classifier, br, hub, state, logger,
	)

	gate := automation.NewGate(
		automation.GateConfig{
			MaxAttempts: cfg.Automation.StabilizationAttempts,
			Interval:    time.Duration(cfg.Automation.StabilizationIntervalMS) * time.Millisecond,
		},
		br, logger,
	)
	engine := automation.NewEngine(
		automation.Config{
			SettleDelay:   time.Duration(cfg.Automation.SettleDelayMS) * time.Millisecond,
			PreClickDelay: time.Duration(cfg.Automation.PreClickDelayMS) * time.Millisecond,
			ClickAttempts: cfg.Automation.ClickAttempts,
			ClickInterval: time.Duration(cfg.Automation.ClickIntervalMS) * time.Millisecond,
		},
		gate, br, br, hub, store, state, logger,
	)

	api := server.NewAPI(engine, br, hub, logger)
	srv := server.NewServer(logger, cfg.Server.Addr, api)

	d := daemon.New(
		daemon.Config{
			HealthInterval:   time.Duration(cfg.Bridge.HealthIntervalSec) * time.Second,
			ShutdownTimeout:  5 * time.Second,
			TransportProcess: cfg.Bridge.TransportProcess,
		},
		srv, br, infra.NewProcessChecker(), logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	br.Start(ctx)
	err = d.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Println("\n=== relayd Status ===")

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + cfg.Server.Addr + "/health")
	if err != nil {
		fmt.Println("Daemon: NOT RUNNING")
	} else {
		defer resp.Body.Close()
		var health struct {
			Status          string `json:"status"`
			BridgeConnected bool   `json:"bridge_connected"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&health); err == nil {
			fmt.Println("Daemon: RUNNING")
			if health.BridgeConnected {
				fmt.Println("Device bridge: CONNECTED")
			} else {
				fmt.Println("Device bridge: NOT CONNECTED")
			}
		}
	}

	if cfg.Bridge.TransportProcess != "" {
		running, err := infra.NewProcessChecker().IsProcessRunning(cfg.Bridge.TransportProcess)
		switch {
		case err != nil:
			fmt.Printf("Transport (%s): unknown (%v)\n", cfg.Bridge.TransportProcess, err)
		case running:
			fmt.Printf("Transport (%s): running\n", cfg.Bridge.TransportProcess)
		default:
			fmt.Printf("Transport (%s): not running\n", cfg.Bridge.TransportProcess)
		}
	}

	fmt.Println("=====================")
	return nil
}

func runHeuristics(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := loadHeuristics(cfg)
	if err != nil {
		return err
	}
	set := store.Get()

	fmt.Println("\n=== Effective Heuristics ===")
	fmt.Println("Target packages:")
	for _, p := range set.TargetPackages {
		fmt.Printf("  - %s\n", p)
	}
	fmt.Printf("App display name: %s\n", set.AppDisplayName)
	fmt.Println("Non-conversational keywords:")
	for _, kw := range set.NonConversationalKeywords {
		fmt.Printf("  - %s\n", kw)
	}
	fmt.Println("Input field IDs:")
	for _, id := range set.InputFieldIDs {
		fmt.Printf("  - %s\n", id)
	}
	fmt.Println("Input placeholders:")
	for _, t := range set.InputPlaceholders {
		fmt.Printf("  - %s\n", t)
	}
	fmt.Println("Send button IDs:")
	for _, id := range set.SendButtonIDs {
		fmt.Printf("  - %s\n", id)
	}
	fmt.Printf("Send button label: %s\n", set.SendButtonLabel)
	fmt.Println("Chat title IDs:")
	for _, id := range set.ChatTitleIDs {
		fmt.Printf("  - %s\n", id)
	}
	fmt.Println("============================")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("relayd %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

func loadHeuristics(cfg config.Config) (*heuristics.Store, error) {
	if cfg.Heuristics.Path == "" {
		return heuristics.NewStore(), nil
	}
	return heuristics.Load(cfg.Heuristics.Path)
}

func createLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "console" {
		zcfg.Encoding = "console"
	}
	return zcfg.Build()
}
