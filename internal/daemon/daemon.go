// Package daemon runs the relayd process: the control API plus periodic
// health checks on the device bridge and its transport.
package daemon

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds daemon timing and the transport process to watch.
type Config struct {
	HealthInterval   time.Duration // how often to check bridge/transport health
	ShutdownTimeout  time.Duration // grace period for the HTTP server
	TransportProcess string        // host process carrying the bridge (empty disables the check)
}

// DefaultConfig returns default daemon configuration.
func DefaultConfig() Config {
	return Config{
		HealthInterval:   30 * time.Second,
		ShutdownTimeout:  5 * time.Second,
		TransportProcess: "adb",
	}
}

// Server is the control API lifecycle.
type Server interface {
	Start() error
	Stop(ctx context.Context) error
}

// BridgeStatus reports device helper connectivity.
type BridgeStatus interface {
	Connected() bool
}

// TransportChecker reports whether a host process is running.
type TransportChecker interface {
	IsProcessRunning(name string) (bool, error)
}

// Daemon ties the server and health checks together.
type Daemon struct {
	config    Config
	server    Server
	bridge    BridgeStatus
	transport TransportChecker
	logger    *zap.Logger
}

// New creates a daemon.
func New(config Config, server Server, bridge BridgeStatus, transport TransportChecker, logger *zap.Logger) *Daemon {
	return &Daemon{
		config:    config,
		server:    server,
		bridge:    bridge,
		transport: transport,
		logger:    logger,
	}
}

// Run starts the control API and blocks until the context is canceled or the
// server fails.
func (d *Daemon) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := d.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	d.logger.Info("relayd started")
	d.checkHealth()

	ticker := time.NewTicker(d.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("relayd stopping")
			stopCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
			defer cancel()
			if err := d.server.Stop(stopCtx); err != nil {
				d.logger.Warn("server shutdown failed", zap.Error(err))
			}
			return ctx.Err()

		case err := <-errCh:
			d.logger.Error("control api failed", zap.Error(err))
			return err

		case <-ticker.C:
			d.checkHealth()
		}
	}
}

// checkHealth logs actionable connectivity problems; nothing here is fatal.
func (d *Daemon) checkHealth() {
	if !d.bridge.Connected() {
		d.logger.Warn("device bridge not connected")
	}

	if d.config.TransportProcess == "" || d.transport == nil {
		return
	}
	running, err := d.transport.IsProcessRunning(d.config.TransportProcess)
	if err != nil {
		d.logger.Debug("transport process check failed", zap.Error(err))
		return
	}
	if !running {
		d.logger.Warn("bridge transport process not running",
			zap.String("process", d.config.TransportProcess))
	}
}
