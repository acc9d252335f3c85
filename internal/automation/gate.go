// Package automation drives the reply injection: waiting for the foreign UI
// to stabilize, locating elements, injecting text and clicking send.
package automation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/domain"
)

// GateConfig bounds the stabilization wait.
type GateConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultGateConfig returns the production polling policy.
func DefaultGateConfig() GateConfig {
	return GateConfig{MaxAttempts: 10, Interval: 500 * time.Millisecond}
}

// Gate polls the UI tree until it looks populated. The target app may still
// be constructing its view hierarchy right after activation; searching an
// empty tree guarantees element-search failure.
type Gate struct {
	config GateConfig
	trees  domain.TreeProvider
	logger *zap.Logger
}

// NewGate creates a stabilization gate over the given tree provider.
func NewGate(config GateConfig, trees domain.TreeProvider, logger *zap.Logger) *Gate {
	return &Gate{config: config, trees: trees, logger: logger}
}

// WaitStable fetches the root until it is non-nil and has at least one child.
// On success the stable root is returned with ownership transferred to the
// caller. After MaxAttempts unsuccessful polls (or context cancellation) it
// returns (nil, false) and no handle is retained.
func (g *Gate) WaitStable(ctx context.Context) (domain.Node, bool) {
	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		root := g.trees.Root(ctx)
		if root != nil && root.ChildCount() > 0 {
			g.logger.Debug("ui stabilized",
				zap.Duration("waited", time.Duration(attempt)*g.config.Interval))
			return root, true
		}
		if root != nil {
			root.Release()
		}
		g.logger.Debug("ui not yet stable",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", g.config.MaxAttempts))
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(g.config.Interval):
		}
	}
	g.logger.Error("ui never stabilized", zap.Int("attempts", g.config.MaxAttempts))
	return nil, false
}
