// Package pipeline routes incoming notification events: dedupe, classify,
// conversation activation, then relay to the decision-maker.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/classify"
	"github.com/secretarylab/relayd/internal/domain"
)

// Rejection/failure reasons the pipeline adds on top of the classifier's.
const (
	ReasonDuplicate        = "duplicate"
	ReasonActivationFailed = "activation_failed"
)

// Config holds the activation retry policy.
type Config struct {
	ActivationAttempts int           // independent, idempotent attempts
	ActivationInterval time.Duration // wait between attempts
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{
		ActivationAttempts: 3,
		ActivationInterval: time.Second,
	}
}

// Pipeline is the ingestion pipeline. OnNotification runs synchronously on
// the delivering goroutine; the only intentional wait is the bounded
// activation retry.
type Pipeline struct {
	config     Config
	classifier *classify.Classifier
	activator  domain.Activator
	link       domain.AgentLink
	state      *domain.SessionState
	logger     *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	config Config,
	classifier *classify.Classifier,
	activator domain.Activator,
	link domain.AgentLink,
	state *domain.SessionState,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		config:     config,
		classifier: classifier,
		activator:  activator,
		link:       link,
		state:      state,
		logger:     logger,
	}
}

// OnNotification processes one posted notification. Admission rejections are
// silent toward the decision-maker; a message whose conversation could not be
// activated is withheld (a reply without visual context is unsafe).
func (p *Pipeline) OnNotification(ctx context.Context, n domain.RawNotification) domain.RelayOutcome {
	if !p.classifier.IsTargetPackage(n.PackageID) {
		return domain.Rejected(classify.ReasonNonTargetPackage)
	}

	// Debounce sits between the package gate and filtering: a summary
	// notification still occupies the last-seen slot.
	if !p.state.AdmitNotification(n.Key) {
		p.logger.Debug("duplicate notification dropped", zap.String("key", n.Key))
		return domain.Rejected(ReasonDuplicate)
	}

	msg, reason := p.classifier.Classify(n)
	if reason != "" {
		p.logger.Debug("notification rejected",
			zap.String("key", n.Key),
			zap.String("reason", reason))
		return domain.Rejected(reason)
	}

	if !p.activateWithRetry(ctx, n.Key) {
		p.logger.Error("conversation activation failed, withholding message",
			zap.String("key", n.Key),
			zap.String("sender", msg.Sender))
		return domain.DeliveryFailed(ReasonActivationFailed)
	}

	p.link.IncomingMessage(msg.Sender, msg.Content)
	p.logger.Info("message relayed",
		zap.String("sender", msg.Sender),
		zap.Int("content_len", len(msg.Content)))
	return domain.Delivered(msg)
}

// OnNotificationRemoved clears the debounce slot when the OS removes the
// notification it refers to, so a re-post of the same key counts as new.
func (p *Pipeline) OnNotificationRemoved(key string) {
	p.state.ClearIfLastSeen(key)
	p.logger.Debug("notification removed", zap.String("key", key))
}

// activateWithRetry taps the notification to bring its conversation to the
// foreground. Attempts are independent and idempotent; the wait between them
// is a deliberate blocking backoff on the delivering goroutine.
func (p *Pipeline) activateWithRetry(ctx context.Context, key string) bool {
	for attempt := 1; attempt <= p.config.ActivationAttempts; attempt++ {
		err := p.activator.Activate(ctx, key)
		if err == nil {
			p.logger.Debug("conversation activated",
				zap.String("key", key),
				zap.Int("attempt", attempt))
			return true
		}
		p.logger.Warn("activation attempt failed",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < p.config.ActivationAttempts {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(p.config.ActivationInterval):
			}
		}
	}
	return false
}
