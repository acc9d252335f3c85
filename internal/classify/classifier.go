package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/domain"
	"github.com/secretarylab/relayd/internal/heuristics"
)

// Rejection reasons returned by Classify. Rejections are silent toward the
// decision-maker; the reason only feeds logs and tests.
const (
	ReasonNonTargetPackage = "non_target_package"
	ReasonSummary          = "summary"
	ReasonSystemKeyword    = "system_keyword"
	ReasonNoContent        = "no_content"
	ReasonEmptySender      = "empty_sender"
)

// Classifier turns raw notification payloads into parsed messages. It is
// stateless; duplicate suppression is the pipeline's job.
type Classifier struct {
	heuristics *heuristics.Store
	logger     *zap.Logger
}

// NewClassifier creates a classifier using the given heuristic data.
func NewClassifier(hs *heuristics.Store, logger *zap.Logger) *Classifier {
	return &Classifier{heuristics: hs, logger: logger}
}

// IsTargetPackage reports whether pkg is a recognized target package. The
// pipeline uses this for its admission gate before debouncing.
func (c *Classifier) IsTargetPackage(pkg string) bool {
	return c.heuristics.Get().IsTargetPackage(pkg)
}

// Classify returns the parsed message for a conversational notification, or a
// non-empty rejection reason.
func (c *Classifier) Classify(n domain.RawNotification) (domain.ParsedMessage, string) {
	set := c.heuristics.Get()

	if !set.IsTargetPackage(n.PackageID) {
		return domain.ParsedMessage{}, ReasonNonTargetPackage
	}

	c.logger.Debug("notification payload",
		zap.String("key", n.Key),
		zap.String("title", n.Title),
		zap.String("text", n.Text),
		zap.String("sub_text", n.SubText),
		zap.String("big_text", n.BigText),
		zap.Bool("group", n.IsGroupConversation))

	if c.isSummary(set, n) {
		return domain.ParsedMessage{}, ReasonSummary
	}
	if c.matchesKeyword(set, n) {
		return domain.ParsedMessage{}, ReasonSystemKeyword
	}

	content, sender := extract(n)
	if content == "" || sender == "" {
		return domain.ParsedMessage{}, ReasonNoContent
	}

	cleaned := NormalizeSender(sender)
	if cleaned == "" {
		return domain.ParsedMessage{}, ReasonEmptySender
	}

	return domain.ParsedMessage{Sender: cleaned, Content: content}, ""
}

// isSummary detects aggregate notifications: "N messages from M chats" posted
// under the app's own name, or "new message from <chat>" shapes.
func (c *Classifier) isSummary(set heuristics.Set, n domain.RawNotification) bool {
	if heuristics.IsSummaryAggregate(n.Text) && strings.EqualFold(n.Title, set.AppDisplayName) {
		return true
	}
	return heuristics.IsNewMessageAggregate(n.Text)
}

// matchesKeyword checks title and text independently against the
// non-conversational keyword list, case-insensitively.
func (c *Classifier) matchesKeyword(set heuristics.Set, n domain.RawNotification) bool {
	title := strings.ToLower(n.Title)
	text := strings.ToLower(n.Text)
	for _, kw := range set.NonConversationalKeywords {
		lkw := strings.ToLower(kw)
		if lkw == "" {
			continue
		}
		if strings.Contains(text, lkw) || strings.Contains(title, lkw) {
			return true
		}
	}
	return false
}

// extract picks content and sender: the newest non-empty structured message
// wins, with the plain text/title pair as fallback.
func extract(n domain.RawNotification) (content, sender string) {
	for i := len(n.Messages) - 1; i >= 0; i-- {
		if n.Messages[i].Text != "" {
			return n.Messages[i].Text, n.Messages[i].Sender
		}
	}
	return n.Text, n.Title
}
