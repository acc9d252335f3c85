//go:build integration

package integration

import (
	"context"
	"sync"

	"github.com/secretarylab/relayd/internal/domain"
)

// memNode is an in-memory domain.Node for wiring full flows without a device.
type memNode struct {
	viewID    string
	class     string
	text      string
	desc      string
	editable  bool
	setTextOK bool
	focusOK   bool
	pasteOK   bool
	clickOK   bool
	children  []*memNode

	mu       sync.Mutex
	setTexts []string
	clicks   int
}

func (m *memNode) ChildCount() int         { return len(m.children) }
func (m *memNode) Child(i int) domain.Node { return m.children[i] }
func (m *memNode) Text() string            { return m.text }
func (m *memNode) Description() string     { return m.desc }
func (m *memNode) ViewID() string          { return m.viewID }
func (m *memNode) ClassName() string       { return m.class }
func (m *memNode) Editable() bool          { return m.editable }
func (m *memNode) Enabled() bool           { return true }
func (m *memNode) Clickable() bool         { return true }
func (m *memNode) Focus() bool             { return m.focusOK }
func (m *memNode) Paste() bool             { return m.pasteOK }
func (m *memNode) Release()                {}

func (m *memNode) SetText(text string) bool {
	m.mu.Lock()
	m.setTexts = append(m.setTexts, text)
	m.mu.Unlock()
	return m.setTextOK
}

func (m *memNode) Click() bool {
	m.mu.Lock()
	m.clicks++
	m.mu.Unlock()
	return m.clickOK
}

func (m *memNode) clickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicks
}

// memTree serves the same root snapshot on every poll.
type memTree struct {
	mu   sync.Mutex
	root *memNode
}

func (t *memTree) Root(ctx context.Context) domain.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return nil
	}
	return t.root
}

func (t *memTree) setRoot(root *memNode) {
	t.mu.Lock()
	t.root = root
	t.mu.Unlock()
}

// memActivator records activation requests and always succeeds.
type memActivator struct {
	mu   sync.Mutex
	keys []string
}

func (a *memActivator) Activate(ctx context.Context, key string) error {
	a.mu.Lock()
	a.keys = append(a.keys, key)
	a.mu.Unlock()
	return nil
}

func (a *memActivator) activatedKeys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.keys...)
}

// memClipboard records clipboard writes.
type memClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (c *memClipboard) SetText(ctx context.Context, label, text string) error {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()
	return nil
}

// memLink records everything sent toward the decision-maker.
type memLink struct {
	mu       sync.Mutex
	messages []domain.ParsedMessage
	statuses []domain.AutomationStatus
}

func (l *memLink) IncomingMessage(sender, content string) {
	l.mu.Lock()
	l.messages = append(l.messages, domain.ParsedMessage{Sender: sender, Content: content})
	l.mu.Unlock()
}

func (l *memLink) ReplyStatus(runID string, code domain.AutomationStatus) {
	l.mu.Lock()
	l.statuses = append(l.statuses, code)
	l.mu.Unlock()
}

func (l *memLink) relayedMessages() []domain.ParsedMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ParsedMessage(nil), l.messages...)
}

func (l *memLink) statusCodes() []domain.AutomationStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.AutomationStatus(nil), l.statuses...)
}
