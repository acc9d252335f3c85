package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/domain"
)

// stubNode implements domain.Node for testing with scripted action results.
// A non-empty setTextPanic makes SetText panic, modeling a helper crash
// mid-action.
type stubNode struct {
	viewID       string
	class        string
	text         string
	desc         string
	editable     bool
	setTextOK    bool
	setTextPanic string
	focusOK      bool
	pasteOK      bool
	clickOK      bool
	children     []*stubNode

	setTexts []string
	clicks   int
	released int
}

func (s *stubNode) ChildCount() int { return len(s.children) }

func (s *stubNode) Child(i int) domain.Node { return s.children[i] }

func (s *stubNode) Text() string        { return s.text }
func (s *stubNode) Description() string { return s.desc }
func (s *stubNode) ViewID() string      { return s.viewID }
func (s *stubNode) ClassName() string   { return s.class }
func (s *stubNode) Editable() bool      { return s.editable }
func (s *stubNode) Enabled() bool       { return true }
func (s *stubNode) Clickable() bool     { return true }

func (s *stubNode) SetText(text string) bool {
	if s.setTextPanic != "" {
		panic(s.setTextPanic)
	}
	s.setTexts = append(s.setTexts, text)
	return s.setTextOK
}

func (s *stubNode) Focus() bool { return s.focusOK }
func (s *stubNode) Paste() bool { return s.pasteOK }

func (s *stubNode) Click() bool {
	s.clicks++
	return s.clickOK
}

func (s *stubNode) Release() { s.released++ }

// stubTreeProvider implements domain.TreeProvider, popping one root per call.
type stubTreeProvider struct {
	roots []domain.Node // nil entries model a missing root
	calls int
}

func (p *stubTreeProvider) Root(ctx context.Context) domain.Node {
	p.calls++
	if len(p.roots) == 0 {
		return nil
	}
	root := p.roots[0]
	p.roots = p.roots[1:]
	if root == nil {
		return nil
	}
	return root
}

func testGateConfig(attempts int) GateConfig {
	return GateConfig{MaxAttempts: attempts, Interval: time.Millisecond}
}

// TestWaitStableImmediate verifies a populated root passes on the first poll
func TestWaitStableImmediate(t *testing.T) {
	root := &stubNode{children: []*stubNode{{}}}
	trees := &stubTreeProvider{roots: []domain.Node{root}}
	g := NewGate(testGateConfig(3), trees, zap.NewNop())

	got, ok := g.WaitStable(context.Background())
	assert.True(t, ok)
	assert.Same(t, domain.Node(root), got)
	assert.Equal(t, 1, trees.calls)
	assert.Zero(t, root.released, "ownership transfers to the caller")
}

// TestWaitStableAfterEmptyRoots verifies childless roots are released and
// polling continues
func TestWaitStableAfterEmptyRoots(t *testing.T) {
	empty := &stubNode{}
	ready := &stubNode{children: []*stubNode{{}}}
	trees := &stubTreeProvider{roots: []domain.Node{nil, empty, ready}}
	g := NewGate(testGateConfig(5), trees, zap.NewNop())

	got, ok := g.WaitStable(context.Background())
	assert.True(t, ok)
	assert.Same(t, domain.Node(ready), got)
	assert.Equal(t, 3, trees.calls)
	assert.Equal(t, 1, empty.released, "unstable root handle released")
}

// TestWaitStableExhausted verifies the attempt bound
func TestWaitStableExhausted(t *testing.T) {
	trees := &stubTreeProvider{}
	g := NewGate(testGateConfig(4), trees, zap.NewNop())

	got, ok := g.WaitStable(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 4, trees.calls)
}

// TestWaitStableCanceled verifies cancellation stops the poll loop
func TestWaitStableCanceled(t *testing.T) {
	trees := &stubTreeProvider{}
	g := NewGate(GateConfig{MaxAttempts: 10, Interval: time.Minute}, trees, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, ok := g.WaitStable(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 1, trees.calls, "no second poll after cancellation")
}
