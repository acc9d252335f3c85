package bridge

import "github.com/secretarylab/relayd/internal/domain"

// node wraps one snapshot element as a domain.Node handle. Accessors read the
// snapshot; actions and Release go back over the wire against the device-side
// ref.
type node struct {
	snap     *nodeSnapshot
	bridge   *Bridge
	released bool
}

var _ domain.Node = (*node)(nil)

func (n *node) ChildCount() int { return len(n.snap.Children) }

func (n *node) Child(i int) domain.Node {
	if i < 0 || i >= len(n.snap.Children) {
		return nil
	}
	return &node{snap: n.snap.Children[i], bridge: n.bridge}
}

func (n *node) Text() string        { return n.snap.Text }
func (n *node) Description() string { return n.snap.Description }
func (n *node) ViewID() string      { return n.snap.ViewID }
func (n *node) ClassName() string   { return n.snap.ClassName }
func (n *node) Editable() bool      { return n.snap.Editable }
func (n *node) Enabled() bool       { return n.snap.Enabled }
func (n *node) Clickable() bool     { return n.snap.Clickable }

func (n *node) SetText(text string) bool {
	return n.bridge.perform(n.snap.Ref, actionSetText, text)
}

func (n *node) Focus() bool { return n.bridge.perform(n.snap.Ref, actionFocus, "") }
func (n *node) Paste() bool { return n.bridge.perform(n.snap.Ref, actionPaste, "") }
func (n *node) Click() bool { return n.bridge.perform(n.snap.Ref, actionClick, "") }

// Release tells the device helper it may recycle the backing element.
// Best-effort and idempotent; a handle is never released twice.
func (n *node) Release() {
	if n.released {
		return
	}
	n.released = true
	n.bridge.release(n.snap.Ref)
}
