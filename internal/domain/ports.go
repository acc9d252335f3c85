package domain

import "context"

// Node is a handle into the target application's accessibility tree, exposed
// by the device bridge. The tree is foreign and uncontrolled: every accessor
// reflects a snapshot, every action may fail, and every handle obtained from
// Child must be released exactly once - either by the call site that obtained
// it or by the caller it was returned to.
type Node interface {
	// ChildCount returns the number of children at snapshot time.
	ChildCount() int

	// Child returns the i-th child handle, or nil. Ownership transfers to
	// the caller.
	Child(i int) Node

	// Text returns the node's visible text, empty if none.
	Text() string

	// Description returns the accessibility content description.
	Description() string

	// ViewID returns the element's resource identifier, empty if unreported.
	ViewID() string

	// ClassName returns the widget class name.
	ClassName() string

	// Editable reports whether the node accepts text input.
	Editable() bool

	// Enabled reports whether the node is enabled.
	Enabled() bool

	// Clickable reports whether the node accepts click actions.
	Clickable() bool

	// SetText performs a direct set-text action. False means the target app
	// refused or the action failed.
	SetText(text string) bool

	// Focus requests input focus on the node.
	Focus() bool

	// Paste performs a paste action from the device clipboard.
	Paste() bool

	// Click performs a click action.
	Click() bool

	// Release frees the handle. Calling any other method afterwards is a bug.
	Release()
}

// TreeProvider fetches the current root of the active window's tree.
// Implementation: the device bridge (websocket snapshot RPC).
type TreeProvider interface {
	// Root returns the current root handle, or nil when no window is active
	// or the bridge is disconnected. The caller owns the returned handle.
	Root(ctx context.Context) Node
}

// Activator brings the conversation behind a notification to the foreground.
type Activator interface {
	// Activate taps the notification identified by key. Idempotent; safe to
	// retry.
	Activate(ctx context.Context, key string) error
}

// Clipboard writes to the device clipboard (paste fallback path).
type Clipboard interface {
	SetText(ctx context.Context, label, text string) error
}

// AgentLink is the fire-and-forget channel to the external decision-maker.
type AgentLink interface {
	// IncomingMessage relays an accepted conversational message.
	IncomingMessage(sender, content string)

	// ReplyStatus reports an automation status for the given run.
	ReplyStatus(runID string, code AutomationStatus)
}

// FailedException builds the exception status carrying a diagnostic message.
func FailedException(msg string) AutomationStatus {
	return AutomationStatus(string(StatusFailedException) + ": " + msg)
}
