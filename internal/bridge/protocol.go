// Package bridge speaks to the on-device helper over a websocket: it receives
// notification events and serves the accessibility-tree ports (snapshots,
// element actions, activation, clipboard) as correlated RPCs.
package bridge

import "github.com/secretarylab/relayd/internal/domain"

// Operations the host sends to the device helper.
const (
	opRoot      = "root"
	opPerform   = "perform"
	opActivate  = "activate"
	opClipboard = "clipboard"
	opRelease   = "release"
)

// Element actions carried by opPerform.
const (
	actionSetText = "set_text"
	actionFocus   = "focus"
	actionPaste   = "paste"
	actionClick   = "click"
)

// Event types the device helper pushes.
const (
	eventNotification        = "notification"
	eventNotificationRemoved = "notification_removed"
	eventWindowState         = "window_state"
)

// frame is the single wire envelope, both directions. Event frames carry
// Type; RPC frames carry ID (and Op on requests).
type frame struct {
	Type string `json:"type,omitempty"`
	ID   uint64 `json:"id,omitempty"`
	Op   string `json:"op,omitempty"`

	// Request fields.
	NodeRef string `json:"node,omitempty"`
	Action  string `json:"action,omitempty"`
	Text    string `json:"text,omitempty"`
	Label   string `json:"label,omitempty"`
	Key     string `json:"key,omitempty"`

	// Response fields.
	OK    bool          `json:"ok,omitempty"`
	Error string        `json:"error,omitempty"`
	Tree  *nodeSnapshot `json:"tree,omitempty"`

	// Event fields.
	Notification *notificationPayload `json:"notification,omitempty"`
	ClassName    string               `json:"class_name,omitempty"`
}

// nodeSnapshot is one element of a serialized tree snapshot. Ref stays valid
// on the device side until released or superseded by the next snapshot.
type nodeSnapshot struct {
	Ref         string          `json:"ref"`
	ClassName   string          `json:"class"`
	Text        string          `json:"text,omitempty"`
	Description string          `json:"desc,omitempty"`
	ViewID      string          `json:"view_id,omitempty"`
	Editable    bool            `json:"editable,omitempty"`
	Enabled     bool            `json:"enabled,omitempty"`
	Clickable   bool            `json:"clickable,omitempty"`
	Children    []*nodeSnapshot `json:"children,omitempty"`
}

// notificationPayload mirrors domain.RawNotification on the wire.
type notificationPayload struct {
	PackageID string           `json:"package"`
	Key       string           `json:"key"`
	Title     string           `json:"title,omitempty"`
	Text      string           `json:"text,omitempty"`
	SubText   string           `json:"sub_text,omitempty"`
	BigText   string           `json:"big_text,omitempty"`
	Messages  []messagePayload `json:"messages,omitempty"`
	Group     bool             `json:"group,omitempty"`
}

type messagePayload struct {
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
}

func (n *notificationPayload) toDomain() domain.RawNotification {
	msgs := make([]domain.ConversationMessage, 0, len(n.Messages))
	for _, m := range n.Messages {
		msgs = append(msgs, domain.ConversationMessage{Text: m.Text, Sender: m.Sender})
	}
	return domain.RawNotification{
		PackageID:           n.PackageID,
		Key:                 n.Key,
		Title:               n.Title,
		Text:                n.Text,
		SubText:             n.SubText,
		BigText:             n.BigText,
		Messages:            msgs,
		IsGroupConversation: n.Group,
	}
}
