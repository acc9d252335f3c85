// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

// ConversationMessage is one structured message entry carried inside a
// notification payload, ordered oldest to newest in RawNotification.Messages.
type ConversationMessage struct {
	Text   string
	Sender string // empty when the platform did not expose a sender object
}

// RawNotification is the OS-delivered notification payload as forwarded by the
// device bridge. Read-only to the pipeline.
type RawNotification struct {
	PackageID           string
	Key                 string // unique per posted notification, reused on re-post
	Title               string
	Text                string
	SubText             string
	BigText             string
	Messages            []ConversationMessage
	IsGroupConversation bool
}

// ParsedMessage is a conversational message extracted from a notification.
// Sender and Content are non-empty after classification.
type ParsedMessage struct {
	Sender  string
	Content string
}

// ReplyRequest is a command from the decision-maker to inject a reply into the
// chat app's UI.
type ReplyRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// RelayOutcomeKind classifies what the ingestion pipeline did with a
// notification.
type RelayOutcomeKind string

const (
	OutcomeDelivered      RelayOutcomeKind = "delivered"
	OutcomeRejected       RelayOutcomeKind = "rejected"
	OutcomeDeliveryFailed RelayOutcomeKind = "delivery_failed"
)

// RelayOutcome is the result of processing one notification.
type RelayOutcome struct {
	Kind    RelayOutcomeKind
	Message ParsedMessage // set when Kind == OutcomeDelivered
	Reason  string        // set when Kind != OutcomeDelivered
}

// Delivered builds a successful outcome carrying the relayed message.
func Delivered(msg ParsedMessage) RelayOutcome {
	return RelayOutcome{Kind: OutcomeDelivered, Message: msg}
}

// Rejected builds an admission-rejection outcome (silent to the decision-maker).
func Rejected(reason string) RelayOutcome {
	return RelayOutcome{Kind: OutcomeRejected, Reason: reason}
}

// DeliveryFailed builds an outcome for a message withheld because the
// conversation could not be brought to the foreground.
func DeliveryFailed(reason string) RelayOutcome {
	return RelayOutcome{Kind: OutcomeDeliveryFailed, Reason: reason}
}

// AutomationStatus is an outcome code reported to the decision-maker during a
// reply automation run. The set is closed; nothing else crosses that boundary.
type AutomationStatus string

const (
	StatusAttemptingReply        AutomationStatus = "attempting_reply_to_sender"
	StatusWarningChatTitle       AutomationStatus = "warning_chat_title_not_found"
	StatusSkippedInProgress      AutomationStatus = "skipped_reply_in_progress"
	StatusFailedUINotReady       AutomationStatus = "failed_ui_not_ready"
	StatusFailedNullRoot         AutomationStatus = "failed_null_root_during_action"
	StatusFailedInputNotFound    AutomationStatus = "failed_input_not_found"
	StatusFailedInputNotEditable AutomationStatus = "failed_input_not_editable"
	StatusFailedFocusForPaste    AutomationStatus = "failed_focus_for_paste"
	StatusFailedSetTextOrPaste   AutomationStatus = "failed_set_text_or_paste"
	StatusFailedNullRootForSend  AutomationStatus = "failed_null_root_for_send"
	StatusFailedSendNotFound     AutomationStatus = "failed_send_button_not_found"
	StatusFailedClickSend        AutomationStatus = "failed_click_send"
	StatusFailedException        AutomationStatus = "failed_exception"
	StatusSuccess                AutomationStatus = "success"
)

// Terminal reports whether the status ends an automation run. Exactly one
// terminal status is emitted per accepted reply request.
func (s AutomationStatus) Terminal() bool {
	switch s {
	case StatusAttemptingReply, StatusWarningChatTitle:
		return false
	}
	return true
}

// Failed reports whether the status is a terminal failure.
func (s AutomationStatus) Failed() bool {
	return s.Terminal() && s != StatusSuccess
}
