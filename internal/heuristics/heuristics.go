// Package heuristics holds the target-app knowledge the system depends on:
// package names, summary-notification shapes, non-conversational keywords, and
// element lookup candidates. All of it is brittle against upstream UI changes,
// so it is configuration data with compiled-in defaults, overridable from a
// TOML file.
package heuristics

import "regexp"

// Set is the effective heuristic data used by the classifier and the reply
// engine. Field order follows the flow: admission, filtering, then element
// discovery.
type Set struct {
	// TargetPackages are the package IDs whose notifications are processed.
	TargetPackages []string `toml:"target_packages"`

	// AppDisplayName is the app's own notification title on summary
	// notifications ("3 messages from 2 chats").
	AppDisplayName string `toml:"app_display_name"`

	// NonConversationalKeywords mark call state, typing indicators, group
	// membership announcements and media-only placeholders. Matched
	// case-insensitively as substrings of title and text independently.
	NonConversationalKeywords []string `toml:"non_conversational_keywords"`

	// InputFieldIDs are known resource IDs of the message input field,
	// tried in order.
	InputFieldIDs []string `toml:"input_field_ids"`

	// InputPlaceholders are placeholder strings searched for when no ID
	// matches, first as visible text, then as content description.
	InputPlaceholders []string `toml:"input_placeholders"`

	// SendButtonIDs are known resource IDs of the send button.
	SendButtonIDs []string `toml:"send_button_ids"`

	// SendButtonLabel is matched against description, then against
	// text/description of generic buttons, case-insensitively.
	SendButtonLabel string `toml:"send_button_label"`

	// ButtonClass is the generic clickable-button widget class used by the
	// last-resort send button scan.
	ButtonClass string `toml:"button_class"`

	// ChatTitleIDs are known resource IDs of the conversation title, used
	// by the warn-only identity check.
	ChatTitleIDs []string `toml:"chat_title_ids"`

	// ToolbarClass and TextViewClass drive the chat-title fallback scan.
	ToolbarClass  string `toml:"toolbar_class"`
	TextViewClass string `toml:"text_view_class"`
}

// Summary-notification shapes. These two are structural (regex), unlike the
// keyword list, and are not expected to need per-deployment overrides.
var (
	// summaryAggregate matches "3 messages from 2 chats".
	summaryAggregate = regexp.MustCompile(`(?i)\bmessages from\b`)

	// summaryNewMessage matches "New message from <chat>" aggregates.
	summaryNewMessage = regexp.MustCompile(`(?i)\bnew message from\b`)

	chatWord = regexp.MustCompile(`(?i)\bchat`)
)

// IsSummaryAggregate reports whether text has the "N messages from M chats"
// shape.
func IsSummaryAggregate(text string) bool {
	return summaryAggregate.MatchString(text)
}

// IsNewMessageAggregate reports whether text has the "new message from <chat>"
// shape.
func IsNewMessageAggregate(text string) bool {
	return summaryNewMessage.MatchString(text) && chatWord.MatchString(text)
}

// Default returns the compiled-in heuristic data for WhatsApp and WhatsApp
// Business.
func Default() Set {
	return Set{
		TargetPackages: []string{"com.whatsapp", "com.whatsapp.w4b"},
		AppDisplayName: "WhatsApp",
		NonConversationalKeywords: []string{
			"new messages", "WhatsApp Web", "missed call",
			"checking for new messages",
			"group privately in a status", "You have new messages",
			"Voice message", "Photo", "Video", "You created group",
			"You were added to group",
			"Missed voice call", "Missed video call", "Calling",
			"Incoming call", "Ended call", "Call ended", "Typing...",
			"recording audio...",
		},
		InputFieldIDs: []string{
			"com.whatsapp:id/entry",
			"com.whatsapp:id/et_text_input",
			"com.whatsapp:id/message_et",
			"com.whatsapp:id/text_input",
		},
		InputPlaceholders: []string{"Type a message", "Message"},
		SendButtonIDs: []string{
			"com.whatsapp:id/send",
			"com.whatsapp:id/send_button",
		},
		SendButtonLabel: "Send",
		ButtonClass:     "android.widget.Button",
		ChatTitleIDs: []string{
			"com.whatsapp:id/conversation_title",
			"com.whatsapp:id/contact_name",
			"com.whatsapp:id/group_name",
			"com.whatsapp:id/toolbar_title",
		},
		ToolbarClass:  "android.widget.Toolbar",
		TextViewClass: "android.widget.TextView",
	}
}

// IsTargetPackage reports whether pkg is one of the recognized target
// packages.
func (s Set) IsTargetPackage(pkg string) bool {
	for _, p := range s.TargetPackages {
		if p == pkg {
			return true
		}
	}
	return false
}
