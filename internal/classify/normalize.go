// Package classify decides whether a raw notification is a real
// conversational message and extracts (sender, content) from it.
package classify

import (
	"regexp"
	"strings"
)

// Notification chrome that leaks into sender labels. Each substitution is
// independent; absence of a pattern leaves the input unchanged.
var (
	messageCountTail  = regexp.MustCompile(`\s*\(\d+\s*messages\):?.*`)
	groupMemberAlias  = regexp.MustCompile(`:\s*~[^:]+`)
	unreadCountSuffix = regexp.MustCompile(`\s*\(\d+\s*unread messages\)`)
	youPrefix         = regexp.MustCompile(`^You:\s*`)
	trailingSymbols   = regexp.MustCompile(`[\p{So}\s]+$`)
	counterSuffix     = regexp.MustCompile(`\s*\(\d+\)$`)
)

// NormalizeSender strips notification-chrome artifacts from a raw sender
// label: message-count suffixes, group member aliasing, "You: " prefixes,
// trailing symbol runs and counters. The pass repeats until the string stops
// changing, since stripping one artifact can expose another ("Bob <emoji> (3)"
// hides the emoji run behind the counter). Total and idempotent; an already
// clean name passes through untouched.
func NormalizeSender(raw string) string {
	s := raw
	for {
		next := messageCountTail.ReplaceAllString(s, "")
		next = groupMemberAlias.ReplaceAllString(next, "")
		next = unreadCountSuffix.ReplaceAllString(next, "")
		next = youPrefix.ReplaceAllString(next, "")
		next = trailingSymbols.ReplaceAllString(next, "")
		next = counterSuffix.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == s {
			return s
		}
		s = next
	}
}
