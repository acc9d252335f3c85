package heuristics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultSet verifies the compiled-in data covers both app flavors
func TestDefaultSet(t *testing.T) {
	set := Default()

	assert.Contains(t, set.TargetPackages, "com.whatsapp")
	assert.Contains(t, set.TargetPackages, "com.whatsapp.w4b")
	assert.Equal(t, "WhatsApp", set.AppDisplayName)
	assert.NotEmpty(t, set.NonConversationalKeywords)
	assert.NotEmpty(t, set.InputFieldIDs)
	assert.NotEmpty(t, set.SendButtonIDs)
	assert.NotEmpty(t, set.ChatTitleIDs)
	assert.Equal(t, "Send", set.SendButtonLabel)
}

// TestIsTargetPackage verifies exact package matching
func TestIsTargetPackage(t *testing.T) {
	set := Default()

	assert.True(t, set.IsTargetPackage("com.whatsapp"))
	assert.True(t, set.IsTargetPackage("com.whatsapp.w4b"))
	assert.False(t, set.IsTargetPackage("com.whatsapp.evil"))
	assert.False(t, set.IsTargetPackage(""))
}

// TestIsSummaryAggregate verifies the "N messages from M chats" shape
func TestIsSummaryAggregate(t *testing.T) {
	assert.True(t, IsSummaryAggregate("5 messages from 3 chats"))
	assert.True(t, IsSummaryAggregate("2 Messages From 2 chats"))
	assert.False(t, IsSummaryAggregate("hello there"))
	assert.False(t, IsSummaryAggregate(""))
}

// TestIsNewMessageAggregate verifies both shape words are required
func TestIsNewMessageAggregate(t *testing.T) {
	assert.True(t, IsNewMessageAggregate("New message from a chat"))
	assert.True(t, IsNewMessageAggregate("new message from 2 chats"))
	assert.False(t, IsNewMessageAggregate("New message from Alice"))
	assert.False(t, IsNewMessageAggregate("a chat was archived"))
}

// TestStoreDefaults verifies a bare store serves the compiled-in set
func TestStoreDefaults(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Default(), s.Get())
}

// TestLoadOverride verifies file values are layered over the defaults
func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.toml")
	content := `
app_display_name = "TestChat"
input_field_ids = ["com.test:id/compose"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	set := s.Get()
	assert.Equal(t, "TestChat", set.AppDisplayName)
	assert.Equal(t, []string{"com.test:id/compose"}, set.InputFieldIDs)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().TargetPackages, set.TargetPackages)
	assert.Equal(t, Default().SendButtonLabel, set.SendButtonLabel)
}

// TestLoadMissingFile verifies an explicit path must exist
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

// TestLoadInvalidTOML verifies parse failures surface as errors
func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("app_display_name = [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
