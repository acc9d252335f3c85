package heuristics

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Store holds the effective heuristic set. In-memory only; reload means
// process restart.
type Store struct {
	set Set
}

// NewStore creates a store with the compiled-in defaults.
func NewStore() *Store {
	return &Store{set: Default()}
}

// NewStoreWithSet creates a store with a custom set (for testing).
func NewStoreWithSet(set Set) *Store {
	return &Store{set: set}
}

// Load creates a store from a TOML override file layered over the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Store, error) {
	set := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heuristics file: %w", err)
	}
	var override Set
	if err := toml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse heuristics file: %w", err)
	}
	merge(&set, override)
	return &Store{set: set}, nil
}

// Get returns the effective heuristic set.
func (s *Store) Get() Set {
	return s.set
}

func merge(dst *Set, src Set) {
	if len(src.TargetPackages) > 0 {
		dst.TargetPackages = src.TargetPackages
	}
	if src.AppDisplayName != "" {
		dst.AppDisplayName = src.AppDisplayName
	}
	if len(src.NonConversationalKeywords) > 0 {
		dst.NonConversationalKeywords = src.NonConversationalKeywords
	}
	if len(src.InputFieldIDs) > 0 {
		dst.InputFieldIDs = src.InputFieldIDs
	}
	if len(src.InputPlaceholders) > 0 {
		dst.InputPlaceholders = src.InputPlaceholders
	}
	if len(src.SendButtonIDs) > 0 {
		dst.SendButtonIDs = src.SendButtonIDs
	}
	if src.SendButtonLabel != "" {
		dst.SendButtonLabel = src.SendButtonLabel
	}
	if src.ButtonClass != "" {
		dst.ButtonClass = src.ButtonClass
	}
	if len(src.ChatTitleIDs) > 0 {
		dst.ChatTitleIDs = src.ChatTitleIDs
	}
	if src.ToolbarClass != "" {
		dst.ToolbarClass = src.ToolbarClass
	}
	if src.TextViewClass != "" {
		dst.TextViewClass = src.TextViewClass
	}
}
