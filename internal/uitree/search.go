// Package uitree provides traversal primitives over the foreign accessibility
// tree. All functions are pure recursion over domain.Node parameterized by
// predicate; no search state lives anywhere else.
//
// Ownership rules: searches examine descendants only - the root handle always
// stays with the caller. Handles that match are returned and owned by the
// caller (release them with ReleaseAll when done); handles that do not match
// are released before the function returns.
package uitree

import (
	"strings"

	"github.com/secretarylab/relayd/internal/domain"
)

// Predicate decides whether a node matches. It must not retain or release the
// handle it is given.
type Predicate func(domain.Node) bool

// FindFirst returns the first matching descendant in depth-first order, or
// nil. The caller owns the returned handle.
func FindFirst(root domain.Node, pred Predicate) domain.Node {
	if root == nil {
		return nil
	}
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		if pred(child) {
			return child
		}
		if found := FindFirst(child, pred); found != nil {
			child.Release()
			return found
		}
		child.Release()
	}
	return nil
}

// FindAll returns every matching descendant in depth-first order. The caller
// owns every returned handle.
func FindAll(root domain.Node, pred Predicate) []domain.Node {
	var out []domain.Node
	collect(root, pred, &out)
	return out
}

func collect(n domain.Node, pred Predicate, out *[]domain.Node) {
	if n == nil {
		return
	}
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		matched := pred(child)
		if matched {
			*out = append(*out, child)
		}
		collect(child, pred, out)
		if !matched {
			child.Release()
		}
	}
}

// FindFirstByID tries each identifier in order and returns the first node
// whose ViewID matches exactly, or nil. Identifier priority beats tree order.
func FindFirstByID(root domain.Node, ids ...string) domain.Node {
	for _, id := range ids {
		want := id
		if found := FindFirst(root, func(n domain.Node) bool {
			return n.ViewID() == want
		}); found != nil {
			return found
		}
	}
	return nil
}

// FindAllByText returns descendants whose visible text contains text,
// case-insensitively.
func FindAllByText(root domain.Node, text string) []domain.Node {
	needle := strings.ToLower(text)
	return FindAll(root, func(n domain.Node) bool {
		return strings.Contains(strings.ToLower(n.Text()), needle)
	})
}

// FindAllByDescription returns descendants whose content description contains
// description, case-insensitively.
func FindAllByDescription(root domain.Node, description string) []domain.Node {
	needle := strings.ToLower(description)
	return FindAll(root, func(n domain.Node) bool {
		return strings.Contains(strings.ToLower(n.Description()), needle)
	})
}

// FindAllByClass returns descendants whose class name equals className,
// case-insensitively.
func FindAllByClass(root domain.Node, className string) []domain.Node {
	return FindAll(root, func(n domain.Node) bool {
		return strings.EqualFold(n.ClassName(), className)
	})
}

// ReleaseAll releases every handle in nodes. Nil entries are skipped.
func ReleaseAll(nodes []domain.Node) {
	for _, n := range nodes {
		if n != nil {
			n.Release()
		}
	}
}
