package uitree

import (
	"fmt"
	"strings"

	"github.com/secretarylab/relayd/internal/domain"
)

// Dump renders the tree under root as an indented diagnostic listing. Used
// when element search exhausts every strategy, so an operator can update the
// heuristic data. Child handles obtained while dumping are released; root is
// untouched.
func Dump(root domain.Node) string {
	var b strings.Builder
	dumpNode(&b, root, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, n domain.Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(b, "%s- class=%s text=%q desc=%q id=%s\n",
		strings.Repeat("  ", depth), n.ClassName(), n.Text(), n.Description(), n.ViewID())
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		dumpNode(b, child, depth+1)
		child.Release()
	}
}
