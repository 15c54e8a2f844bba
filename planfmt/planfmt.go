// Package planfmt implements the two read-only logical-plan renderers
// from spec.md §4.7: a nested-text tree (grounded on the teacher's
// formatStepAesthetic tree-drawing in core/plan/types.go, which uses
// "├─ "/"└─ " connectors and "│  "/"   " indent continuation) and a DOT
// graph renderer built on github.com/emicklei/dot, replacing the
// teacher's hand-rolled ToDOT/addDOTNodesRecursive string builder.
// Neither renderer mutates the tree it walks.
package planfmt

import (
	"fmt"
	"strings"

	"github.com/emicklei/dot"

	"github.com/paauw/polars/plan"
)

// Text renders root as an indented tree, root first, matching the
// teacher's connector style.
func Text(root plan.Node) string {
	var b strings.Builder
	writeNode(&b, root, "", true)
	return b.String()
}

func writeNode(b *strings.Builder, n plan.Node, prefix string, isRoot bool) {
	if isRoot {
		b.WriteString(n.Label())
		b.WriteByte('\n')
	}
	children := n.Children()
	for i, c := range children {
		last := i == len(children)-1
		connector := "├─ "
		cont := "│  "
		if last {
			connector = "└─ "
			cont = "   "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(c.Label())
		b.WriteByte('\n')
		writeNode(b, c, prefix+cont, false)
	}
}

// DOT renders root as a directed graph: one node per plan.Node, one edge
// per parent-to-child relationship. Node identity is the node's address,
// stringified, so repeated Cache references produce a single shared
// node (spec.md §4.7 treats the plan as a tree for text output but does
// not forbid a shared subtree appearing once in the graph form).
func DOT(root plan.Node) string {
	g := dot.NewGraph(dot.Directed)
	seen := make(map[plan.Node]dot.Node)
	var visit func(n plan.Node) dot.Node
	visit = func(n plan.Node) dot.Node {
		if gn, ok := seen[n]; ok {
			return gn
		}
		gn := g.Node(nodeID(n)).Label(n.Label())
		seen[n] = gn
		for _, c := range n.Children() {
			cn := visit(c)
			g.Edge(gn, cn)
		}
		return gn
	}
	visit(root)
	return g.String()
}

func nodeID(n plan.Node) string {
	return fmt.Sprintf("n%p", n)
}
