package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders the tree as an indented textual form, as a debugging aid.
// It is not meant to be re-parsed.
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsNull() {
		fmt.Fprintf(sb, "%sNULL\n", indent)
		return
	}

	fmt.Fprintf(sb, "%s%s", indent, n.Kind)
	if n.Str != "" {
		fmt.Fprintf(sb, " %q", n.Str)
	}
	if n.Num != 0 || n.Kind == NUMBER {
		fmt.Fprintf(sb, " %s", strconv.FormatFloat(n.Num, 'g', -1, 64))
	}
	sb.WriteString("\n")

	for _, child := range []*Node{n.A, n.B, n.C, n.D} {
		if child != nil {
			dump(sb, child, depth+1)
		}
	}
}
