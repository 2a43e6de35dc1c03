package rbtree

import (
	"fmt"
	"io"

	"github.com/xlab/treeprint"
)

// Print writes a diagram of the tree, one line per node.
func (t *Tree[V]) Print(w io.Writer) error {
	if t.root == nil {
		_, err := fmt.Fprintln(w, "Tree is empty.")
		return err
	}

	var branches []treeprint.Tree
	for info := range t.Walk() {
		label := fmt.Sprintf("%s(%s)", info.Key, info.Color)
		if info.Depth == 0 {
			branches = []treeprint.Tree{treeprint.NewWithRoot(label)}
			continue
		}
		parent := branches[info.Depth-1]
		b := parent.AddBranch(fmt.Sprintf("%s %s", info.Side, label))
		branches = append(branches[:info.Depth], b)
	}

	if _, err := fmt.Fprintln(w, "Red-Black Tree:"); err != nil {
		return err
	}
	_, err := io.WriteString(w, branches[0].String())
	return err
}
