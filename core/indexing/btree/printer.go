package btree

import (
	"fmt"
	"io"
	"strings"

	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
)

// PrintTree writes an indented dump of every page reachable from the root.
func (t *Table) PrintTree(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Tree:"); err != nil {
		return err
	}
	return t.printNode(w, t.rootPageNum, 0)
}

func (t *Table) printNode(w io.Writer, pageNum pagemanager.PageNum, level int) error {
	node, err := t.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", level)

	switch n := node.(type) {
	case *pagemanager.LeafNode:
		if _, err := fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, n.NumCells()); err != nil {
			return err
		}
		for i := 0; i < n.NumCells(); i++ {
			if _, err := fmt.Fprintf(w, "%s  - %d\n", indent, n.Key(i)); err != nil {
				return err
			}
		}
	case *pagemanager.InternalNode:
		if _, err := fmt.Fprintf(w, "%s- internal (size %d)\n", indent, n.NumKeys()); err != nil {
			return err
		}
		for i := 0; i < n.NumKeys(); i++ {
			if err := t.printNode(w, n.Child(i), level+1); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s  - key %d\n", indent, n.Key(i)); err != nil {
				return err
			}
		}
		return t.printNode(w, n.RightChild, level+1)
	}
	return nil
}
