package btree

import (
	"fmt"

	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
)

// --- Cursor ---

// Cursor points at one cell of a leaf page. It is only valid until the next
// insert, which may move cells between pages.
type Cursor struct {
	table      *Table
	PageNum    pagemanager.PageNum
	CellNum    int
	EndOfTable bool
	// KeyFound reports that the cell under the cursor holds the searched key.
	KeyFound bool
}

// Start positions a cursor on the smallest key. EndOfTable is set when the
// table holds no rows.
func (t *Table) Start() (*Cursor, error) {
	leafNum, err := t.leftmostLeaf(t.rootPageNum)
	if err != nil {
		return nil, err
	}
	c := &Cursor{table: t, PageNum: leafNum}
	leaf, err := c.leaf()
	if err != nil {
		return nil, err
	}
	if leaf.NumCells() == 0 {
		if err := c.nextLeaf(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Find positions a cursor where key is or would be inserted.
func (t *Table) Find(key uint32) (*Cursor, error) {
	return t.FindInsertPosition(t.rootPageNum, key)
}

// FindInsertPosition descends from pageNum to the leaf that may hold key and
// stops on the first cell whose key is >= key.
func (t *Table) FindInsertPosition(pageNum pagemanager.PageNum, key uint32) (*Cursor, error) {
	for {
		node, err := t.pager.GetPage(pageNum)
		if err != nil {
			return nil, err
		}
		switch n := node.(type) {
		case *pagemanager.InternalNode:
			pageNum = n.FindChild(key)
		case *pagemanager.LeafNode:
			i, found := n.Search(key)
			return &Cursor{
				table:      t,
				PageNum:    pageNum,
				CellNum:    i,
				EndOfTable: i == n.NumCells(),
				KeyFound:   found,
			}, nil
		default:
			return nil, fmt.Errorf("%w: page %d", flushmanager.ErrInvalidNodeType, pageNum)
		}
	}
}

func (t *Table) leftmostLeaf(pageNum pagemanager.PageNum) (pagemanager.PageNum, error) {
	for {
		node, err := t.pager.GetPage(pageNum)
		if err != nil {
			return 0, err
		}
		internal, ok := node.(*pagemanager.InternalNode)
		if !ok {
			return pageNum, nil
		}
		pageNum = internal.Child(0)
	}
}

// Advance moves to the next cell in key order, crossing into the next leaf
// when the current one is exhausted.
func (c *Cursor) Advance() error {
	if c.EndOfTable {
		return nil
	}
	leaf, err := c.leaf()
	if err != nil {
		return err
	}
	c.CellNum++
	if c.CellNum < leaf.NumCells() {
		return nil
	}
	return c.nextLeaf()
}

// nextLeaf climbs from the current leaf until an ancestor has a child to the
// right of the path, then descends to that child's leftmost leaf. Empty
// leaves are skipped. Reaching the root sets EndOfTable.
func (c *Cursor) nextLeaf() error {
	pageNum := c.PageNum
	for {
		node, err := c.table.pager.GetPage(pageNum)
		if err != nil {
			return err
		}
		if node.IsRoot() {
			c.EndOfTable = true
			return nil
		}
		parentNum := node.Parent()
		parentNode, err := c.table.pager.GetPage(parentNum)
		if err != nil {
			return err
		}
		parent, ok := parentNode.(*pagemanager.InternalNode)
		if !ok {
			return fmt.Errorf("%w: parent page %d of page %d is a leaf", flushmanager.ErrStructuralCorruption, parentNum, pageNum)
		}
		i := parent.ChildIndex(pageNum)
		if i < 0 {
			return fmt.Errorf("%w: page %d is not a child of its parent %d", flushmanager.ErrStructuralCorruption, pageNum, parentNum)
		}
		if i == parent.NumKeys() {
			pageNum = parentNum
			continue
		}

		leafNum, err := c.table.leftmostLeaf(parent.Child(i + 1))
		if err != nil {
			return err
		}
		c.PageNum, c.CellNum = leafNum, 0
		leaf, err := c.leaf()
		if err != nil {
			return err
		}
		if leaf.NumCells() > 0 {
			return nil
		}
		pageNum = leafNum
	}
}

func (c *Cursor) leaf() (*pagemanager.LeafNode, error) {
	node, err := c.Page()
	if err != nil {
		return nil, err
	}
	leaf, ok := node.(*pagemanager.LeafNode)
	if !ok {
		return nil, fmt.Errorf("%w: cursor page %d is not a leaf", flushmanager.ErrStructuralCorruption, c.PageNum)
	}
	return leaf, nil
}

// Page returns the node under the cursor.
func (c *Cursor) Page() (pagemanager.Node, error) {
	return c.table.pager.GetPage(c.PageNum)
}

// PageMut returns the node under the cursor for modification.
func (c *Cursor) PageMut() (pagemanager.Node, error) {
	return c.table.pager.GetPageMut(c.PageNum)
}

// Row returns the encoded record under the cursor. The slice aliases the
// cached page.
func (c *Cursor) Row() ([]byte, error) {
	leaf, err := c.leaf()
	if err != nil {
		return nil, err
	}
	if c.CellNum >= leaf.NumCells() {
		return nil, fmt.Errorf("cell %d past the end of page %d", c.CellNum, c.PageNum)
	}
	return leaf.Value(c.CellNum), nil
}

// SetRow overwrites the record under the cursor.
func (c *Cursor) SetRow(rec []byte) error {
	node, err := c.PageMut()
	if err != nil {
		return err
	}
	leaf, ok := node.(*pagemanager.LeafNode)
	if !ok || c.CellNum >= leaf.NumCells() {
		return fmt.Errorf("%w: no row at page %d cell %d", flushmanager.ErrPageMutFailure, c.PageNum, c.CellNum)
	}
	leaf.SetValue(c.CellNum, rec)
	return nil
}
