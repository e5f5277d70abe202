package pager

import (
	"fmt"

	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	"go.uber.org/zap"
)

// --- Node Splitting ---

// SplitAndInsert inserts (key, rec) at cellNum of the full leaf at pageNum and
// splits it in two. The separator goes to the parent, which splits in turn
// when it overflows. When the split reaches the root a new internal root is
// created and returned with changed set to true.
func (p *Pager) SplitAndInsert(pageNum pagemanager.PageNum, cellNum int, key uint32, rec []byte) (newRoot pagemanager.PageNum, changed bool, err error) {
	node, err := p.GetPageMut(pageNum)
	if err != nil {
		return 0, false, err
	}
	leaf, ok := node.(*pagemanager.LeafNode)
	if !ok {
		return 0, false, fmt.Errorf("%w: split target page %d is %s, not a leaf", flushmanager.ErrStructuralCorruption, pageNum, node.Type())
	}
	if cellNum < 0 || cellNum > leaf.NumCells() {
		return 0, false, fmt.Errorf("cell %d out of range for leaf %d with %d cells", cellNum, pageNum, leaf.NumCells())
	}

	wasRoot := leaf.IsRoot()
	leaf.InsertAt(cellNum, key, rec)

	rightNum := p.NewPageNum()
	right := p.AllocateLeaf(rightNum)
	right.Cells = append(right.Cells, leaf.Cells[pagemanager.LeafNodeLeftSplitCount:]...)
	leaf.Cells = leaf.Cells[:pagemanager.LeafNodeLeftSplitCount]
	leaf.SetRoot(false)

	p.metrics.Split(pagemanager.NodeLeaf.String())
	p.logger.Debug("Split leaf",
		zap.Uint32("page_num", uint32(pageNum)),
		zap.Uint32("new_page_num", uint32(rightNum)),
		zap.Uint32("key", key),
		zap.Uint32("separator", leaf.MaxKey()),
	)
	return p.insertSeparator(pageNum, leaf, leaf.MaxKey(), rightNum, right, wasRoot)
}

// insertSeparator links a freshly split pair into the tree. left keeps every
// key <= sep and right takes over left's former slot in the parent.
func (p *Pager) insertSeparator(leftNum pagemanager.PageNum, left pagemanager.Node, sep uint32,
	rightNum pagemanager.PageNum, right pagemanager.Node, wasRoot bool) (pagemanager.PageNum, bool, error) {
	if wasRoot {
		rootNum := p.NewPageNum()
		root := p.AllocateInternal(rootNum)
		root.SetRoot(true)
		root.Cells = append(root.Cells, pagemanager.InternalCell{Child: leftNum, Key: sep})
		root.RightChild = rightNum
		left.SetParent(rootNum)
		right.SetParent(rootNum)
		p.logger.Info("Created new root", zap.Uint32("root_page_num", uint32(rootNum)), zap.Uint32("separator", sep))
		return rootNum, true, nil
	}

	parentNum := left.Parent()
	node, err := p.GetPageMut(parentNum)
	if err != nil {
		return 0, false, err
	}
	parent, ok := node.(*pagemanager.InternalNode)
	if !ok {
		return 0, false, fmt.Errorf("%w: parent page %d of page %d is a leaf", flushmanager.ErrStructuralCorruption, parentNum, leftNum)
	}
	if !parent.InsertSplit(leftNum, sep, rightNum) {
		return 0, false, fmt.Errorf("%w: page %d is not a child of its parent %d", flushmanager.ErrStructuralCorruption, leftNum, parentNum)
	}
	right.SetParent(parentNum)

	if parent.NumKeys() <= p.internalMaxCells {
		return 0, false, nil
	}
	return p.splitInternal(parentNum, parent)
}

// splitInternal splits an internal node holding internalMaxCells+1 cells. The
// lower half stays, the middle key moves up, and the upper half together with
// the old right child moves to a new page whose children are re-parented.
func (p *Pager) splitInternal(pageNum pagemanager.PageNum, node *pagemanager.InternalNode) (pagemanager.PageNum, bool, error) {
	wasRoot := node.IsRoot()
	mid := node.NumKeys() / 2
	promoted := node.Cells[mid]

	rightNum := p.NewPageNum()
	right := p.AllocateInternal(rightNum)
	right.Cells = append(right.Cells, node.Cells[mid+1:]...)
	right.RightChild = node.RightChild
	node.RightChild = promoted.Child
	node.Cells = node.Cells[:mid]
	node.SetRoot(false)

	for i := 0; i < right.NumChildren(); i++ {
		child, err := p.GetPageMut(right.Child(i))
		if err != nil {
			return 0, false, err
		}
		child.SetParent(rightNum)
	}

	p.metrics.Split(pagemanager.NodeInternal.String())
	p.logger.Debug("Split internal node",
		zap.Uint32("page_num", uint32(pageNum)),
		zap.Uint32("new_page_num", uint32(rightNum)),
		zap.Uint32("separator", promoted.Key),
	)
	return p.insertSeparator(pageNum, node, promoted.Key, rightNum, right, wasRoot)
}
