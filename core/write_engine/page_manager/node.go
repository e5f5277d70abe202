package pagemanager

import (
	"cmp"
	"slices"

	"github.com/sushant-115/gojolite/core/write_engine/record"
)

// PageNum addresses a page; page n lives at file offset n*PageSize.
type PageNum uint32

type NodeType uint8

const (
	NodeLeaf     NodeType = 0
	NodeInternal NodeType = 1
)

func (t NodeType) String() string {
	switch t {
	case NodeLeaf:
		return "leaf"
	case NodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Node is the in-memory form of one page: either a *LeafNode or an *InternalNode.
// Parent and child links are page numbers resolved through the pager.
type Node interface {
	Type() NodeType
	IsRoot() bool
	SetRoot(isRoot bool)
	Parent() PageNum
	SetParent(parent PageNum)
	// MaxKey is the largest key reachable through this node itself
	// (its last cell; for internal nodes this excludes the right child).
	MaxKey() uint32
}

type nodeHeader struct {
	isRoot bool
	parent PageNum
}

func (h *nodeHeader) IsRoot() bool         { return h.isRoot }
func (h *nodeHeader) SetRoot(isRoot bool)  { h.isRoot = isRoot }
func (h *nodeHeader) Parent() PageNum      { return h.parent }
func (h *nodeHeader) SetParent(pn PageNum) { h.parent = pn }

// --- Leaf Node ---

// LeafCell is one (key, record) pair stored on a leaf page.
type LeafCell struct {
	Key    uint32
	Record [record.Size]byte
}

// LeafNode holds cells sorted by ascending key, without duplicates.
type LeafNode struct {
	nodeHeader
	Cells []LeafCell
}

// NewLeafNode returns an empty, non-root leaf.
func NewLeafNode() *LeafNode {
	return &LeafNode{Cells: make([]LeafCell, 0, LeafNodeMaxCells+1)}
}

func (n *LeafNode) Type() NodeType   { return NodeLeaf }
func (n *LeafNode) NumCells() int    { return len(n.Cells) }
func (n *LeafNode) Key(i int) uint32 { return n.Cells[i].Key }
func (n *LeafNode) IsFull() bool     { return len(n.Cells) >= LeafNodeMaxCells }

func (n *LeafNode) MaxKey() uint32 {
	if len(n.Cells) == 0 {
		return 0
	}
	return n.Cells[len(n.Cells)-1].Key
}

// Search returns the index of the first cell whose key is >= key, and
// whether that cell holds exactly key.
func (n *LeafNode) Search(key uint32) (int, bool) {
	return slices.BinarySearchFunc(n.Cells, key, func(c LeafCell, k uint32) int {
		return cmp.Compare(c.Key, k)
	})
}

// Value returns the encoded record stored at cell i.
func (n *LeafNode) Value(i int) []byte {
	return n.Cells[i].Record[:]
}

// SetValue overwrites the record stored at cell i.
func (n *LeafNode) SetValue(i int, rec []byte) {
	copy(n.Cells[i].Record[:], rec)
}

// InsertAt places a new cell at index i, shifting later cells right.
// The caller is responsible for picking i so keys stay sorted.
func (n *LeafNode) InsertAt(i int, key uint32, rec []byte) {
	cell := LeafCell{Key: key}
	copy(cell.Record[:], rec)
	n.Cells = slices.Insert(n.Cells, i, cell)
}

// --- Internal Node ---

// InternalCell points at a child subtree whose keys are all <= Key.
type InternalCell struct {
	Child PageNum
	Key   uint32
}

// InternalNode holds separator cells plus a right child for keys above every separator.
type InternalNode struct {
	nodeHeader
	RightChild PageNum
	Cells      []InternalCell
}

// NewInternalNode returns an empty, non-root internal node.
func NewInternalNode() *InternalNode {
	return &InternalNode{Cells: make([]InternalCell, 0)}
}

func (n *InternalNode) Type() NodeType   { return NodeInternal }
func (n *InternalNode) NumKeys() int     { return len(n.Cells) }
func (n *InternalNode) Key(i int) uint32 { return n.Cells[i].Key }

func (n *InternalNode) MaxKey() uint32 {
	if len(n.Cells) == 0 {
		return 0
	}
	return n.Cells[len(n.Cells)-1].Key
}

// NumChildren counts the cell children plus the right child.
func (n *InternalNode) NumChildren() int { return len(n.Cells) + 1 }

// Child returns child i, where i == NumKeys() selects the right child.
func (n *InternalNode) Child(i int) PageNum {
	if i == len(n.Cells) {
		return n.RightChild
	}
	return n.Cells[i].Child
}

// SetChild replaces child i, where i == NumKeys() selects the right child.
func (n *InternalNode) SetChild(i int, pn PageNum) {
	if i == len(n.Cells) {
		n.RightChild = pn
		return
	}
	n.Cells[i].Child = pn
}

// Search returns the index of the first cell whose key is >= key and
// whether it matches exactly. An index equal to NumKeys() means the right child.
func (n *InternalNode) Search(key uint32) (int, bool) {
	return slices.BinarySearchFunc(n.Cells, key, func(c InternalCell, k uint32) int {
		return cmp.Compare(c.Key, k)
	})
}

// FindChild picks the subtree that may contain key.
func (n *InternalNode) FindChild(key uint32) PageNum {
	i, _ := n.Search(key)
	return n.Child(i)
}

// ChildIndex returns the position of child pn, or -1 when pn is not a child.
func (n *InternalNode) ChildIndex(pn PageNum) int {
	for i, c := range n.Cells {
		if c.Child == pn {
			return i
		}
	}
	if n.RightChild == pn {
		return len(n.Cells)
	}
	return -1
}

// InsertSplit records that child left was split into left (keys <= sep) and
// right. right takes over left's former slot. It returns false when left is
// not a child of n.
func (n *InternalNode) InsertSplit(left PageNum, sep uint32, right PageNum) bool {
	i := n.ChildIndex(left)
	if i < 0 {
		return false
	}
	n.SetChild(i, right)
	n.Cells = slices.Insert(n.Cells, i, InternalCell{Child: left, Key: sep})
	return true
}
