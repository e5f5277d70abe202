package pagemanager

import (
	"fmt"
	"io"

	"github.com/sushant-115/gojolite/core/write_engine/record"
)

// --- Page Layout ---

const (
	PageSize = 4096

	// Common node header.
	NodeTypeSize         = 1
	NodeTypeOffset       = 0
	IsRootSize           = 1
	IsRootOffset         = NodeTypeOffset + NodeTypeSize
	ParentPointerSize    = 4
	ParentPointerOffset  = IsRootOffset + IsRootSize
	CommonNodeHeaderSize = NodeTypeSize + IsRootSize + ParentPointerSize

	// Leaf node header and body.
	LeafNodeNumCellsSize   = 4
	LeafNodeNumCellsOffset = CommonNodeHeaderSize
	LeafNodeHeaderSize     = CommonNodeHeaderSize + LeafNodeNumCellsSize
	LeafNodeKeySize        = 4
	LeafNodeValueSize      = record.Size
	LeafNodeCellSize       = LeafNodeKeySize + LeafNodeValueSize
	LeafNodeSpaceForCells  = PageSize - LeafNodeHeaderSize
	LeafNodeMaxCells       = LeafNodeSpaceForCells / LeafNodeCellSize

	// Internal node header and body.
	InternalNodeNumKeysSize      = 4
	InternalNodeNumKeysOffset    = CommonNodeHeaderSize
	InternalNodeRightChildSize   = 4
	InternalNodeRightChildOffset = InternalNodeNumKeysOffset + InternalNodeNumKeysSize
	InternalNodeHeaderSize       = CommonNodeHeaderSize + InternalNodeNumKeysSize + InternalNodeRightChildSize
	InternalNodeChildSize        = 4
	InternalNodeKeySize          = 4
	InternalNodeCellSize         = InternalNodeChildSize + InternalNodeKeySize
	InternalNodeSpaceForCells    = PageSize - InternalNodeHeaderSize
	InternalNodeMaxCells         = InternalNodeSpaceForCells / InternalNodeCellSize
)

// Split counts for an overflowing leaf holding LeafNodeMaxCells+1 cells.
const (
	LeafNodeRightSplitCount = (LeafNodeMaxCells + 1) / 2
	LeafNodeLeftSplitCount  = (LeafNodeMaxCells + 1) - LeafNodeRightSplitCount
)

// Constant is a named size constant exposed for diagnostics.
type Constant struct {
	Name  string
	Value int
}

// Constants lists the derived layout sizes in the order the .constants dump prints them.
func Constants() []Constant {
	return []Constant{
		{"ROW_SIZE", record.Size},
		{"COMMON_NODE_HEADER_SIZE", CommonNodeHeaderSize},
		{"LEAF_NODE_HEADER_SIZE", LeafNodeHeaderSize},
		{"LEAF_NODE_CELL_SIZE", LeafNodeCellSize},
		{"LEAF_NODE_SPACE_FOR_CELLS", LeafNodeSpaceForCells},
		{"LEAF_NODE_MAX_CELLS", LeafNodeMaxCells},
		{"INTERNAL_NODE_HEADER_SIZE", InternalNodeHeaderSize},
		{"INTERNAL_NODE_CELL_SIZE", InternalNodeCellSize},
		{"INTERNAL_NODE_MAX_CELLS", InternalNodeMaxCells},
	}
}

// PrintConstants writes one "NAME: value" line per constant.
func PrintConstants(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Constants:"); err != nil {
		return err
	}
	for _, c := range Constants() {
		if _, err := fmt.Fprintf(w, "%s: %d\n", c.Name, c.Value); err != nil {
			return err
		}
	}
	return nil
}
