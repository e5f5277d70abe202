package pagemanager

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
)

// --- Node Serialization/Deserialization ---

// Page layout (little endian):
//
//	common:   node_type u8 | is_root u8 | parent u32
//	leaf:     num_cells u32 | num_cells * (key u32, record [291]byte)
//	internal: num_keys u32 | right_child u32 | num_keys * (child u32, key u32)
//
// The rest of the page is zero padded.

// Serialize encodes a node into exactly one PageSize buffer.
func Serialize(node Node) ([]byte, error) {
	buffer := bytes.NewBuffer(make([]byte, 0, PageSize))

	var isRoot uint8
	if node.IsRoot() {
		isRoot = 1
	}
	header := []any{uint8(node.Type()), isRoot, uint32(node.Parent())}
	for _, field := range header {
		if err := binary.Write(buffer, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("%w: writing node header: %v", flushmanager.ErrSerialization, err)
		}
	}

	switch n := node.(type) {
	case *LeafNode:
		if len(n.Cells) > LeafNodeMaxCells {
			return nil, fmt.Errorf("%w: leaf has %d cells, page holds %d", flushmanager.ErrSerialization, len(n.Cells), LeafNodeMaxCells)
		}
		if err := binary.Write(buffer, binary.LittleEndian, uint32(len(n.Cells))); err != nil {
			return nil, fmt.Errorf("%w: writing num_cells: %v", flushmanager.ErrSerialization, err)
		}
		for i := range n.Cells {
			if err := binary.Write(buffer, binary.LittleEndian, n.Cells[i].Key); err != nil {
				return nil, fmt.Errorf("%w: writing key of cell %d: %v", flushmanager.ErrSerialization, i, err)
			}
			buffer.Write(n.Cells[i].Record[:])
		}
	case *InternalNode:
		if len(n.Cells) > InternalNodeMaxCells {
			return nil, fmt.Errorf("%w: internal node has %d cells, page holds %d", flushmanager.ErrSerialization, len(n.Cells), InternalNodeMaxCells)
		}
		if err := binary.Write(buffer, binary.LittleEndian, uint32(len(n.Cells))); err != nil {
			return nil, fmt.Errorf("%w: writing num_keys: %v", flushmanager.ErrSerialization, err)
		}
		if err := binary.Write(buffer, binary.LittleEndian, uint32(n.RightChild)); err != nil {
			return nil, fmt.Errorf("%w: writing right_child: %v", flushmanager.ErrSerialization, err)
		}
		for i, c := range n.Cells {
			if err := binary.Write(buffer, binary.LittleEndian, [2]uint32{uint32(c.Child), c.Key}); err != nil {
				return nil, fmt.Errorf("%w: writing cell %d: %v", flushmanager.ErrSerialization, i, err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %T", flushmanager.ErrInvalidNodeType, node)
	}

	// Pad remaining space with zeros.
	page := make([]byte, PageSize)
	copy(page, buffer.Bytes())
	return page, nil
}

// Deserialize decodes one page. Buffers shorter than PageSize are treated as
// zero padded, and an all-zero page (never written) is an empty root leaf.
func Deserialize(data []byte) (Node, error) {
	page := make([]byte, PageSize)
	copy(page, data)

	if isZero(page) {
		leaf := NewLeafNode()
		leaf.SetRoot(true)
		return leaf, nil
	}

	reader := bytes.NewReader(page)
	var (
		nodeType uint8
		isRoot   uint8
		parent   uint32
	)
	for _, field := range []any{&nodeType, &isRoot, &parent} {
		if err := binary.Read(reader, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("%w: reading node header: %v", flushmanager.ErrDeserialization, err)
		}
	}

	switch NodeType(nodeType) {
	case NodeLeaf:
		var numCells uint32
		if err := binary.Read(reader, binary.LittleEndian, &numCells); err != nil {
			return nil, fmt.Errorf("%w: reading num_cells: %v", flushmanager.ErrDeserialization, err)
		}
		if numCells > LeafNodeMaxCells {
			return nil, fmt.Errorf("%w: %w: leaf claims %d cells", flushmanager.ErrDeserialization, flushmanager.ErrNodeOverflow, numCells)
		}
		leaf := NewLeafNode()
		leaf.Cells = leaf.Cells[:numCells]
		for i := range leaf.Cells {
			if err := binary.Read(reader, binary.LittleEndian, &leaf.Cells[i].Key); err != nil {
				return nil, fmt.Errorf("%w: reading key of cell %d: %v", flushmanager.ErrDeserialization, i, err)
			}
			if _, err := io.ReadFull(reader, leaf.Cells[i].Record[:]); err != nil {
				return nil, fmt.Errorf("%w: reading record of cell %d: %v", flushmanager.ErrDeserialization, i, err)
			}
		}
		leaf.SetRoot(isRoot != 0)
		leaf.SetParent(PageNum(parent))
		return leaf, nil

	case NodeInternal:
		var numKeys, rightChild uint32
		if err := binary.Read(reader, binary.LittleEndian, &numKeys); err != nil {
			return nil, fmt.Errorf("%w: reading num_keys: %v", flushmanager.ErrDeserialization, err)
		}
		if numKeys > InternalNodeMaxCells {
			return nil, fmt.Errorf("%w: %w: internal node claims %d keys", flushmanager.ErrDeserialization, flushmanager.ErrNodeOverflow, numKeys)
		}
		if err := binary.Read(reader, binary.LittleEndian, &rightChild); err != nil {
			return nil, fmt.Errorf("%w: reading right_child: %v", flushmanager.ErrDeserialization, err)
		}
		internal := NewInternalNode()
		internal.Cells = make([]InternalCell, numKeys)
		for i := range internal.Cells {
			var cell [2]uint32
			if err := binary.Read(reader, binary.LittleEndian, &cell); err != nil {
				return nil, fmt.Errorf("%w: reading cell %d: %v", flushmanager.ErrDeserialization, i, err)
			}
			internal.Cells[i] = InternalCell{Child: PageNum(cell[0]), Key: cell[1]}
		}
		internal.RightChild = PageNum(rightChild)
		internal.SetRoot(isRoot != 0)
		internal.SetParent(PageNum(parent))
		return internal, nil

	default:
		return nil, fmt.Errorf("%w: %w: %d", flushmanager.ErrDeserialization, flushmanager.ErrInvalidNodeType, nodeType)
	}
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
