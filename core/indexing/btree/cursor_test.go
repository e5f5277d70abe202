package btree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	"github.com/sushant-115/gojolite/core/write_engine/record"
)

func TestCursor_StartOnEmptyTable(t *testing.T) {
	tbl, _ := setupTable(t)
	c, err := tbl.Start()
	require.NoError(t, err)
	require.True(t, c.EndOfTable)
	require.NoError(t, c.Advance())
	require.True(t, c.EndOfTable)
}

func TestCursor_FindInsertPosition(t *testing.T) {
	tbl, _ := setupTable(t)
	for _, id := range []uint32{10, 20, 30} {
		insertID(t, tbl, id)
	}

	for _, tc := range []struct {
		key   uint32
		cell  int
		found bool
		end   bool
	}{
		{1, 0, false, false},
		{10, 0, true, false},
		{25, 2, false, false},
		{30, 2, true, false},
		{31, 3, false, true},
	} {
		c, err := tbl.Find(tc.key)
		require.NoError(t, err)
		require.Equal(t, tbl.RootPageNum(), c.PageNum)
		require.Equal(t, tc.cell, c.CellNum, "key %d", tc.key)
		require.Equal(t, tc.found, c.KeyFound, "key %d", tc.key)
		require.Equal(t, tc.end, c.EndOfTable, "key %d", tc.key)
	}
}

func TestCursor_FindAlwaysLandsOnLeaf(t *testing.T) {
	tbl, _ := setupTable(t, WithInternalMaxCells(2))
	for _, k := range rand.New(rand.NewSource(3)).Perm(200) {
		insertID(t, tbl, uint32(k*2+2))
	}

	for key := uint32(0); key <= 402; key++ {
		c, err := tbl.Find(key)
		require.NoError(t, err)
		node, err := c.Page()
		require.NoError(t, err)
		leaf, ok := node.(*pagemanager.LeafNode)
		require.True(t, ok)
		require.Equal(t, key%2 == 0 && key >= 2 && key <= 400, c.KeyFound, "key %d", key)
		if c.CellNum > 0 {
			require.Less(t, leaf.Key(c.CellNum-1), key)
		}
		if c.CellNum < leaf.NumCells() {
			require.LessOrEqual(t, key, leaf.Key(c.CellNum))
		}
	}
}

func TestCursor_AdvanceVisitsEveryLeafInOrder(t *testing.T) {
	tbl, _ := setupTable(t, WithInternalMaxCells(2))
	const n = 500
	for _, k := range rand.New(rand.NewSource(11)).Perm(n) {
		insertID(t, tbl, uint32(k+1))
	}

	c, err := tbl.Start()
	require.NoError(t, err)
	var got []uint32
	leaves := map[pagemanager.PageNum]bool{}
	for !c.EndOfTable {
		rec, err := c.Row()
		require.NoError(t, err)
		got = append(got, record.GetID(rec))
		leaves[c.PageNum] = true
		require.NoError(t, c.Advance())
	}
	require.Equal(t, seq(1, n), got)
	require.Greater(t, len(leaves), n/pagemanager.LeafNodeMaxCells)
}

func TestCursor_SetRow(t *testing.T) {
	tbl, _ := setupTable(t)
	insertID(t, tbl, 1)
	insertID(t, tbl, 2)

	c, err := tbl.Find(2)
	require.NoError(t, err)
	require.True(t, c.KeyFound)
	require.NoError(t, c.SetRow(encodeRow(t, 2, "renamed", "new@example.com")))

	require.Equal(t, "Row<id:1, username:user1, email:user1@example.com>\n"+
		"Row<id:2, username:renamed, email:new@example.com>\n", selectAll(t, tbl))

	end, err := tbl.Find(3)
	require.NoError(t, err)
	require.True(t, end.EndOfTable)
	require.Error(t, end.SetRow(encodeRow(t, 3, "x", "y")))
	_, err = end.Row()
	require.Error(t, err)
}
