package btree

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	"github.com/sushant-115/gojolite/core/write_engine/record"
	internaltelemetry "github.com/sushant-115/gojolite/internal/telemetry"
)

// --- Test Helpers ---

func openTestTable(t *testing.T, path string, opts ...Option) *Table {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	tbl, err := Open(path, opts...)
	require.NoError(t, err)
	return tbl
}

// setupTable opens a fresh table that is closed when the test ends.
func setupTable(t *testing.T, opts ...Option) (*Table, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.db")
	tbl := openTestTable(t, path, opts...)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl, path
}

func encodeRow(t *testing.T, id uint32, username, email string) []byte {
	t.Helper()
	rec, err := record.Encode(id, username, email)
	require.NoError(t, err)
	return rec
}

func insertID(t *testing.T, tbl *Table, id uint32) {
	t.Helper()
	require.NoError(t, tbl.Insert(id, encodeRow(t, id, fmt.Sprintf("user%d", id), fmt.Sprintf("user%d@example.com", id))))
}

func selectAll(t *testing.T, tbl *Table) string {
	t.Helper()
	var out strings.Builder
	require.NoError(t, tbl.SelectAll(&out))
	return out.String()
}

func expectedRows(ids ...uint32) string {
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "Row<id:%d, username:user%d, email:user%d@example.com>\n", id, id, id)
	}
	return sb.String()
}

func seq(from, to uint32) []uint32 {
	var ids []uint32
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}

// --- Test Cases ---

func TestTable_InsertAndSelectSingleRow(t *testing.T) {
	tbl, _ := setupTable(t)
	require.NoError(t, tbl.Insert(1, encodeRow(t, 1, "foo", "bar")))
	require.Equal(t, "Row<id:1, username:foo, email:bar>\n", selectAll(t, tbl))
}

func TestTable_EmptySelect(t *testing.T) {
	tbl, _ := setupTable(t)
	require.Empty(t, selectAll(t, tbl))
}

func TestTable_DuplicateKey(t *testing.T) {
	tbl, _ := setupTable(t)
	require.NoError(t, tbl.Insert(5, encodeRow(t, 5, "a", "b")))
	err := tbl.Insert(5, encodeRow(t, 5, "c", "d"))
	require.ErrorIs(t, err, flushmanager.ErrDuplicateKey)
	require.Equal(t, "Row<id:5, username:a, email:b>\n", selectAll(t, tbl))

	node, err := tbl.Pager().GetPage(tbl.RootPageNum())
	require.NoError(t, err)
	require.Equal(t, 1, node.(*pagemanager.LeafNode).NumCells())
}

func TestTable_MissingOrMalformedRecord(t *testing.T) {
	tbl, _ := setupTable(t)
	require.ErrorIs(t, tbl.Insert(1, nil), flushmanager.ErrMissingRecord)
	require.ErrorIs(t, tbl.Insert(1, make([]byte, 10)), record.ErrShortRecord)
	require.Empty(t, selectAll(t, tbl))
}

func TestTable_FirstSplitCreatesInternalRoot(t *testing.T) {
	tbl, _ := setupTable(t)
	require.Equal(t, pagemanager.PageNum(0), tbl.RootPageNum())

	ids := seq(1, pagemanager.LeafNodeMaxCells+1)
	for _, id := range ids {
		insertID(t, tbl, id)
	}

	require.NotEqual(t, pagemanager.PageNum(0), tbl.RootPageNum())
	node, err := tbl.Pager().GetPage(tbl.RootPageNum())
	require.NoError(t, err)
	root, ok := node.(*pagemanager.InternalNode)
	require.True(t, ok, "root should be internal after the first split, got %T", node)
	require.True(t, root.IsRoot())
	require.Equal(t, 1, root.NumKeys())
	require.Equal(t, uint32(pagemanager.LeafNodeLeftSplitCount), root.Key(0))

	for i := 0; i < root.NumChildren(); i++ {
		child, err := tbl.Pager().GetPage(root.Child(i))
		require.NoError(t, err)
		_, isLeaf := child.(*pagemanager.LeafNode)
		require.True(t, isLeaf)
		require.Equal(t, tbl.RootPageNum(), child.Parent())
	}

	require.Equal(t, expectedRows(ids...), selectAll(t, tbl))
}

func TestTable_ReopenPreservesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.db")
	tbl := openTestTable(t, path)
	require.NoError(t, tbl.Insert(1, encodeRow(t, 1, "foo", "bar")))
	require.NoError(t, tbl.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(pagemanager.PageSize), info.Size())

	reopened := openTestTable(t, path)
	defer reopened.Close()
	require.Equal(t, "Row<id:1, username:foo, email:bar>\n", selectAll(t, reopened))
}

func TestTable_RandomOrderInserts(t *testing.T) {
	tbl, _ := setupTable(t)
	r := rand.New(rand.NewSource(7))
	for _, k := range r.Perm(300) {
		insertID(t, tbl, uint32(k+1))
	}
	require.Equal(t, expectedRows(seq(1, 300)...), selectAll(t, tbl))
}

func TestTable_DeepTreeSurvivesReopenByteForByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.db")
	tbl := openTestTable(t, path, WithInternalMaxCells(2))

	r := rand.New(rand.NewSource(99))
	for _, k := range r.Perm(800) {
		insertID(t, tbl, uint32(k+1))
	}
	want := expectedRows(seq(1, 800)...)
	require.Equal(t, want, selectAll(t, tbl))
	require.GreaterOrEqual(t, treeHeight(t, tbl), 4)
	require.NoError(t, tbl.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Zero(t, len(before)%pagemanager.PageSize)

	reopened := openTestTable(t, path, WithInternalMaxCells(2))
	require.Equal(t, want, selectAll(t, reopened))
	require.NoError(t, reopened.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.Equal(before, after), "reopen and close must not change the file")
}

func treeHeight(t *testing.T, tbl *Table) int {
	t.Helper()
	height := 1
	pageNum := tbl.RootPageNum()
	for {
		node, err := tbl.Pager().GetPage(pageNum)
		require.NoError(t, err)
		internal, ok := node.(*pagemanager.InternalNode)
		if !ok {
			return height
		}
		pageNum = internal.Child(0)
		height++
	}
}

func TestTable_OpenRejectsBadRootFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.db")
	tbl := openTestTable(t, path)
	for _, id := range seq(1, 20) {
		insertID(t, tbl, id)
	}
	root := tbl.RootPageNum()
	require.NoError(t, tbl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Two roots: also flag leaf page 0.
	twoRoots := bytes.Clone(data)
	twoRoots[pagemanager.IsRootOffset] = 1
	require.NoError(t, os.WriteFile(path, twoRoots, 0644))
	_, err = Open(path)
	require.ErrorIs(t, err, flushmanager.ErrStructuralCorruption)

	// No root at all.
	noRoot := bytes.Clone(data)
	noRoot[int(root)*pagemanager.PageSize+pagemanager.IsRootOffset] = 0
	require.NoError(t, os.WriteFile(path, noRoot, 0644))
	_, err = Open(path)
	require.ErrorIs(t, err, flushmanager.ErrStructuralCorruption)
}

func TestTable_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := internaltelemetry.NewStorageMetrics(provider.Meter("btree-test"))
	require.NoError(t, err)

	tbl, _ := setupTable(t, WithMetrics(metrics))
	for _, id := range seq(1, 14) {
		insertID(t, tbl, id)
	}
	require.ErrorIs(t, tbl.Insert(3, encodeRow(t, 3, "x", "y")), flushmanager.ErrDuplicateKey)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	require.Equal(t, int64(14), totals["gojolite.table.rows_inserted_total"])
	require.Equal(t, int64(1), totals["gojolite.btree.splits_total"])
	require.Equal(t, int64(2), totals["gojolite.pager.pages_allocated_total"])
}
