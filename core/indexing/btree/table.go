package btree

import (
	"errors"
	"fmt"
	"io"

	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	"github.com/sushant-115/gojolite/core/write_engine/pager"
	"github.com/sushant-115/gojolite/core/write_engine/record"
	internaltelemetry "github.com/sushant-115/gojolite/internal/telemetry"
	"go.uber.org/zap"
)

// --- Options ---

type options struct {
	internalMaxCells int
	logger           *zap.Logger
	metrics          *internaltelemetry.StorageMetrics
}

// Option configures a Table at Open.
type Option func(*options)

// WithInternalMaxCells lowers the internal node fan-out. Zero keeps the
// page-derived maximum.
func WithInternalMaxCells(n int) Option {
	return func(o *options) { o.internalMaxCells = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(metrics *internaltelemetry.StorageMetrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// --- Table ---

// Table is a single B-tree of rows keyed by id, stored in one file.
type Table struct {
	rootPageNum pagemanager.PageNum
	pager       *pager.Pager
	logger      *zap.Logger
	metrics     *internaltelemetry.StorageMetrics
}

// Open opens or creates the table file at path and locates its root page.
func Open(path string, opts ...Option) (*Table, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.metrics == nil {
		o.metrics = internaltelemetry.NoopStorageMetrics()
	}

	p, err := pager.Open(path, pager.Config{
		InternalMaxCells: o.internalMaxCells,
		Logger:           o.logger,
		Metrics:          o.metrics,
	})
	if err != nil {
		return nil, err
	}
	root, err := findRoot(p)
	if err != nil {
		_ = p.Close()
		o.logger.Error("Failed to locate root page", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	o.logger.Info("Table opened",
		zap.String("path", path),
		zap.Uint32("root_page_num", uint32(root)),
		zap.Uint32("num_pages", p.NumPages()),
	)
	return &Table{rootPageNum: root, pager: p, logger: o.logger, metrics: o.metrics}, nil
}

// findRoot returns the only root-flagged page. A one-page file always has
// its page 0 as the root leaf.
func findRoot(p *pager.Pager) (pagemanager.PageNum, error) {
	if p.NumPages() == 1 {
		node, err := p.GetPageMut(0)
		if err != nil {
			return 0, err
		}
		if leaf, ok := node.(*pagemanager.LeafNode); ok {
			leaf.SetRoot(true)
		}
	}

	var roots []pagemanager.PageNum
	for i := uint32(0); i < p.NumPages(); i++ {
		node, err := p.GetPage(pagemanager.PageNum(i))
		if err != nil {
			return 0, err
		}
		if node.IsRoot() {
			roots = append(roots, pagemanager.PageNum(i))
		}
	}
	if len(roots) != 1 {
		return 0, fmt.Errorf("%w: found %d root pages %v, want exactly one", flushmanager.ErrStructuralCorruption, len(roots), roots)
	}
	return roots[0], nil
}

func (t *Table) RootPageNum() pagemanager.PageNum { return t.rootPageNum }
func (t *Table) Pager() *pager.Pager               { return t.pager }

// Close flushes every page and closes the file. A flush failure is returned
// but the file is still closed.
func (t *Table) Close() error {
	flushErr := t.pager.Flush()
	if flushErr != nil {
		t.logger.Error("Failed to flush table", zap.Error(flushErr))
	}
	closeErr := t.pager.Close()
	if flushErr == nil && closeErr == nil {
		t.logger.Info("Table closed", zap.Uint32("num_pages", t.pager.NumPages()))
	}
	return errors.Join(flushErr, closeErr)
}

// --- Operations ---

// Insert adds rec under key. A duplicate key or a missing record leaves the
// tree untouched.
func (t *Table) Insert(key uint32, rec []byte) error {
	if rec == nil {
		return flushmanager.ErrMissingRecord
	}
	if len(rec) != record.Size {
		return fmt.Errorf("%w: got %d bytes, want %d", record.ErrShortRecord, len(rec), record.Size)
	}

	cursor, err := t.Find(key)
	if err != nil {
		return err
	}
	if cursor.KeyFound {
		return fmt.Errorf("%w: %d", flushmanager.ErrDuplicateKey, key)
	}

	node, err := cursor.PageMut()
	if err != nil {
		return err
	}
	leaf, ok := node.(*pagemanager.LeafNode)
	if !ok {
		return fmt.Errorf("%w: cursor stopped on internal page %d", flushmanager.ErrStructuralCorruption, cursor.PageNum)
	}

	if leaf.IsFull() {
		newRoot, changed, err := t.pager.SplitAndInsert(cursor.PageNum, cursor.CellNum, key, rec)
		if err != nil {
			t.logger.Error("Failed to split page", zap.Uint32("page_num", uint32(cursor.PageNum)), zap.Uint32("key", key), zap.Error(err))
			return err
		}
		if changed {
			t.logger.Debug("Root changed", zap.Uint32("old_root_page_num", uint32(t.rootPageNum)), zap.Uint32("root_page_num", uint32(newRoot)))
			t.rootPageNum = newRoot
		}
	} else {
		leaf.InsertAt(cursor.CellNum, key, rec)
	}

	t.metrics.RowInserted()
	return nil
}

// SelectAll writes every row in ascending key order, one per line.
func (t *Table) SelectAll(w io.Writer) error {
	cursor, err := t.Start()
	if err != nil {
		return err
	}
	for !cursor.EndOfTable {
		rec, err := cursor.Row()
		if err != nil {
			return err
		}
		row, err := record.Decode(rec)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
		if err := cursor.Advance(); err != nil {
			return err
		}
	}
	return nil
}
