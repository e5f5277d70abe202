package pager

import (
	"fmt"
	"time"

	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	internaltelemetry "github.com/sushant-115/gojolite/internal/telemetry"
	"go.uber.org/zap"
)

// Config tunes a Pager. The zero value is usable.
type Config struct {
	// InternalMaxCells caps the cells of an internal node before it splits.
	// Zero selects pagemanager.InternalNodeMaxCells.
	InternalMaxCells int
	Logger           *zap.Logger
	Metrics          *internaltelemetry.StorageMetrics
}

// Pager caches decoded pages of one database file. Pages are loaded lazily
// on first access and stay cached until the pager is closed; there is no eviction.
type Pager struct {
	disk             *flushmanager.DiskManager
	pages            map[pagemanager.PageNum]pagemanager.Node
	numPages         uint32
	internalMaxCells int
	logger           *zap.Logger
	metrics          *internaltelemetry.StorageMetrics
}

// Open opens or creates the file at path. A new or empty file counts as one page.
func Open(path string, cfg Config) (*Pager, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = internaltelemetry.NoopStorageMetrics()
	}
	if cfg.InternalMaxCells == 0 {
		cfg.InternalMaxCells = pagemanager.InternalNodeMaxCells
	}
	if cfg.InternalMaxCells < 2 || cfg.InternalMaxCells > pagemanager.InternalNodeMaxCells {
		return nil, fmt.Errorf("internal max cells %d out of range [2, %d]", cfg.InternalMaxCells, pagemanager.InternalNodeMaxCells)
	}

	disk, err := flushmanager.NewDiskManager(path, pagemanager.PageSize, cfg.Logger)
	if err != nil {
		return nil, err
	}
	numPages, err := disk.NumPages()
	if err != nil {
		_ = disk.Close()
		return nil, err
	}

	p := &Pager{
		disk:             disk,
		pages:            make(map[pagemanager.PageNum]pagemanager.Node),
		numPages:         numPages,
		internalMaxCells: cfg.InternalMaxCells,
		logger:           cfg.Logger,
		metrics:          cfg.Metrics,
	}
	p.logger.Info("Pager opened", zap.String("path", path), zap.Uint32("num_pages", numPages))
	return p, nil
}

func (p *Pager) NumPages() uint32      { return p.numPages }
func (p *Pager) InternalMaxCells() int { return p.internalMaxCells }

// GetPage returns page n, reading and decoding it on first access.
func (p *Pager) GetPage(n pagemanager.PageNum) (pagemanager.Node, error) {
	if uint32(n) >= p.numPages {
		return nil, fmt.Errorf("%w: page %d beyond last page %d", flushmanager.ErrPageNotFound, n, p.numPages-1)
	}
	if node, ok := p.pages[n]; ok {
		p.metrics.CacheHit()
		return node, nil
	}

	buf := make([]byte, pagemanager.PageSize)
	if _, err := p.disk.ReadPage(uint32(n), buf); err != nil {
		p.logger.Error("Failed to read page", zap.Uint32("page_num", uint32(n)), zap.Error(err))
		return nil, fmt.Errorf("%w: page %d: %w", flushmanager.ErrPageNotFound, n, err)
	}
	node, err := pagemanager.Deserialize(buf)
	if err != nil {
		p.logger.Error("Failed to decode page", zap.Uint32("page_num", uint32(n)), zap.Error(err))
		return nil, fmt.Errorf("%w: page %d: %w", flushmanager.ErrPageNotFound, n, err)
	}
	p.pages[n] = node
	p.metrics.PageLoaded()
	p.logger.Debug("Loaded page", zap.Uint32("page_num", uint32(n)), zap.Stringer("node_type", node.Type()))
	return node, nil
}

// GetPageMut resolves page n through GetPage and hands it out for modification.
// Nodes are shared pointers, so changes are visible to the next Flush.
func (p *Pager) GetPageMut(n pagemanager.PageNum) (pagemanager.Node, error) {
	node, err := p.GetPage(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", flushmanager.ErrPageMutFailure, err)
	}
	return node, nil
}

// NewPageNum hands out the next unused page number. Numbers are never reused.
func (p *Pager) NewPageNum() pagemanager.PageNum {
	n := pagemanager.PageNum(p.numPages)
	p.numPages++
	p.metrics.PageAllocated()
	return n
}

// AllocateLeaf installs an empty, non-root leaf as page n, replacing anything cached there.
func (p *Pager) AllocateLeaf(n pagemanager.PageNum) *pagemanager.LeafNode {
	leaf := pagemanager.NewLeafNode()
	p.pages[n] = leaf
	p.logger.Debug("Allocated leaf", zap.Uint32("page_num", uint32(n)))
	return leaf
}

// AllocateInternal installs an empty, non-root internal node as page n.
func (p *Pager) AllocateInternal(n pagemanager.PageNum) *pagemanager.InternalNode {
	internal := pagemanager.NewInternalNode()
	p.pages[n] = internal
	p.logger.Debug("Allocated internal node", zap.Uint32("page_num", uint32(n)))
	return internal
}

// Flush writes every page in page-number order and syncs the file. Every page
// below NumPages must be cached; an allocated page that never got a node is
// reported as ErrPageNotCached.
func (p *Pager) Flush() error {
	start := time.Now()
	for i := uint32(0); i < p.numPages; i++ {
		node, ok := p.pages[pagemanager.PageNum(i)]
		if !ok {
			return fmt.Errorf("%w: page %d", flushmanager.ErrPageNotCached, i)
		}
		data, err := pagemanager.Serialize(node)
		if err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
		if err := p.disk.WritePage(i, data); err != nil {
			p.logger.Error("Failed to write page", zap.Uint32("page_num", i), zap.Error(err))
			return err
		}
	}
	if err := p.disk.Sync(); err != nil {
		return err
	}
	p.metrics.Flushed(time.Since(start))
	p.logger.Debug("Flushed pages", zap.Uint32("num_pages", p.numPages), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Close releases the file. It does not flush.
func (p *Pager) Close() error {
	return p.disk.Close()
}
