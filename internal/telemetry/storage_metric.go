package internaltelemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// StorageMetrics holds the metric instruments for the pager and table.
type StorageMetrics struct {
	PageLoadsCounter      metric.Int64Counter
	CacheHitsCounter      metric.Int64Counter
	PagesAllocatedCounter metric.Int64Counter
	SplitsCounter         metric.Int64Counter
	RowsInsertedCounter   metric.Int64Counter
	FlushDuration         metric.Int64Histogram
}

// NewStorageMetrics creates and registers all the metrics for the storage layer.
func NewStorageMetrics(meter metric.Meter) (*StorageMetrics, error) {
	pageLoads, err := meter.Int64Counter(
		"gojolite.pager.page_loads_total",
		metric.WithDescription("Pages read from the database file into the page cache."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"gojolite.pager.cache_hits_total",
		metric.WithDescription("Page requests served from the page cache."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	pagesAllocated, err := meter.Int64Counter(
		"gojolite.pager.pages_allocated_total",
		metric.WithDescription("New page numbers handed out by the allocator."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	splits, err := meter.Int64Counter(
		"gojolite.btree.splits_total",
		metric.WithDescription("Node splits, by node type."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	rowsInserted, err := meter.Int64Counter(
		"gojolite.table.rows_inserted_total",
		metric.WithDescription("Rows successfully inserted."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	flushDuration, err := meter.Int64Histogram(
		"gojolite.pager.flush.duration",
		metric.WithDescription("Time spent writing all cached pages back to the file."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &StorageMetrics{
		PageLoadsCounter:      pageLoads,
		CacheHitsCounter:      cacheHits,
		PagesAllocatedCounter: pagesAllocated,
		SplitsCounter:         splits,
		RowsInsertedCounter:   rowsInserted,
		FlushDuration:         flushDuration,
	}, nil
}

// NoopStorageMetrics returns instruments that record nothing.
func NoopStorageMetrics() *StorageMetrics {
	m, _ := NewStorageMetrics(noop.NewMeterProvider().Meter(""))
	return m
}

func (m *StorageMetrics) PageLoaded()    { m.PageLoadsCounter.Add(context.Background(), 1) }
func (m *StorageMetrics) CacheHit()      { m.CacheHitsCounter.Add(context.Background(), 1) }
func (m *StorageMetrics) PageAllocated() { m.PagesAllocatedCounter.Add(context.Background(), 1) }
func (m *StorageMetrics) RowInserted()   { m.RowsInsertedCounter.Add(context.Background(), 1) }

func (m *StorageMetrics) Split(nodeType string) {
	m.SplitsCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("node_type", nodeType)))
}

func (m *StorageMetrics) Flushed(elapsed time.Duration) {
	m.FlushDuration.Record(context.Background(), elapsed.Milliseconds())
}
