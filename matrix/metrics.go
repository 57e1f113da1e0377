package matrix

import "sync/atomic"

// MetricsCollector receives events from chunked backends.
type MetricsCollector interface {
	// RecordReopen is called after the backend closed and reopened its file
	// to cache a stripe of cacheBytes. err is nil if the reopen succeeded.
	RecordReopen(byRow bool, cacheBytes int64, err error)

	// RecordCacheLimit is called when an access was refused because its
	// stripe exceeds the cache limit.
	RecordCacheLimit(byRow bool)

	// RecordSelection is called after each hyperslab read or write.
	RecordSelection(write bool, elements int)
}

// NoopMetricsCollector discards all events.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordReopen(bool, int64, error) {}
func (NoopMetricsCollector) RecordCacheLimit(bool)           {}
func (NoopMetricsCollector) RecordSelection(bool, int)       {}

// BasicMetricsCollector counts events in memory.
type BasicMetricsCollector struct {
	Reopens          atomic.Int64
	ReopenErrors     atomic.Int64
	RowReopens       atomic.Int64
	CacheLimitErrors atomic.Int64
	Reads            atomic.Int64
	ReadElements     atomic.Int64
	Writes           atomic.Int64
	WriteElements    atomic.Int64
}

// RecordReopen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReopen(byRow bool, _ int64, err error) {
	b.Reopens.Add(1)
	if byRow {
		b.RowReopens.Add(1)
	}
	if err != nil {
		b.ReopenErrors.Add(1)
	}
}

// RecordCacheLimit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLimit(bool) {
	b.CacheLimitErrors.Add(1)
}

// RecordSelection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelection(write bool, elements int) {
	if write {
		b.Writes.Add(1)
		b.WriteElements.Add(int64(elements))
		return
	}
	b.Reads.Add(1)
	b.ReadElements.Add(int64(elements))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Reopens:          b.Reopens.Load(),
		ReopenErrors:     b.ReopenErrors.Load(),
		RowReopens:       b.RowReopens.Load(),
		CacheLimitErrors: b.CacheLimitErrors.Load(),
		Reads:            b.Reads.Load(),
		ReadElements:     b.ReadElements.Load(),
		Writes:           b.Writes.Load(),
		WriteElements:    b.WriteElements.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Reopens          int64
	ReopenErrors     int64
	RowReopens       int64
	CacheLimitErrors int64
	Reads            int64
	ReadElements     int64
	Writes           int64
	WriteElements    int64
}
