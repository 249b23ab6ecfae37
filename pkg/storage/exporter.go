package storage

import (
	"bidindex/pkg/common"
)

const defaultExportBatch = 500

// Exporter is a presenter that writes a traversal into the bids table in
// batches. Call Flush to write the final partial batch.
type Exporter struct {
	backend   Backend
	policy    common.DuplicatePolicy
	batchSize int
	buf       []common.Record
	written   int64
}

func NewExporter(b Backend, policy common.DuplicatePolicy, batchSize int) *Exporter {
	if batchSize <= 0 {
		batchSize = defaultExportBatch
	}
	return &Exporter{
		backend:   b,
		policy:    policy,
		batchSize: batchSize,
		buf:       make([]common.Record, 0, batchSize),
	}
}

func (e *Exporter) Present(rec common.Record) error {
	e.buf = append(e.buf, rec)
	if len(e.buf) >= e.batchSize {
		return e.Flush()
	}
	return nil
}

func (e *Exporter) Flush() error {
	if len(e.buf) == 0 {
		return nil
	}
	n, err := e.backend.BatchWrite(e.buf, e.policy)
	if err != nil {
		return err
	}
	e.written += n
	e.buf = e.buf[:0]
	return nil
}

// Written returns the number of rows stored so far.
func (e *Exporter) Written() int64 {
	return e.written
}
