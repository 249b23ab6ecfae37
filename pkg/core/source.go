package core

import (
	"io"

	"bidindex/pkg/common"
)

// RecordSource yields records one at a time. Next returns io.EOF once the
// source is exhausted. An error wrapping common.ErrInvalidRecord reports a
// bad row; the source can still be read past it.
type RecordSource interface {
	Next() (common.Record, error)
}

// Presenter receives records produced by a traversal.
type Presenter interface {
	Present(rec common.Record) error
}

// Flusher is implemented by presenters that buffer output.
type Flusher interface {
	Flush() error
}

// SliceSource serves records from memory.
type SliceSource struct {
	recs []common.Record
	pos  int
}

func NewSliceSource(recs []common.Record) *SliceSource {
	return &SliceSource{recs: recs}
}

func (s *SliceSource) Next() (common.Record, error) {
	if s.pos >= len(s.recs) {
		return common.Record{}, io.EOF
	}
	r := s.recs[s.pos]
	s.pos++
	return r, nil
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(common.Record) error

func (f PresenterFunc) Present(rec common.Record) error {
	return f(rec)
}
