package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"bidindex/pkg/common"
	"bidindex/pkg/config"
	"bidindex/pkg/core/bst"
	"bidindex/pkg/core/structure"
	"bidindex/pkg/logging"
	"bidindex/pkg/monitor"

	"github.com/google/uuid"
)

// Session owns one index and the currently selected default bid key.
// All methods are safe for concurrent use: a single mutex serializes every
// operation, including full traversals. Load locks once per record.
type Session struct {
	id         string
	kind       Kind
	mu         sync.Mutex
	idx        Index
	defaultKey string
	bloom      *structure.BloomFilter
	stats      *monitor.WorkloadStats
	log        *slog.Logger
}

// LoadResult summarizes one bulk load.
type LoadResult struct {
	Read       int           `json:"read"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Replaced   int           `json:"replaced"`
	Skipped    int           `json:"skipped"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// NewSession builds an empty session from cfg. A nil cfg uses the defaults.
// bstOpts are passed to the binary search tree backend.
func NewSession(cfg *config.Config, bstOpts ...bst.Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	kind, err := ParseKind(cfg.Index.Backend)
	if err != nil {
		kind = KindBST
	}

	s := &Session{
		id:         uuid.NewString(),
		kind:       kind,
		idx:        NewIndex(kind, cfg.Index.BTreeDegree, bstOpts...),
		defaultKey: cfg.Source.DefaultKey,
		stats:      monitor.NewWorkloadStats(),
	}
	if cfg.Index.BloomSize > 0 {
		s.bloom = structure.NewBloomFilter(cfg.Index.BloomSize, cfg.Index.BloomFalseProb)
	}
	s.log = logging.Component("session").With("session_id", s.id, "backend", string(kind))
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Backend() Kind {
	return s.kind
}

func (s *Session) DefaultKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultKey
}

func (s *Session) SetDefaultKey(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultKey = id
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Len()
}

// Load drains src into the index. Rows rejected by the source and records
// without an ID are skipped and counted. The source is read outside the
// session lock; the lock is taken once per record. The context is checked
// between records; on cancellation the records loaded so far stay in the index.
func (s *Session) Load(ctx context.Context, src RecordSource, policy common.DuplicatePolicy) (LoadResult, error) {
	var res LoadResult
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, common.ErrInvalidRecord) {
			res.Read++
			res.Skipped++
			s.log.Warn("skipping row", "error", err)
			continue
		}
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("load: %w", err)
		}

		res.Read++
		if !rec.Valid() {
			res.Skipped++
			s.log.Warn("skipping record without id", "title", rec.Title)
			continue
		}

		switch s.loadOne(rec, policy) {
		case loadInserted:
			res.Inserted++
		case loadReplaced:
			res.Replaced++
		default:
			res.Duplicates++
		}
	}

	res.Elapsed = time.Since(start)
	s.log.Info("load complete",
		"read", res.Read,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"replaced", res.Replaced,
		"skipped", res.Skipped,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

type loadOutcome int

const (
	loadDuplicate loadOutcome = iota
	loadInserted
	loadReplaced
)

func (s *Session) loadOne(rec common.Record, policy common.DuplicatePolicy) loadOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.idx.Search(rec.ID); found {
		if policy != common.PolicyReplace {
			s.stats.RecordDuplicate()
			return loadDuplicate
		}
		s.idx.Remove(rec.ID)
		s.idx.Insert(rec)
		return loadReplaced
	}
	s.insertLocked(rec)
	return loadInserted
}

// Insert adds one record and reports whether it was new. An existing record
// with the same ID is kept.
func (s *Session) Insert(rec common.Record) (bool, error) {
	if !rec.Valid() {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.idx.Search(rec.ID); found {
		s.stats.RecordDuplicate()
		return false, nil
	}
	s.insertLocked(rec)
	return true, nil
}

func (s *Session) insertLocked(rec common.Record) {
	s.idx.Insert(rec)
	if s.bloom != nil {
		s.bloom.Add(rec.ID)
	}
	s.stats.RecordInsert()
}

// Find looks up a record by ID.
func (s *Session) Find(id string) (common.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

// FindDefault looks up the default key.
func (s *Session) FindDefault() (common.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.defaultKey)
}

func (s *Session) findLocked(id string) (common.Record, bool) {
	s.stats.RecordSearch()
	if s.bloom != nil && !s.bloom.Contains(id) {
		s.stats.RecordFiltered()
		return common.Record{}, false
	}
	rec, found := s.idx.Search(id)
	if found {
		s.stats.RecordHit()
	}
	return rec, found
}

// Remove deletes the record stored under id and reports whether it existed.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

// RemoveDefault deletes the record stored under the default key.
func (s *Session) RemoveDefault() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(s.defaultKey)
}

func (s *Session) removeLocked(id string) bool {
	if _, found := s.idx.Search(id); !found {
		return false
	}
	s.idx.Remove(id)
	s.stats.RecordRemove()
	return true
}

// Dump walks the index in the given order and hands each record to p.
// It returns how many records were presented. A presenter error stops the
// walk. Presenters that buffer are flushed at the end.
func (s *Session) Dump(order common.Order, p Presenter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	var perr error
	err := Walk(s.idx, order, func(r common.Record) bool {
		if perr = p.Present(r); perr != nil {
			return false
		}
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	if perr != nil {
		return n, fmt.Errorf("present %s: %w", order, perr)
	}
	if f, ok := p.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return n, fmt.Errorf("flush: %w", err)
		}
	}
	return n, nil
}

// Records returns a snapshot of the index in the given order.
func (s *Session) Records(order common.Order) ([]common.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Collect(s.idx, order)
}

// Reset tears the index down, releasing every record, and leaves the session
// empty. The default key is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.idx.Len()
	s.idx.Clear()
	if s.bloom != nil {
		s.bloom.Reset()
	}
	s.log.Info("index reset", "released", n)
}

func (s *Session) Stats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]interface{}{
		"session_id":  s.id,
		"backend":     string(s.kind),
		"records":     s.idx.Len(),
		"default_key": s.defaultKey,
	}
	if h, ok := Height(s.idx); ok {
		out["height"] = h
	}
	for k, v := range s.stats.Snapshot() {
		out[k] = v
	}
	if s.bloom != nil {
		for k, v := range s.bloom.Stats() {
			out[k] = v
		}
	}
	return out
}
