// Package source reads bid records from CSV exports of the monthly sales sheet.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bidindex/pkg/common"
)

// Column headers of the eBid monthly sales export.
const (
	HeaderID     = "Auction ID"
	HeaderTitle  = "Auction Title"
	HeaderFund   = "Fund"
	HeaderAmount = "Winning Bid"
)

// Positions used when the header does not name a column.
const (
	colTitle  = 0
	colID     = 1
	colAmount = 4
	colFund   = 8
)

// RowError describes a data row that could not be turned into a record.
// It matches common.ErrInvalidRecord under errors.Is.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{common.ErrInvalidRecord, e.Err}
}

type columns struct {
	id, title, fund, amount int
}

// CSVSource yields one record per data row. The first row must be the header.
type CSVSource struct {
	r      *csv.Reader
	closer io.Closer
	cols   columns
	symbol string
}

// Open reads the CSV file at path.
func Open(path, currencySymbol string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewCSVSource(f, currencySymbol)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.closer = f
	return src, nil
}

// NewCSVSource consumes the header row of r and resolves the column layout.
func NewCSVSource(r io.Reader, currencySymbol string) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	if currencySymbol == "" {
		currencySymbol = common.DefaultCurrencySymbol
	}
	return &CSVSource{
		r:      cr,
		cols:   resolveColumns(header),
		symbol: currencySymbol,
	}, nil
}

func resolveColumns(header []string) columns {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(cleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	lookup := func(name string, fallback int) int {
		if i, ok := idx[strings.ToLower(name)]; ok {
			return i
		}
		return fallback
	}
	return columns{
		id:     lookup(HeaderID, colID),
		title:  lookup(HeaderTitle, colTitle),
		fund:   lookup(HeaderFund, colFund),
		amount: lookup(HeaderAmount, colAmount),
	}
}

// Next returns the next record, io.EOF at the end of input, or a *RowError
// for a row that is missing its ID or carries a malformed amount.
func (s *CSVSource) Next() (common.Record, error) {
	row, err := s.r.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return common.Record{}, &RowError{Line: perr.Line, Err: perr.Err}
		}
		return common.Record{}, err
	}
	line, _ := s.r.FieldPos(0)

	id := cell(row, s.cols.id)
	if id == "" {
		return common.Record{}, &RowError{Line: line, Err: errors.New("missing auction id")}
	}

	amount, err := common.ParseAmount(cell(row, s.cols.amount), s.symbol)
	if err != nil {
		return common.Record{}, &RowError{Line: line, Err: err}
	}

	return common.Record{
		ID:     id,
		Title:  cell(row, s.cols.title),
		Fund:   cell(row, s.cols.fund),
		Amount: amount,
	}, nil
}

// Close releases the underlying file, if Open created one.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return cleanCell(row[i])
}

// cleanCell trims whitespace, a UTF-8 byte order mark and stray single quotes.
func cleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "'", "")
	return strings.TrimSpace(s)
}
