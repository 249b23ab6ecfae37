// Package present renders traversal output.
package present

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bidindex/pkg/common"
)

// Text writes one "id: title | amount | fund" line per record.
type Text struct {
	w *bufio.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

func (t *Text) Present(rec common.Record) error {
	_, err := fmt.Fprintln(t.w, rec.String())
	return err
}

func (t *Text) Flush() error {
	return t.w.Flush()
}

// CSVHeader is the header row written by CSV.
var CSVHeader = []string{"Auction ID", "Auction Title", "Fund", "Winning Bid"}

// CSV writes records in the same column names the CSV source reads, so a
// dump can be loaded back.
type CSV struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

func (c *CSV) Present(rec common.Record) error {
	if !c.wroteHeader {
		if err := c.w.Write(CSVHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	return c.w.Write([]string{
		rec.ID,
		rec.Title,
		rec.Fund,
		strconv.FormatFloat(rec.Amount, 'f', 2, 64),
	})
}

// Flush writes the header even when no record was presented.
func (c *CSV) Flush() error {
	if !c.wroteHeader {
		if err := c.w.Write(CSVHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	c.w.Flush()
	return c.w.Error()
}

// Collector keeps every presented record in memory.
type Collector struct {
	Records []common.Record
}

func (c *Collector) Present(rec common.Record) error {
	c.Records = append(c.Records, rec)
	return nil
}
