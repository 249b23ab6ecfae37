package common

import "fmt"

// Record is one bid: the unit stored in every index backend.
// ID is the ordering key and must be non-empty for a valid record.
type Record struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fund   string  `json:"fund"`
	Amount float64 `json:"amount"`
}

// Valid reports whether the record can be placed in an index.
func (r Record) Valid() bool {
	return r.ID != ""
}

// String renders the record in the display layout used by the menu.
func (r Record) String() string {
	return fmt.Sprintf("%s: %s | %.2f | %s", r.ID, r.Title, r.Amount, r.Fund)
}
