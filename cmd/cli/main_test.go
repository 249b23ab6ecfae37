package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bidindex/pkg/config"
	"bidindex/pkg/core"
)

const csvData = "Auction Title,Auction ID,Department,Close Date,Winning Bid,Pay Date,Pay Status,Pay Method,Fund\n" +
	"Table,98109,General Services,12/1/2016,$22.00,12/2/2016,Paid,Paypal,Enterprise\n" +
	"Chair,98000,General Services,12/1/2016,$5.00,12/2/2016,Paid,Paypal,General Fund\n" +
	"Desk,98200,General Services,12/1/2016,$81.25,12/2/2016,Paid,Paypal,Enterprise\n"

func TestMenuSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bids.csv")
	if err := os.WriteFile(path, []byte(csvData), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	cfg := config.Default()
	cfg.Source.CSVPath = path

	// load, display, find, remove, find again, pre-order, set key, exit
	input := "1\n2\n3\n4\n3\n5\n7\n98000\n3\n9\n"
	var out bytes.Buffer
	m := newMenu(core.NewSession(cfg), cfg, strings.NewReader(input), &out)
	m.run(context.Background())

	got := out.String()
	for _, want := range []string{
		"3 bids read",
		"98000: Chair | 5.00 | General Fund\n98109: Table | 22.00 | Enterprise\n98200: Desk | 81.25 | Enterprise\n",
		"98109: Table | 22.00 | Enterprise\ntime:",
		"Bid Id 98109 removed.",
		"Bid Id 98109 not found.",
		"98200: Desk | 81.25 | Enterprise\n98000: Chair | 5.00 | General Fund\n",
		"Bid key set to 98000",
		"Good bye.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n---\n%s", want, got)
		}
	}
}

func TestMenuMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Source.CSVPath = filepath.Join(t.TempDir(), "missing.csv")

	var out bytes.Buffer
	m := newMenu(core.NewSession(cfg), cfg, strings.NewReader("1\n2\n9\n"), &out)
	m.run(context.Background())

	if !strings.Contains(out.String(), "Error:") {
		t.Errorf("expected load error in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "No bids loaded.") {
		t.Errorf("expected empty display message:\n%s", out.String())
	}
}
