package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/bidindex.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}

	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr: got %s", cfg.Server.Addr)
	}
	if cfg.Server.TCPAddr != ":9090" {
		t.Errorf("default tcp_addr: got %s", cfg.Server.TCPAddr)
	}
	if cfg.Index.Backend != "bst" {
		t.Errorf("default backend: got %s", cfg.Index.Backend)
	}
	if cfg.Source.DefaultKey != "98109" {
		t.Errorf("default key: got %s", cfg.Source.DefaultKey)
	}
	if cfg.Source.CSVPath != "eBid_Monthly_Sales_Dec_2016.csv" {
		t.Errorf("default csv path: got %s", cfg.Source.CSVPath)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
server:
  addr: ":9000"
  tcp_addr: ":9001"
  shutdown_timeout: 3s
index:
  backend: rbtree
  bloom_size: 500
source:
  csv_path: "bids.csv"
  default_key: "12345"
  duplicate_policy: replace
storage:
  path: "test_data/bids.db"
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr: got %s", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown_timeout: got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Index.Backend != "rbtree" {
		t.Errorf("backend: got %s", cfg.Index.Backend)
	}
	if cfg.Index.BloomSize != 500 {
		t.Errorf("bloom_size: got %d", cfg.Index.BloomSize)
	}
	if cfg.Index.BTreeDegree != 32 {
		t.Errorf("btree_degree default not applied: got %d", cfg.Index.BTreeDegree)
	}
	if cfg.Source.DefaultKey != "12345" || cfg.Source.DuplicatePolicy != "replace" {
		t.Errorf("source: got %+v", cfg.Source)
	}
	if cfg.Source.CurrencySymbol != "$" {
		t.Errorf("currency symbol default not applied: got %q", cfg.Source.CurrencySymbol)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format: got %s", cfg.Logging.Format)
	}
}

func TestEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BIDINDEX_DEFAULT_KEY", "55555")
	t.Setenv("BIDINDEX_BACKEND", "btree")
	t.Setenv("BIDINDEX_BTREE_DEGREE", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.DefaultKey != "55555" {
		t.Errorf("default key: got %s", cfg.Source.DefaultKey)
	}
	if cfg.Index.Backend != "btree" || cfg.Index.BTreeDegree != 8 {
		t.Errorf("index: got %+v", cfg.Index)
	}

	t.Setenv("BIDINDEX_BTREE_DEGREE", "eight")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric degree")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Index.Backend = "skiplist"
	cfg.Source.DuplicatePolicy = "merge"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"index.backend", "duplicate_policy", "logging.format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
