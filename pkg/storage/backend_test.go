package storage

import (
	"context"
	"path/filepath"
	"testing"

	"bidindex/pkg/common"
	"bidindex/pkg/core"
)

func openTestBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "data", "bids.db"))
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBatchWriteDuplicatePolicies(t *testing.T) {
	b := openTestBackend(t)

	n, err := b.BatchWrite([]common.Record{
		{ID: "98109", Title: "Table", Fund: "Enterprise", Amount: 22},
		{ID: "98110", Title: "Chair", Fund: "General Fund", Amount: 5},
		{ID: "", Title: "no id"},
	}, common.PolicyIgnore)
	if err != nil {
		t.Fatalf("batch write: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows written, got %d", n)
	}

	n, err = b.BatchWrite([]common.Record{{ID: "98109", Title: "Other"}}, common.PolicyIgnore)
	if err != nil {
		t.Fatalf("batch write ignore: %v", err)
	}
	if n != 0 {
		t.Errorf("ignore policy wrote %d rows", n)
	}
	if rec, _ := b.Read("98109"); rec.Title != "Table" {
		t.Errorf("ignore policy changed title to %q", rec.Title)
	}

	if err := b.Write(common.Record{ID: "98109", Title: "Other"}, common.PolicyReplace); err != nil {
		t.Fatalf("write replace: %v", err)
	}
	if rec, _ := b.Read("98109"); rec.Title != "Other" {
		t.Errorf("replace policy kept title %q", rec.Title)
	}

	if err := b.Write(common.Record{}, common.PolicyIgnore); err != core.ErrEmptyID {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
}

func TestReadDeleteCountTruncate(t *testing.T) {
	b := openTestBackend(t)
	if _, err := b.BatchWrite([]common.Record{{ID: "b"}, {ID: "a"}, {ID: "c"}}, common.PolicyIgnore); err != nil {
		t.Fatalf("batch write: %v", err)
	}

	if _, ok := b.Read("zz"); ok {
		t.Error("found missing id")
	}
	if err := b.Delete("b"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	recs, err := b.LoadAll()
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "a" || recs[1].ID != "c" {
		t.Errorf("unexpected rows: %+v", recs)
	}

	if err := b.Truncate(); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if n, err := b.Count(); err != nil || n != 0 {
		t.Errorf("count after truncate: %d, %v", n, err)
	}
}

func TestSessionExportAndReload(t *testing.T) {
	b := openTestBackend(t)

	s := core.NewSession(nil)
	for _, id := range []string{"50", "30", "70", "20", "40"} {
		if _, err := s.Insert(common.Record{ID: id, Title: "bid " + id, Amount: 1.25}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	exp := NewExporter(b, common.PolicyReplace, 2)
	n, err := s.Dump(common.PreOrder, exp)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if n != 5 || exp.Written() != 5 {
		t.Fatalf("exported %d records, wrote %d rows", n, exp.Written())
	}

	src, err := b.Source()
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	fresh := core.NewSession(nil)
	res, err := fresh.Load(context.Background(), src, common.PolicyIgnore)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Inserted != 5 {
		t.Errorf("reloaded %d records", res.Inserted)
	}
	if rec, ok := fresh.Find("40"); !ok || rec.Title != "bid 40" || rec.Amount != 1.25 {
		t.Errorf("reloaded record mismatch: %+v (found=%v)", rec, ok)
	}
}
