package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bidindex/pkg/common"
	"bidindex/pkg/config"
	"bidindex/pkg/core"
	"bidindex/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadCSV = "Auction Title,Auction ID,Department,Close Date,Winning Bid,Pay Date,Pay Status,Pay Method,Fund\n" +
	"Table,50,General Services,12/1/2016,$22.00,12/2/2016,Paid,Paypal,Enterprise\n" +
	"Chair,30,General Services,12/1/2016,$5.00,12/2/2016,Paid,Paypal,General Fund\n" +
	"Desk,70,General Services,12/1/2016,$81.25,12/2/2016,Paid,Paypal,Enterprise\n" +
	"Lamp,,General Services,12/1/2016,$1.00,12/2/2016,Paid,Paypal,Enterprise\n"

func newTestServer(t *testing.T, backend string, withStore bool) (*Server, *core.Session) {
	t.Helper()
	cfg := config.Default()
	cfg.Index.Backend = backend
	session := core.NewSession(cfg)

	var store storage.Backend
	if withStore {
		b, err := storage.NewSQLiteBackend(filepath.Join(t.TempDir(), "bids.db"))
		require.NoError(t, err)
		t.Cleanup(func() { b.Close() })
		store = b
	}
	return NewServer(session, cfg, store), session
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoadAndList(t *testing.T) {
	s, session := newTestServer(t, "bst", false)

	rec := do(t, s, http.MethodPost, "/api/load", uploadCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 3, body["inserted"])
	assert.EqualValues(t, 1, body["skipped"])
	assert.Equal(t, 3, session.Len())

	rec = do(t, s, http.MethodGet, "/api/bids?order=pre", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Order   string          `json:"order"`
		Count   int             `json:"count"`
		Records []common.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "preorder", list.Order)
	require.Equal(t, 3, list.Count)
	assert.Equal(t, "50", list.Records[0].ID)
	assert.Equal(t, 81.25, list.Records[2].Amount)

	rec = do(t, s, http.MethodGet, "/api/bids?order=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCSV(t *testing.T) {
	s, _ := newTestServer(t, "bst", false)
	do(t, s, http.MethodPost, "/api/load", uploadCSV)

	rec := do(t, s, http.MethodGet, "/api/bids?order=post&format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Auction ID,Auction Title,Fund,Winning Bid", lines[0])
	assert.Equal(t, "30,Chair,General Fund,5.00", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "50,"))
}

func TestListUnsupportedOrder(t *testing.T) {
	s, _ := newTestServer(t, "btree", false)
	rec := do(t, s, http.MethodGet, "/api/bids?order=pre", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/bids?order=pre&format=csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsertGetDelete(t *testing.T) {
	s, _ := newTestServer(t, "bst", false)

	rec := do(t, s, http.MethodPost, "/api/bids", `{"id":"98109","title":"Table","fund":"Enterprise","amount":22}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/bids", `{"id":"98109","title":"Other"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["duplicate"])

	rec = do(t, s, http.MethodPost, "/api/bids", `{"title":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/bids", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/bids/98109", "")
	require.Equal(t, http.StatusOK, rec.Code)
	record := decode(t, rec)["record"].(map[string]interface{})
	assert.Equal(t, "Table", record["title"])

	rec = do(t, s, http.MethodDelete, "/api/bids/98109", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/bids/98109", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/bids/98109", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "bid not found", decode(t, rec)["error"])
}

func TestDefaultKey(t *testing.T) {
	s, _ := newTestServer(t, "rbtree", false)

	rec := do(t, s, http.MethodGet, "/api/default", "")
	body := decode(t, rec)
	assert.Equal(t, "98109", body["key"])
	assert.Equal(t, false, body["found"])

	rec = do(t, s, http.MethodPut, "/api/default", `{"key":"30"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	do(t, s, http.MethodPost, "/api/load", uploadCSV)

	body = decode(t, do(t, s, http.MethodGet, "/api/default", ""))
	assert.Equal(t, true, body["found"])

	rec = do(t, s, http.MethodPut, "/api/default", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDefaultKeyBodyLimit(t *testing.T) {
	s, session := newTestServer(t, "bst", false)

	huge := `{"key":"` + strings.Repeat("9", 2*maxKeyBody) + `"}`
	rec := do(t, s, http.MethodPut, "/api/default", huge)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "98109", session.DefaultKey())
}

func TestExportImportRoundTrip(t *testing.T) {
	s, session := newTestServer(t, "bst", true)
	do(t, s, http.MethodPost, "/api/load", uploadCSV)

	rec := do(t, s, http.MethodPost, "/api/export?order=pre", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode(t, rec)["written"])

	rec = do(t, s, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, session.Len())

	rec = do(t, s, http.MethodPost, "/api/import", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["inserted"])
	assert.Equal(t, 3, session.Len())
}

func TestStorageDisabled(t *testing.T) {
	s, _ := newTestServer(t, "bst", false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/export", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/import", "").Code)
}

func TestStatsAndRequestID(t *testing.T) {
	s, session := newTestServer(t, "bst", false)
	rec := do(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, session.ID(), body["session_id"])
	assert.Equal(t, "bst", body["backend"])

	req := httptest.NewRequest(http.MethodPost, "/api/load?policy=merge", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
