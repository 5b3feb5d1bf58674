package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairlend/internal/authz"
	"fairlend/internal/ledger"
	"fairlend/pkg/testutil"
)

// fixture runs the governance surface against a real in-memory ledger, since
// the interesting behavior (latching, export equivalence) lives in the
// interplay between endpoints.
type fixture struct {
	router chi.Router
	ledger *ledger.Service
	store  *ledger.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := ledger.NewMemoryStore()
	ledgerSvc := ledger.NewService(store, logger, nil, nil, 3)

	r := chi.NewRouter()
	New(ledgerSvc, authz.NewChecker(), logger).Register(r)
	return &fixture{router: r, ledger: ledgerSvc, store: store}
}

func (f *fixture) appendN(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.ledger.Append(context.Background(), ledger.EntryTypeDecision, json.RawMessage(`{"n":`+string(rune('0'+i))+`}`), "system")
		require.NoError(t, err)
	}
}

func (f *fixture) get(t *testing.T, path, actorID, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if actorID != "" {
		req = testutil.WithActor(req, actorID, role)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHandleReadRange(t *testing.T) {
	f := newFixture(t)
	f.appendN(t, 5)

	w := f.get(t, "/governance/ledger?start=2&end=4", "auditor-1", "auditor")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Entries []ledger.Entry `json:"entries"`
		Count   int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, uint64(2), resp.Entries[0].Sequence)
}

func TestHandleReadRangeForbiddenForUsers(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/governance/ledger", "6ba7b812-9dad-11d1-80b4-00c04fd430c8", "user")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleReadRangeBadBounds(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/governance/ledger?start=5&end=2", "auditor-1", "auditor")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.get(t, "/governance/ledger?start=abc", "auditor-1", "auditor")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyThenAcknowledgeFlow(t *testing.T) {
	f := newFixture(t)
	f.appendN(t, 3)

	w := f.get(t, "/governance/verify", "auditor-1", "auditor")
	assert.Equal(t, http.StatusOK, w.Code)
	var verify map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verify))
	assert.Equal(t, true, verify["valid"])

	// Acknowledging an intact ledger is a conflict.
	req := httptest.NewRequest(http.MethodPost, "/governance/verify/acknowledge", nil)
	req = testutil.WithActor(req, "admin-1", "admin")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Tamper, verify, latch.
	f.store.Tamper(2, json.RawMessage(`{"n":"evil"}`))
	w = f.get(t, "/governance/verify", "auditor-1", "auditor")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verify))
	assert.Equal(t, false, verify["valid"])
	assert.Equal(t, float64(2), verify["broken_at"])
	assert.True(t, f.ledger.Compromised())

	// Auditors may not acknowledge.
	req = httptest.NewRequest(http.MethodPost, "/governance/verify/acknowledge", nil)
	req = testutil.WithActor(req, "auditor-1", "auditor")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins may.
	req = httptest.NewRequest(http.MethodPost, "/governance/verify/acknowledge", nil)
	req = testutil.WithActor(req, "admin-1", "admin")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.ledger.Compromised())
}

func TestHandleExport(t *testing.T) {
	f := newFixture(t)
	f.appendN(t, 4)

	w := f.get(t, "/governance/export", "admin-1", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(w.Body.Bytes()))
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			lines++
		}
	}
	assert.Equal(t, 4, lines)

	// The full export verifies standalone.
	result, err := ledger.VerifyExported(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestHandleExportRedactsForAuditors(t *testing.T) {
	f := newFixture(t)
	decisionPayload := `{"application_id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","outcome":"denied","protected_attributes":{"gender":"female"}}`
	_, err := f.ledger.Append(context.Background(), ledger.EntryTypeDecision, json.RawMessage(decisionPayload), "system")
	require.NoError(t, err)
	_, err = f.ledger.Append(context.Background(), ledger.EntryTypeOverride, json.RawMessage(`{"reason":"manual review"}`), "admin-1")
	require.NoError(t, err)

	w := f.get(t, "/governance/export", "auditor-1", "auditor")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

	lines := bytes.Split(bytes.TrimSpace(w.Body.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first ledger.Entry
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.NotContains(t, string(first.Payload), "protected_attributes")
	assert.Contains(t, string(first.Payload), "application_id")

	// Non-decision payloads pass through untouched.
	var second ledger.Entry
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.JSONEq(t, `{"reason":"manual review"}`, string(second.Payload))
}

func TestHandleExportForbiddenForUsers(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/governance/export", "6ba7b812-9dad-11d1-80b4-00c04fd430c8", "user")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGovernanceRequiresAuth(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/governance/ledger", "/governance/verify", "/governance/export"} {
		w := f.get(t, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
