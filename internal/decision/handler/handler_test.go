package handler

import (
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
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fairlend/internal/authz"
	"fairlend/internal/decision"
	"fairlend/internal/decision/handler/mocks"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
	"fairlend/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/decision-mocks.go -package=mocks Service
type DecisionHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *DecisionHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestDecisionHandlerSuite(t *testing.T) {
	suite.Run(t, new(DecisionHandlerSuite))
}

const (
	testAppID     = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	testSubjectID = "6ba7b812-9dad-11d1-80b4-00c04fd430c8"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, authz.NewChecker(), logger, nil)
	r := chi.NewRouter()
	handler.Register(r)
	return r, mockService
}

func validRecordBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(RecordDecisionRequest{
		ApplicationID:       testAppID,
		SubjectID:           testSubjectID,
		Outcome:             "approved",
		Probability:         0.7312,
		ProtectedAttributes: map[string]string{"gender": "female"},
		ModelVersion:        "credit-risk-v3",
	})
	require.NoError(t, err)
	return body
}

func (s *DecisionHandlerSuite) TestHandleRecord() {
	router, mockService := newTestRouter(s.T())

	mockService.EXPECT().Record(gomock.Any(), gomock.Any(), domain.Actor{ID: "system", Role: domain.RoleSystem}).
		Return(ledger.Entry{Sequence: 1, Type: ledger.EntryTypeDecision, EntryHash: "sha256:abc"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/decisions", bytes.NewReader(validRecordBody(s.T())))
	req = testutil.WithActor(req, "system", "system")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp EntryResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), uint64(1), resp.SequenceNumber)
	assert.Equal(s.T(), "sha256:abc", resp.EntryHash)
}

func (s *DecisionHandlerSuite) TestHandleRecordRequiresAuth() {
	router, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodPost, "/decisions", bytes.NewReader(validRecordBody(s.T())))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *DecisionHandlerSuite) TestHandleRecordForbiddenForUsers() {
	router, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodPost, "/decisions", bytes.NewReader(validRecordBody(s.T())))
	req = testutil.WithActor(req, testSubjectID, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *DecisionHandlerSuite) TestHandleRecordInvalidOutcome() {
	router, _ := newTestRouter(s.T())

	body, err := json.Marshal(RecordDecisionRequest{
		ApplicationID: testAppID,
		SubjectID:     testSubjectID,
		Outcome:       "maybe",
		Probability:   0.5,
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/decisions", bytes.NewReader(body))
	req = testutil.WithActor(req, "system", "system")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "invalid_payload", resp["error"])
}

func resolvedFixture(t *testing.T) decision.Resolved {
	t.Helper()
	appID, err := id.ParseApplicationID(testAppID)
	require.NoError(t, err)
	subjectID, err := id.ParseSubjectID(testSubjectID)
	require.NoError(t, err)
	return decision.Resolved{
		Record: domain.DecisionRecord{
			ApplicationID: appID,
			SubjectID:     subjectID,
			Outcome:       domain.DispositionDenied,
		},
		Disposition: domain.DispositionApproved,
		Overridden:  true,
		Sequence:    1,
	}
}

func (s *DecisionHandlerSuite) TestHandleTrailAsAuditor() {
	router, mockService := newTestRouter(s.T())

	mockService.EXPECT().Current(gomock.Any(), gomock.Any()).Return(resolvedFixture(s.T()), nil)
	mockService.EXPECT().Trail(gomock.Any(), gomock.Any()).Return([]ledger.Entry{
		{Sequence: 1, Type: ledger.EntryTypeDecision, Payload: json.RawMessage(`{}`)},
		{Sequence: 4, Type: ledger.EntryTypeOverride, Payload: json.RawMessage(`{}`)},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/governance/decision-log/"+testAppID, nil)
	req = testutil.WithActor(req, "auditor-1", "auditor")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp TrailResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), testAppID, resp.ApplicationID)
	require.Len(s.T(), resp.Entries, 2)
	assert.Equal(s.T(), "override", resp.Entries[1].EntryType)
}

func (s *DecisionHandlerSuite) TestHandleTrailOwnSubject() {
	router, mockService := newTestRouter(s.T())

	mockService.EXPECT().Current(gomock.Any(), gomock.Any()).Return(resolvedFixture(s.T()), nil)
	mockService.EXPECT().Trail(gomock.Any(), gomock.Any()).Return([]ledger.Entry{
		{Sequence: 1, Type: ledger.EntryTypeDecision, Payload: json.RawMessage(`{}`)},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/governance/decision-log/"+testAppID, nil)
	req = testutil.WithActor(req, testSubjectID, "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *DecisionHandlerSuite) TestHandleTrailForbiddenForOtherSubject() {
	router, mockService := newTestRouter(s.T())

	mockService.EXPECT().Current(gomock.Any(), gomock.Any()).Return(resolvedFixture(s.T()), nil)

	req := httptest.NewRequest(http.MethodGet, "/governance/decision-log/"+testAppID, nil)
	req = testutil.WithActor(req, "6ba7b899-9dad-11d1-80b4-00c04fd430c8", "user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *DecisionHandlerSuite) TestHandleDispositionNotFound() {
	router, mockService := newTestRouter(s.T())

	mockService.EXPECT().Current(gomock.Any(), gomock.Any()).
		Return(decision.Resolved{}, dErrors.New(dErrors.CodeNotFound, "no decision recorded for application"))

	req := httptest.NewRequest(http.MethodGet, "/decisions/"+testAppID, nil)
	req = testutil.WithActor(req, "auditor-1", "auditor")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *DecisionHandlerSuite) TestHandleDispositionBadID() {
	router, _ := newTestRouter(s.T())

	req := httptest.NewRequest(http.MethodGet, "/decisions/not-a-uuid", nil)
	req = testutil.WithActor(req, "auditor-1", "auditor")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}
