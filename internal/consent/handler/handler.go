package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fairlend/internal/consent"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
	"fairlend/pkg/platform/httputil"
	"fairlend/pkg/requestcontext"
)

// Service defines the interface for consent operations.
type Service interface {
	Change(ctx context.Context, subjectID id.SubjectID, category string, granted bool, actor domain.Actor) (ledger.Entry, error)
	Current(ctx context.Context, subjectID id.SubjectID) (consent.Status, error)
	History(ctx context.Context, subjectID id.SubjectID) ([]ledger.Entry, error)
}

// Handler wires consent endpoints to the consent service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a consent handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts consent endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consent", h.HandleChange)
	r.Get("/consent/{subject_id}", h.HandleCurrent)
	r.Get("/consent/{subject_id}/history", h.HandleHistory)
}

// ChangeConsentRequest is the wire shape for toggling consent.
type ChangeConsentRequest struct {
	SubjectID    string `json:"subject_id"`
	DataCategory string `json:"data_category"`
	Granted      bool   `json:"granted"`
}

func actorFrom(ctx context.Context) (domain.Actor, bool) {
	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: actorID, Role: domain.Role(requestcontext.ActorRole(ctx))}, true
}

// HandleChange handles POST /consent requests.
func (h *Handler) HandleChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangeConsentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject_id must be a UUID"))
		return
	}

	entry, err := h.service.Change(ctx, subjectID, req.DataCategory, req.Granted, actor)
	if err != nil {
		h.logger.WarnContext(ctx, "consent change rejected",
			"request_id", requestID,
			"subject_id", req.SubjectID,
			"data_category", req.DataCategory,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"sequence_number": entry.Sequence,
		"entry_hash":      entry.EntryHash,
	})
}

// subjectForRead parses the subject and enforces that non-admin actors only
// read their own consent.
func (h *Handler) subjectForRead(w http.ResponseWriter, r *http.Request) (id.SubjectID, domain.Actor, bool) {
	ctx := r.Context()

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.SubjectID{}, domain.Actor{}, false
	}

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subject_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "subject_id must be a UUID"))
		return id.SubjectID{}, domain.Actor{}, false
	}

	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleAuditor && actor.ID != subjectID.String() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not permitted to view this subject"))
		return id.SubjectID{}, domain.Actor{}, false
	}
	return subjectID, actor, true
}

// HandleCurrent handles GET /consent/{subject_id} requests.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	subjectID, _, ok := h.subjectForRead(w, r)
	if !ok {
		return
	}

	status, err := h.service.Current(r.Context(), subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleHistory handles GET /consent/{subject_id}/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	subjectID, _, ok := h.subjectForRead(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"subject_id": subjectID.String(),
		"entries":    history,
	})
}
