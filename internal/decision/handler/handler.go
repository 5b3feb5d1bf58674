package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fairlend/internal/decision"
	"fairlend/internal/decision/metrics"
	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
	"fairlend/pkg/platform/httputil"
	"fairlend/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Record(ctx context.Context, record domain.DecisionRecord, author domain.Actor) (ledger.Entry, error)
	Current(ctx context.Context, applicationID id.ApplicationID) (decision.Resolved, error)
	Trail(ctx context.Context, applicationID id.ApplicationID) ([]ledger.Entry, error)
}

// CapabilityChecker gates access to decision trails.
type CapabilityChecker interface {
	Allowed(role domain.Role, capability domain.Capability) bool
}

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	authz   CapabilityChecker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a decision handler with its dependencies.
func New(service Service, authz CapabilityChecker, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		authz:   authz,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decisions", h.HandleRecord)
	r.Get("/decisions/{application_id}", h.HandleDisposition)
	r.Get("/governance/decision-log/{application_id}", h.HandleTrail)
}

func actorFrom(ctx context.Context) (domain.Actor, bool) {
	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: actorID, Role: domain.Role(requestcontext.ActorRole(ctx))}, true
}

// HandleRecord handles POST /decisions requests from the prediction pipeline.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if actor.Role != domain.RoleSystem && actor.Role != domain.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only the decision pipeline may record decisions"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordDecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := req.ToDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.Record(ctx, record, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "decision record failed",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromEntry(entry))
}

// HandleDisposition handles GET /decisions/{application_id} requests.
func (h *Handler) HandleDisposition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "application_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "application_id must be a UUID"))
		return
	}

	resolved, err := h.service.Current(ctx, applicationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.mayViewSubject(actor, resolved.Record.SubjectID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not permitted to view this application"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResolved(applicationID.String(), resolved))
}

// HandleTrail handles GET /governance/decision-log/{application_id} requests.
func (h *Handler) HandleTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "application_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "application_id must be a UUID"))
		return
	}

	resolved, err := h.service.Current(ctx, applicationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.mayViewSubject(actor, resolved.Record.SubjectID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not permitted to view this application"))
		return
	}

	trail, err := h.service.Trail(ctx, applicationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "decision trail read failed",
			"request_id", requestID,
			"application_id", applicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TrailResponse{
		ApplicationID: applicationID.String(),
		Entries:       FromEntries(trail),
	})
}

// mayViewSubject allows holders of view_all_logs to see any application, and
// holders of view_own_logs to see applications whose subject is themselves.
func (h *Handler) mayViewSubject(actor domain.Actor, subject id.SubjectID) bool {
	if h.authz.Allowed(actor.Role, domain.CapabilityViewAllLogs) {
		return true
	}
	return h.authz.Allowed(actor.Role, domain.CapabilityViewOwnLogs) && actor.ID == subject.String()
}
