package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fairlend/internal/domain"
	"fairlend/internal/fairness"
	dErrors "fairlend/pkg/domain-errors"
	"fairlend/pkg/platform/httputil"
	"fairlend/pkg/requestcontext"
)

// Service defines the interface for fairness operations.
type Service interface {
	Report(ctx context.Context, window fairness.Window, refresh bool) (fairness.Report, error)
}

// CapabilityChecker gates access to fairness reports.
type CapabilityChecker interface {
	Allowed(role domain.Role, capability domain.Capability) bool
}

// Handler wires the fairness report endpoint to the fairness service.
type Handler struct {
	service Service
	authz   CapabilityChecker
	logger  *slog.Logger
}

// New constructs a fairness handler with its dependencies.
func New(service Service, authz CapabilityChecker, logger *slog.Logger) *Handler {
	return &Handler{service: service, authz: authz, logger: logger}
}

// Register mounts the fairness endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/governance/fairness-report", h.HandleReport)
}

func parseBound(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be an epoch milliseconds timestamp")
	}
	return v, nil
}

// parseWindow reads the optional from/to query bounds, epoch milliseconds.
// Omitted bounds are open.
func parseWindow(r *http.Request) (fairness.Window, error) {
	from, err := parseBound(r, "from")
	if err != nil {
		return fairness.Window{}, err
	}
	to, err := parseBound(r, "to")
	if err != nil {
		return fairness.Window{}, err
	}
	if to != 0 && from > to {
		return fairness.Window{}, dErrors.New(dErrors.CodeBadRequest, "from must not exceed to")
	}
	return fairness.Window{From: from, To: to}, nil
}

// HandleReport handles GET /governance/fairness-report requests. Optional
// from/to bound the report window; pass ?refresh=true to bypass the cache.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	role := domain.Role(requestcontext.ActorRole(ctx))
	if !h.authz.Allowed(role, domain.CapabilityViewFairnessMetrics) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "actor lacks fairness metrics capability"))
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	report, err := h.service.Report(ctx, window, refresh)
	if err != nil {
		h.logger.ErrorContext(ctx, "fairness report failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
