package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	id "fairlend/pkg/domain"
	dErrors "fairlend/pkg/domain-errors"
	"fairlend/pkg/platform/httputil"
	"fairlend/pkg/requestcontext"
)

// Service defines the interface for override operations.
type Service interface {
	Request(ctx context.Context, applicationID id.ApplicationID, newDisposition domain.Disposition, reason string, actor domain.Actor) (ledger.Entry, error)
}

// Handler wires the override endpoint to the override service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an override handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the override endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/governance/override", h.HandleOverride)
}

// OverrideRequest is the wire shape for requesting a disposition override.
type OverrideRequest struct {
	ApplicationID  string `json:"application_id"`
	NewDisposition string `json:"new_disposition"`
	Reason         string `json:"reason"`
}

// HandleOverride handles POST /governance/override requests.
func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	actor := domain.Actor{ID: actorID, Role: domain.Role(requestcontext.ActorRole(ctx))}

	req, ok := httputil.DecodeAndPrepare[OverrideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	applicationID, err := id.ParseApplicationID(req.ApplicationID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "application_id must be a UUID"))
		return
	}
	newDisposition, err := domain.ParseDisposition(req.NewDisposition)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidPayload, "new_disposition must be approved or denied"))
		return
	}

	entry, err := h.service.Request(ctx, applicationID, newDisposition, req.Reason, actor)
	if err != nil {
		h.logger.WarnContext(ctx, "override request rejected",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"actor_id", actorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"sequence_number": entry.Sequence,
		"entry_hash":      entry.EntryHash,
		"new_disposition": req.NewDisposition,
	})
}
