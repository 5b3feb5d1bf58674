// Package handler exposes the ledger-wide governance surface: raw entry
// reads, chain verification, compromise acknowledgement, and audit export.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	dErrors "fairlend/pkg/domain-errors"
	"fairlend/pkg/platform/httputil"
	"fairlend/pkg/requestcontext"
)

// Service defines the interface for ledger governance operations.
type Service interface {
	ReadRange(ctx context.Context, start, end uint64) ([]ledger.Entry, error)
	VerifyChain(ctx context.Context) (ledger.VerificationResult, error)
	Compromised() bool
	AcknowledgeCompromise(ctx context.Context)
	Export(ctx context.Context, w io.Writer) (int, error)
}

// CapabilityChecker gates access to governance operations.
type CapabilityChecker interface {
	Allowed(role domain.Role, capability domain.Capability) bool
}

// Handler wires governance endpoints to the ledger service.
type Handler struct {
	service Service
	authz   CapabilityChecker
	logger  *slog.Logger
}

// New constructs a governance handler with its dependencies.
func New(service Service, authz CapabilityChecker, logger *slog.Logger) *Handler {
	return &Handler{service: service, authz: authz, logger: logger}
}

// Register mounts governance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/governance/ledger", h.HandleReadRange)
	r.Get("/governance/verify", h.HandleVerify)
	r.Post("/governance/verify/acknowledge", h.HandleAcknowledge)
	r.Get("/governance/export", h.HandleExport)
}

func (h *Handler) requireCapability(w http.ResponseWriter, r *http.Request, capability domain.Capability) bool {
	ctx := r.Context()
	if requestcontext.ActorID(ctx) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	role := domain.Role(requestcontext.ActorRole(ctx))
	if !h.authz.Allowed(role, capability) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "actor lacks required capability"))
		return false
	}
	return true
}

func parseSequence(r *http.Request, key string) (uint64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be a sequence number")
	}
	return v, nil
}

// HandleReadRange handles GET /governance/ledger?start=N&end=M requests.
// Omitted bounds default to the whole chain.
func (h *Handler) HandleReadRange(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, domain.CapabilityViewAllLogs) {
		return
	}

	start, err := parseSequence(r, "start")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := parseSequence(r, "end")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if end != 0 && start > end {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "start must not exceed end"))
		return
	}

	entries, err := h.service.ReadRange(r.Context(), start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleVerify handles GET /governance/verify requests. Verification is a
// read with a side effect: a broken chain latches the store against writes.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, domain.CapabilityViewAllLogs) {
		return
	}

	result, err := h.service.VerifyChain(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := map[string]any{"valid": result.Valid}
	if !result.Valid {
		resp["broken_at"] = result.BrokenAt
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAcknowledge handles POST /governance/verify/acknowledge requests.
// Admin only: clearing the compromise latch asserts that reconciliation
// happened outside the system.
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.ActorID(ctx) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if domain.Role(requestcontext.ActorRole(ctx)) != domain.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only admins may acknowledge a compromise"))
		return
	}
	if !h.service.Compromised() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "ledger is not latched"))
		return
	}

	h.service.AcknowledgeCompromise(ctx)
	h.logger.WarnContext(ctx, "ledger compromise acknowledged",
		"actor_id", requestcontext.ActorID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

// HandleExport handles GET /governance/export requests, streaming the whole
// chain as JSONL. Full export (admins) is the canonical encoding and
// re-verifies standalone. Limited export (auditors) redacts protected
// demographic attributes from decision payloads; redacted lines no longer
// match their entry hash, so chain verification belongs to the full export.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.ActorID(ctx) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	role := domain.Role(requestcontext.ActorRole(ctx))
	full := h.authz.Allowed(role, domain.CapabilityExportLogsFull)
	if !full && !h.authz.Allowed(role, domain.CapabilityExportLogsLimited) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "actor lacks export capability"))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-export.jsonl"`)

	var count int
	var err error
	if full {
		count, err = h.service.Export(ctx, w)
	} else {
		count, err = h.exportRedacted(ctx, w)
	}
	if err != nil {
		// Headers may already be gone; log instead of writing a JSON error
		// into a half-streamed body.
		h.logger.ErrorContext(ctx, "ledger export failed",
			"request_id", requestcontext.RequestID(ctx),
			"entries_written", count,
			"error", err,
		)
		return
	}
}

// exportRedacted streams the chain with protected attributes stripped from
// decision payloads.
func (h *Handler) exportRedacted(ctx context.Context, w io.Writer) (int, error) {
	entries, err := h.service.ReadRange(ctx, 1, 0)
	if err != nil {
		return 0, err
	}

	written := 0
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if entry.Type == ledger.EntryTypeDecision {
			var payload map[string]any
			if err := json.Unmarshal(entry.Payload, &payload); err != nil {
				return written, fmt.Errorf("decode decision payload at sequence %d: %w", entry.Sequence, err)
			}
			delete(payload, "protected_attributes")
			redacted, err := json.Marshal(payload)
			if err != nil {
				return written, err
			}
			entry.Payload = redacted
		}
		if err := enc.Encode(entry); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
