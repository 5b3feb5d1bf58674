package domain

// Role is the coarse actor classification supplied by the authentication
// layer. Capability grants per role live in internal/authz; domain logic only
// ever asks an injected gate "can this actor do X".
type Role string

const (
	RoleSystem  Role = "system"
	RoleUser    Role = "user"
	RoleAuditor Role = "auditor"
	RoleAdmin   Role = "admin"
)

// Actor is the already-authenticated identity attached to each operation.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is the identity used for machine-initiated appends, e.g. the
// prediction service recording a decision.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Capability names the fine-grained permissions checked by the governance
// surface.
type Capability string

const (
	CapabilityOverrideDecision    Capability = "override_decision_approve"
	CapabilityViewFairnessMetrics Capability = "view_fairness_metrics"
	CapabilityViewAllLogs         Capability = "view_all_logs"
	CapabilityViewOwnLogs         Capability = "view_own_logs"
	CapabilityExportLogsFull      Capability = "export_logs_full"
	CapabilityExportLogsLimited   Capability = "export_logs_limited"
	CapabilityManageConsent       Capability = "manage_consent"
)
