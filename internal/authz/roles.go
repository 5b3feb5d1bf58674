// Package authz maps roles to the capabilities the governance surface checks.
// The grants are static; anything tenant-configurable would live in config,
// but capability semantics are part of the compliance model and should not
// vary per deployment.
package authz

import "fairlend/internal/domain"

var grants = map[domain.Role]map[domain.Capability]bool{
	domain.RoleUser: {
		domain.CapabilityViewOwnLogs:   true,
		domain.CapabilityManageConsent: true,
	},
	// Auditors export with protected attributes redacted; only admins take
	// the full, verifiable snapshot out of the system.
	domain.RoleAuditor: {
		domain.CapabilityViewOwnLogs:         true,
		domain.CapabilityViewAllLogs:         true,
		domain.CapabilityViewFairnessMetrics: true,
		domain.CapabilityExportLogsLimited:   true,
	},
	domain.RoleAdmin: {
		domain.CapabilityViewOwnLogs:         true,
		domain.CapabilityViewAllLogs:         true,
		domain.CapabilityViewFairnessMetrics: true,
		domain.CapabilityExportLogsFull:      true,
		domain.CapabilityManageConsent:       true,
		domain.CapabilityOverrideDecision:    true,
	},
	// The system role records machine decisions; it holds no human-facing
	// governance capabilities.
	domain.RoleSystem: {},
}

// Checker answers capability questions for roles. It satisfies the ports the
// record services declare, so tests can swap in a stub.
type Checker struct{}

func NewChecker() Checker { return Checker{} }

// Allowed reports whether the role holds the capability. Unknown roles hold
// nothing.
func (Checker) Allowed(role domain.Role, capability domain.Capability) bool {
	return grants[role][capability]
}

// Capabilities lists the capabilities granted to a role, for diagnostics.
func (Checker) Capabilities(role domain.Role) []domain.Capability {
	set := grants[role]
	out := make([]domain.Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
