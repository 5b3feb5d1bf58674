package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fairlend/internal/domain"
)

func TestCheckerGrants(t *testing.T) {
	checker := NewChecker()

	tests := []struct {
		name       string
		role       domain.Role
		capability domain.Capability
		want       bool
	}{
		{"admin can override", domain.RoleAdmin, domain.CapabilityOverrideDecision, true},
		{"auditor cannot override", domain.RoleAuditor, domain.CapabilityOverrideDecision, false},
		{"user cannot override", domain.RoleUser, domain.CapabilityOverrideDecision, false},
		{"auditor can view fairness metrics", domain.RoleAuditor, domain.CapabilityViewFairnessMetrics, true},
		{"user cannot view fairness metrics", domain.RoleUser, domain.CapabilityViewFairnessMetrics, false},
		{"auditor export is limited", domain.RoleAuditor, domain.CapabilityExportLogsLimited, true},
		{"auditor cannot export full", domain.RoleAuditor, domain.CapabilityExportLogsFull, false},
		{"admin can export full", domain.RoleAdmin, domain.CapabilityExportLogsFull, true},
		{"user manages own consent", domain.RoleUser, domain.CapabilityManageConsent, true},
		{"auditor cannot manage consent", domain.RoleAuditor, domain.CapabilityManageConsent, false},
		{"system holds nothing", domain.RoleSystem, domain.CapabilityViewOwnLogs, false},
		{"unknown role holds nothing", domain.Role("ghost"), domain.CapabilityViewOwnLogs, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.Allowed(tt.role, tt.capability))
		})
	}
}
