package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	strutil "fairlend/pkg/platform/strings"
)

// Governance holds the policy knobs that auditors tune without code changes:
// which protected attributes the fairness engine partitions on, the metric
// thresholds, and the consent data categories subjects can toggle.
type Governance struct {
	Fairness FairnessConfig `yaml:"fairness"`
	Consent  ConsentConfig  `yaml:"consent"`
}

type FairnessConfig struct {
	ProtectedAttributes []string            `yaml:"protected_attributes"`
	Thresholds          FairnessThresholds  `yaml:"thresholds"`
}

type FairnessThresholds struct {
	DemographicParityDifference float64 `yaml:"demographic_parity_difference"`
	DisparateImpactRatio        float64 `yaml:"disparate_impact_ratio"`
	EqualOpportunityDifference  float64 `yaml:"equal_opportunity_difference"`
}

type ConsentConfig struct {
	DataCategories map[string]DataCategory `yaml:"data_categories"`
}

type DataCategory struct {
	Description string   `yaml:"description"`
	Default     bool     `yaml:"default"`
	RequiredFor []string `yaml:"required_for"`
}

// DefaultGovernance mirrors the shipped governance.yaml so the server can
// start without a config file in development.
func DefaultGovernance() Governance {
	return Governance{
		Fairness: FairnessConfig{
			ProtectedAttributes: []string{"gender", "region", "age_group"},
			Thresholds: FairnessThresholds{
				DemographicParityDifference: 0.1,
				DisparateImpactRatio:        0.8,
				EqualOpportunityDifference:  0.1,
			},
		},
		Consent: ConsentConfig{
			DataCategories: map[string]DataCategory{
				"financial_data": {
					Description: "Income, obligations, and credit history",
					Default:     true,
					RequiredFor: []string{"loan_decision"},
				},
				"demographic_data": {
					Description: "Protected demographic attributes used for fairness auditing",
					Default:     true,
					RequiredFor: []string{"fairness_monitoring"},
				},
				"marketing": {
					Description: "Product and offer communications",
					Default:     false,
				},
			},
		},
	}
}

// LoadGovernance reads the governance YAML file. A missing file falls back to
// defaults; a malformed file is an error because silently running with wrong
// thresholds defeats the point of a governance config.
func LoadGovernance(path string) (Governance, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGovernance(), nil
		}
		return Governance{}, fmt.Errorf("read governance config: %w", err)
	}

	cfg := DefaultGovernance()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Governance{}, fmt.Errorf("parse governance config: %w", err)
	}
	cfg.Fairness.ProtectedAttributes = strutil.DedupeAndTrimLower(cfg.Fairness.ProtectedAttributes)
	if len(cfg.Fairness.ProtectedAttributes) == 0 {
		return Governance{}, fmt.Errorf("governance config: at least one protected attribute is required")
	}
	return cfg, nil
}
