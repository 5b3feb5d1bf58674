// Package consent tracks subject consent per data category as an append-only
// history on the governance ledger. Current consent is always derived by
// replaying that history over the configured category defaults.
package consent

// CategoryStatus is the effective consent state for one data category.
type CategoryStatus struct {
	Granted bool `json:"granted"`

	// Explicit is false while the status is still the configured default,
	// true once the subject has toggled the category at least once.
	Explicit bool `json:"explicit"`

	// Sequence of the ledger entry that set this status; zero for defaults.
	Sequence uint64 `json:"sequence_number,omitempty"`

	// Timestamp of that entry in epoch milliseconds; zero for defaults.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Status is the full consent state of one subject.
type Status struct {
	SubjectID  string                    `json:"subject_id"`
	Categories map[string]CategoryStatus `json:"categories"`
}
