package ledger

import (
	"fmt"

	"fairlend/pkg/platform/sentinel"
)

var (
	// ErrConcurrentAppend means another append won the race for the tail the
	// caller observed. Transient: re-read the tail and retry. Service.Append
	// does this automatically within its retry budget.
	ErrConcurrentAppend = fmt.Errorf("concurrent append: %w", sentinel.ErrConflict)

	// ErrLedgerCompromised means chain verification found a broken link.
	// Fatal, not retryable: every append fails identically until an operator
	// acknowledges and reconciles out of band.
	ErrLedgerCompromised = fmt.Errorf("ledger compromised: %w", sentinel.ErrInvalidState)
)
