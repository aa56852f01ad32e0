package errors

import "strings"

// Error pattern constants for chain failures reported as plain strings by the
// RPC node or the wallet.
const (
	ErrPatternReverted          = "execution reverted"
	ErrPatternUserRejected      = "user rejected"
	ErrPatternDenied            = "user denied"
	ErrPatternInsufficientFunds = "insufficient funds"
	ErrPatternNonceTooLow       = "nonce too low"
	ErrPatternContextCanceled   = "context canceled"
	ErrPatternContextDeadline   = "context deadline exceeded"
	ErrPatternConnection        = "connection"
	ErrPatternCircuitOpen       = "circuit breaker is open"
)

// Classify categorizes errors for metric labels to keep cardinality low.
func Classify(err error) string {
	if err == nil {
		return "none"
	}
	if kind := KindOf(err); kind != "" && kind != KindChain {
		return string(kind)
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, ErrPatternContextDeadline):
		return "timeout"
	case strings.Contains(errStr, ErrPatternContextCanceled):
		return "cancelled"
	case strings.Contains(errStr, ErrPatternUserRejected), strings.Contains(errStr, ErrPatternDenied):
		return "rejected"
	case strings.Contains(errStr, ErrPatternReverted):
		return "reverted"
	case strings.Contains(errStr, ErrPatternInsufficientFunds):
		return "insufficient_funds"
	case strings.Contains(errStr, ErrPatternNonceTooLow):
		return "nonce"
	case strings.Contains(errStr, ErrPatternCircuitOpen):
		return "circuit_open"
	case strings.Contains(errStr, ErrPatternConnection):
		return "connection_error"
	default:
		return "unknown"
	}
}
