// Package errors defines the error kinds surfaced by rootcred.
//
// Error Categories:
//
//  1. Configuration: a required configuration value is missing or malformed.
//     Raised at first use of the value and never retried.
//  2. Environment: no wallet is attached to the session, or the RPC endpoint
//     serves a different chain than the one configured.
//  3. Validation: user input was rejected before any network call.
//  4. Chain: the RPC call failed, the wallet refused to sign, or the contract
//     reverted. Rendered to the user as-is, never retried automatically.
//
// A lookup that returns no attestation is not an error; callers receive a nil
// record instead.
//
// The message of every error is meant to be shown to the user verbatim, so
// constructors take complete sentences.
//
// Usage:
//
//	if err != nil {
//	    if errors.Is(err, rcerrors.ErrConfiguration) {
//	        logger.Error("configuration incomplete", zap.Error(err))
//	    }
//	    return rcerrors.Message(err, "Unable to issue credential.")
//	}
package errors
