package domain

// errors.go — typed failure taxonomy for the trading core.
//
// Transport-level and precondition failures are errors; a well-formed
// exchange rejection is not an error but a Rejected submit result.

import "fmt"

// AuthError is a credential derivation failure or a credential rejection
// on a later authenticated request (401/403 or an "auth" error message).
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("clob auth failed: status %d: %s", e.Status, e.Body)
}

// InvalidOrderError is a constraint violation detected before signing.
// It aborts only the one candidate trade.
type InvalidOrderError struct {
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return "invalid order: " + e.Reason
}

// SubmissionError is a network or encoding failure where the request is
// known not to have reached the exchange. Distinguishable from a business
// rejection and from an ambiguous in-flight failure.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed (%s): %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
