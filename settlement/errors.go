package settlement

import "errors"

// Validation failures. The caller gets a definitive answer; retrying with the
// same reference will not change the outcome.
var ErrPhaseViolation = errors.New("contest is not accepting votes")
var ErrContestantNotFound = errors.New("contestant not found or not approved")
var ErrPaymentNotConfirmed = errors.New("payment not confirmed by gateway")
var ErrAmountBelowMinimum = errors.New("confirmed amount is below the price of one vote")

// ErrGatewayUnavailable is transient: the transaction is left pending and a
// retry with the same reference is safe.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")
