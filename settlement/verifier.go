package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Envislon1/create-joy/contest"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/paystack"
	"github.com/Envislon1/create-joy/storage"
)

// VerifyRequest is one settlement attempt for a payment reference. ClaimedVotes
// is what the buyer asked for; the credited count is always recomputed from the
// gateway-confirmed amount.
type VerifyRequest struct {
	Reference    string
	ContestantID string
	VoterEmail   string
	ClaimedVotes int
}

type VerifyResult struct {
	Reference     string
	ContestantID  string
	CreditedVotes int
	// AlreadyCredited marks the idempotent no-op path: this reference was
	// settled by an earlier call and the recorded result is returned as-is.
	AlreadyCredited bool
}

// Verifier settles payment confirmations into vote credits, exactly once per
// payment reference.
type Verifier struct {
	settings     storage.ContestSettingsStorage
	contestants  storage.ContestantStorage
	transactions storage.VoteTransactionStorage
	gateway      paystack.Verifier
	currency     string
	now          func() time.Time
}

func NewVerifier(
	settings storage.ContestSettingsStorage,
	contestants storage.ContestantStorage,
	transactions storage.VoteTransactionStorage,
	gateway paystack.Verifier,
	currency string,
) *Verifier {
	return &Verifier{
		settings:     settings,
		contestants:  contestants,
		transactions: transactions,
		gateway:      gateway,
		currency:     currency,
		now:          time.Now,
	}
}

// Verify runs the settlement flow: phase gate, contestant check, idempotency
// record, gateway re-verification, server-side vote computation, atomic credit.
// Concurrent calls for the same reference result in exactly one credit; the
// losers return the winner's recorded result.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	settings, err := v.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := v.now()
	if phase := settings.PhaseAt(now); phase != contest.PhaseActive {
		return nil, fmt.Errorf("%w: contest phase is %s", ErrPhaseViolation, phase)
	}
	if !settings.IsActive {
		return nil, fmt.Errorf("%w: contest is deactivated", ErrPhaseViolation)
	}

	contestant, err := v.contestants.Get(ctx, req.ContestantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}
	if !contestant.Approved {
		return nil, fmt.Errorf("%w: contestant is awaiting approval", ErrContestantNotFound)
	}

	// The transaction record is the idempotency key. Create it pending; if it
	// already exists this is either a replay of a settled reference or a retry
	// of a pending one.
	tx := &storage.VoteTransaction{
		Reference:    req.Reference,
		ContestantID: req.ContestantID,
		VoterEmail:   req.VoterEmail,
		Votes:        req.ClaimedVotes,
		Amount:       settings.AmountForVotes(req.ClaimedVotes),
		Status:       storage.TxStatusPending,
		CreatedAt:    now.UTC(),
	}
	if err := v.transactions.Create(ctx, tx); err != nil {
		if !errors.Is(err, storage.ErrTransactionAlreadyExists) {
			return nil, err
		}
		result, retry, rerr := v.resolveExisting(ctx, req.Reference)
		if !retry {
			return result, rerr
		}
	}

	record, err := v.gateway.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			v.reject(ctx, req.Reference)
			return nil, fmt.Errorf("%w: gateway has no record of reference %s", ErrPaymentNotConfirmed, req.Reference)
		}
		// Transient: the transaction stays pending so the caller can retry
		// with the same reference.
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if !record.Succeeded() {
		v.reject(ctx, req.Reference)
		return nil, fmt.Errorf("%w: gateway reports status %q", ErrPaymentNotConfirmed, record.Status)
	}
	if v.currency != "" && record.Currency != v.currency {
		v.reject(ctx, req.Reference)
		return nil, fmt.Errorf("%w: paid in %s, expected %s", ErrPaymentNotConfirmed, record.Currency, v.currency)
	}

	votes := settings.VotesForAmount(record.Amount)
	if votes < 1 {
		v.reject(ctx, req.Reference)
		return nil, fmt.Errorf("%w: confirmed amount %d buys no votes at price %d", ErrAmountBelowMinimum, record.Amount, settings.VotePrice)
	}

	if err := v.transactions.Credit(ctx, req.Reference, req.ContestantID, votes, record.Amount); err != nil {
		if errors.Is(err, storage.ErrTransactionAlreadySettled) {
			// A concurrent call won the credit; hand back its recorded result.
			result, _, rerr := v.resolveExisting(ctx, req.Reference)
			return result, rerr
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrContestantNotFound
		}
		return nil, err
	}

	logging.Log.Infof("SETTLE: credited %d votes to %s (reference %s, amount %d)", votes, req.ContestantID, req.Reference, record.Amount)
	return &VerifyResult{
		Reference:     req.Reference,
		ContestantID:  req.ContestantID,
		CreditedVotes: votes,
	}, nil
}

func (v *Verifier) loadSettings(ctx context.Context) (*contest.Settings, error) {
	rows, err := v.settings.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contest settings: %w", err)
	}
	return contest.ParseSettings(rows)
}

// resolveExisting inspects an already-present transaction record. retry is
// true only when the record is still pending, meaning the settlement may
// proceed (a retried call or the lost half of a concurrent pair).
func (v *Verifier) resolveExisting(ctx context.Context, reference string) (result *VerifyResult, retry bool, err error) {
	existing, err := v.transactions.Get(ctx, reference)
	if err != nil {
		return nil, false, err
	}

	switch existing.Status {
	case storage.TxStatusCredited:
		logging.Log.Infof("SETTLE: reference %s already credited, returning recorded result", reference)
		return &VerifyResult{
			Reference:       existing.Reference,
			ContestantID:    existing.ContestantID,
			CreditedVotes:   existing.Votes,
			AlreadyCredited: true,
		}, false, nil
	case storage.TxStatusRejected:
		return nil, false, fmt.Errorf("%w: reference %s was previously rejected", ErrPaymentNotConfirmed, reference)
	default:
		return nil, true, nil
	}
}

// reject marks a transaction rejected; losing the pending->rejected race to a
// concurrent credit is fine and only logged.
func (v *Verifier) reject(ctx context.Context, reference string) {
	if err := v.transactions.MarkRejected(ctx, reference); err != nil && !errors.Is(err, storage.ErrTransactionAlreadySettled) {
		logging.Log.Warnf("SETTLE: could not reject transaction %s: %v", reference, err)
	}
}
