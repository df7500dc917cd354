package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Envislon1/create-joy/contest"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/paystack"
	"github.com/Envislon1/create-joy/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway returns a canned transaction record or error, and counts calls.
type fakeGateway struct {
	mu    sync.Mutex
	tx    *paystack.Transaction
	err   error
	calls int
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, reference string) (*paystack.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls += 1
	if f.err != nil {
		return nil, f.err
	}
	tx := *f.tx
	tx.Reference = reference
	return &tx, nil
}

type verifierFixture struct {
	verifier     *Verifier
	settings     *storage.MemoryContestSettingsStorage
	contestants  *storage.MemoryContestantStorage
	transactions *storage.MemoryVoteTransactionStorage
	gateway      *fakeGateway
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newVerifierFixture(t *testing.T) *verifierFixture {
	t.Helper()
	logging.Log = logrus.New()

	settings := storage.NewMemoryContestSettingsStorage()
	seedSettings(t, settings, map[string]string{
		contest.SettingStartDate: "2025-06-01T00:00:00Z",
		contest.SettingEndDate:   "2025-07-01T00:00:00Z",
		contest.SettingVotePrice: "50",
		contest.SettingIsActive:  "true",
	})

	contestants := storage.NewMemoryContestantStorage()
	require.NoError(t, contestants.Create(context.Background(), &storage.Contestant{
		ID:       "c1",
		Name:     "Ada Obi",
		Votes:    7,
		Approved: true,
	}))

	transactions := storage.NewMemoryVoteTransactionStorage(contestants)
	gateway := &fakeGateway{
		tx: &paystack.Transaction{
			Amount:   17500,
			Currency: "NGN",
			Status:   paystack.TxStatusSuccess,
		},
	}

	verifier := NewVerifier(settings, contestants, transactions, gateway, "NGN")
	verifier.now = func() time.Time { return testNow }

	return &verifierFixture{
		verifier:     verifier,
		settings:     settings,
		contestants:  contestants,
		transactions: transactions,
		gateway:      gateway,
	}
}

func seedSettings(t *testing.T, store *storage.MemoryContestSettingsStorage, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, store.Put(context.Background(), &storage.ContestSetting{Key: k, Value: v}))
	}
}

func (f *verifierFixture) contestantVotes(t *testing.T, id string) int {
	t.Helper()
	c, err := f.contestants.Get(context.Background(), id)
	require.NoError(t, err)
	return c.Votes
}

func baseRequest() VerifyRequest {
	return VerifyRequest{
		Reference:    "vote_1750000000000_abc123",
		ContestantID: "c1",
		VoterEmail:   "aunt@example.com",
		ClaimedVotes: 3,
	}
}

func TestVerifyCreditsFloorOfConfirmedAmount(t *testing.T) {
	f := newVerifierFixture(t)

	// 17500 kobo = 175 naira at 50/vote: 3 votes, 25 naira surplus ignored
	result, err := f.verifier.Verify(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, result.CreditedVotes)
	assert.False(t, result.AlreadyCredited)
	assert.Equal(t, 10, f.contestantVotes(t, "c1"))

	tx, err := f.transactions.Get(context.Background(), baseRequest().Reference)
	require.NoError(t, err)
	assert.Equal(t, storage.TxStatusCredited, tx.Status)
	assert.Equal(t, 3, tx.Votes)
	assert.Equal(t, int64(17500), tx.Amount)
}

func TestVerifyIgnoresClaimedVoteCount(t *testing.T) {
	f := newVerifierFixture(t)

	req := baseRequest()
	req.ClaimedVotes = 500 // the gateway record wins

	result, err := f.verifier.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CreditedVotes)
	assert.Equal(t, 10, f.contestantVotes(t, "c1"))
}

func TestVerifyIsIdempotentSequentially(t *testing.T) {
	f := newVerifierFixture(t)

	first, err := f.verifier.Verify(context.Background(), baseRequest())
	require.NoError(t, err)
	require.Equal(t, 3, first.CreditedVotes)

	second, err := f.verifier.Verify(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.True(t, second.AlreadyCredited)
	assert.Equal(t, 3, second.CreditedVotes)

	assert.Equal(t, 10, f.contestantVotes(t, "c1"), "votes credited exactly once")
}

func TestVerifyIsIdempotentConcurrently(t *testing.T) {
	f := newVerifierFixture(t)
	f.gateway.tx.Amount = 50000 // 500 naira -> 10 votes

	const callers = 25
	results := make([]*VerifyResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.verifier.Verify(context.Background(), baseRequest())
		}(i)
	}
	wg.Wait()

	credited := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, 10, results[i].CreditedVotes)
		if !results[i].AlreadyCredited {
			credited++
		}
	}

	assert.Equal(t, 1, credited, "exactly one caller performs the credit")
	assert.Equal(t, 7+10, f.contestantVotes(t, "c1"), "+10, not +10 per caller")

	txs, err := f.transactions.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, storage.TxStatusCredited, txs[0].Status)
}

func TestVerifyPhaseGating(t *testing.T) {
	t.Run("before contest start", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.verifier.now = func() time.Time { return time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC) }

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPhaseViolation)
		assert.Equal(t, 7, f.contestantVotes(t, "c1"))
		assert.Equal(t, 0, f.gateway.calls, "gateway is never consulted outside the window")
	})

	t.Run("one second before end succeeds", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.verifier.now = func() time.Time { return time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC) }

		result, err := f.verifier.Verify(context.Background(), baseRequest())
		require.NoError(t, err)
		assert.Equal(t, 3, result.CreditedVotes)
	})

	t.Run("one second after end fails", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.verifier.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC) }

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPhaseViolation)
		assert.Equal(t, 7, f.contestantVotes(t, "c1"))

		_, err = f.transactions.Get(context.Background(), baseRequest().Reference)
		assert.ErrorIs(t, err, storage.ErrNotFound, "no transaction record is created")
	})

	t.Run("deactivated contest", func(t *testing.T) {
		f := newVerifierFixture(t)
		seedSettings(t, f.settings, map[string]string{contest.SettingIsActive: "false"})

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPhaseViolation)
	})
}

func TestVerifyContestantChecks(t *testing.T) {
	t.Run("unknown contestant", func(t *testing.T) {
		f := newVerifierFixture(t)
		req := baseRequest()
		req.ContestantID = "ghost"

		_, err := f.verifier.Verify(context.Background(), req)
		assert.ErrorIs(t, err, ErrContestantNotFound)
	})

	t.Run("unapproved contestant", func(t *testing.T) {
		f := newVerifierFixture(t)
		require.NoError(t, f.contestants.Create(context.Background(), &storage.Contestant{
			ID:   "c2",
			Name: "Pending Child",
		}))
		req := baseRequest()
		req.ContestantID = "c2"

		_, err := f.verifier.Verify(context.Background(), req)
		assert.ErrorIs(t, err, ErrContestantNotFound)
	})
}

func TestVerifyPaymentRejections(t *testing.T) {
	t.Run("gateway reports failed payment", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.gateway.tx.Status = "failed"

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPaymentNotConfirmed)

		tx, gerr := f.transactions.Get(context.Background(), baseRequest().Reference)
		require.NoError(t, gerr)
		assert.Equal(t, storage.TxStatusRejected, tx.Status)
		assert.Equal(t, 7, f.contestantVotes(t, "c1"))
	})

	t.Run("gateway has no record", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.gateway.err = paystack.ErrTransactionNotFound

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.gateway.tx.Currency = "USD"

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
	})

	t.Run("amount below one vote", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.gateway.tx.Amount = 4900 // 49 naira at 50/vote

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrAmountBelowMinimum)

		tx, gerr := f.transactions.Get(context.Background(), baseRequest().Reference)
		require.NoError(t, gerr)
		assert.Equal(t, storage.TxStatusRejected, tx.Status)
	})

	t.Run("rejected reference stays rejected", func(t *testing.T) {
		f := newVerifierFixture(t)
		f.gateway.tx.Status = "failed"

		_, err := f.verifier.Verify(context.Background(), baseRequest())
		require.ErrorIs(t, err, ErrPaymentNotConfirmed)

		// The gateway later claims success; the record is immutable.
		f.gateway.tx.Status = paystack.TxStatusSuccess
		_, err = f.verifier.Verify(context.Background(), baseRequest())
		assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
		assert.Equal(t, 7, f.contestantVotes(t, "c1"))
	})
}

func TestVerifyTransientGatewayFailureIsRetrySafe(t *testing.T) {
	f := newVerifierFixture(t)
	f.gateway.err = errors.New("dial tcp: connection refused")

	_, err := f.verifier.Verify(context.Background(), baseRequest())
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	tx, gerr := f.transactions.Get(context.Background(), baseRequest().Reference)
	require.NoError(t, gerr)
	assert.Equal(t, storage.TxStatusPending, tx.Status, "transaction stays pending for retry")
	assert.Equal(t, 7, f.contestantVotes(t, "c1"))

	// Retry with the same reference after the gateway recovers.
	f.gateway.mu.Lock()
	f.gateway.err = nil
	f.gateway.mu.Unlock()

	result, err := f.verifier.Verify(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, result.CreditedVotes)
	assert.False(t, result.AlreadyCredited)
	assert.Equal(t, 10, f.contestantVotes(t, "c1"))
}
