package settlement

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Envislon1/create-joy/contest"
	"github.com/Envislon1/create-joy/logging"
	"github.com/Envislon1/create-joy/storage"
)

type BoostOutcome string

const (
	// BoostApplied: this invocation won the claim and wrote the bonuses.
	BoostApplied BoostOutcome = "applied"
	// BoostTooEarly: the contest has not ended; safe to retry later.
	BoostTooEarly BoostOutcome = "too_early"
	// BoostAlreadyApplied: a previous (or concurrent) invocation won.
	BoostAlreadyApplied BoostOutcome = "already_applied"
)

type BoostEntryResult struct {
	Name     string
	Success  bool
	NewVotes int
	Err      string
}

type BoostReport struct {
	Outcome      BoostOutcome
	HighestVotes int
	Results      []BoostEntryResult
}

// Administrator applies the one-time post-contest vote boost: each configured
// contestant's tally is set to the leader's final count plus a fixed bonus.
// Irreversible, and guarded so that any number of invocations apply it at
// most once.
type Administrator struct {
	settings    storage.ContestSettingsStorage
	contestants storage.ContestantStorage
	bonuses     map[string]int
	now         func() time.Time
}

// NewAdministrator configures the boost. The bonus map is keyed by contestant
// display name, matching the historical configuration; unresolved names are
// reported per entry rather than failing the batch.
func NewAdministrator(settings storage.ContestSettingsStorage, contestants storage.ContestantStorage, bonuses map[string]int) *Administrator {
	return &Administrator{
		settings:    settings,
		contestants: contestants,
		bonuses:     bonuses,
		now:         time.Now,
	}
}

// Apply runs the boost. The order matters: the claim on the
// vote_boost_applied marker is a single conditional write taken before any
// vote is touched, so two concurrent triggers can never both apply. TooEarly
// and AlreadyApplied are normal outcomes, not errors.
func (a *Administrator) Apply(ctx context.Context) (*BoostReport, error) {
	rows, err := a.settings.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := contest.ParseSettings(rows)
	if err != nil {
		return nil, err
	}

	if settings.EndDate == nil || settings.PhaseAt(a.now()) != contest.PhaseEnded {
		logging.Log.Infof("BOOST: not applicable yet, contest has not ended")
		return &BoostReport{Outcome: BoostTooEarly}, nil
	}

	if settings.BoostApplied {
		return &BoostReport{Outcome: BoostAlreadyApplied}, nil
	}
	if err := a.settings.ClaimVoteBoost(ctx); err != nil {
		if errors.Is(err, storage.ErrBoostAlreadyApplied) {
			logging.Log.Infof("BOOST: claim lost, boost already applied")
			return &BoostReport{Outcome: BoostAlreadyApplied}, nil
		}
		return nil, err
	}

	// From here on the claim is spent: failures below leave the boost
	// partially applied but never re-runnable, which is the required
	// trade-off against double application.
	all, err := a.contestants.GetAll(ctx)
	if err != nil {
		logging.Log.Errorf("BOOST: claim won but contestant scan failed: %v", err)
		return nil, err
	}

	highest := 0
	byName := make(map[string]*storage.Contestant, len(all))
	for _, c := range all {
		if c.Votes > highest {
			highest = c.Votes
		}
		byName[c.Name] = c
	}
	logging.Log.Warnf("BOOST: applying vote boost, baseline is %d votes", highest)

	names := make([]string, 0, len(a.bonuses))
	for name := range a.bonuses {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]BoostEntryResult, 0, len(names))
	for _, name := range names {
		target := highest + a.bonuses[name]

		c, ok := byName[name]
		if !ok {
			logging.Log.Errorf("BOOST: contestant not found: %s", name)
			results = append(results, BoostEntryResult{Name: name, Err: "contestant not found"})
			continue
		}

		if err := a.contestants.SetVotes(ctx, c.ID, target); err != nil {
			logging.Log.Errorf("BOOST: failed to set votes for %s: %v", name, err)
			results = append(results, BoostEntryResult{Name: name, Err: err.Error()})
			continue
		}

		logging.Log.Infof("BOOST: %s: %d -> %d votes", name, c.Votes, target)
		results = append(results, BoostEntryResult{Name: name, Success: true, NewVotes: target})
	}

	return &BoostReport{
		Outcome:      BoostApplied,
		HighestVotes: highest,
		Results:      results,
	}, nil
}
