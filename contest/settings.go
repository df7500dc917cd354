package contest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Envislon1/create-joy/storage"
)

// Settings row keys as stored in the contest settings table.
const (
	SettingContestName  = "contest_name"
	SettingStartDate    = "contest_start_date"
	SettingEndDate      = "contest_end_date"
	SettingVotePrice    = "vote_price"
	SettingIsActive     = "is_active"
	SettingBoostApplied = storage.VoteBoostAppliedKey
)

// SubunitsPerUnit converts between the gateway's amounts (smallest currency
// subunit, e.g. kobo) and the vote price (whole currency units, e.g. naira).
const SubunitsPerUnit = 100

// Settings is the typed view over the key/value settings rows.
type Settings struct {
	ContestName  string
	StartDate    time.Time
	EndDate      *time.Time
	VotePrice    int
	IsActive     bool
	BoostApplied bool
}

// ParseSettings builds typed settings from the raw rows. Dates are RFC3339;
// booleans are stored as strings ("true"/"false") and an absent or empty end
// date means the contest has no scheduled end.
func ParseSettings(rows []*storage.ContestSetting) (*Settings, error) {
	raw := make(map[string]string, len(rows))
	for _, row := range rows {
		raw[row.Key] = row.Value
	}

	s := &Settings{
		ContestName: raw[SettingContestName],
		IsActive:    true,
	}

	startRaw, ok := raw[SettingStartDate]
	if !ok || startRaw == "" {
		return nil, fmt.Errorf("contest settings: %s is missing", SettingStartDate)
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return nil, fmt.Errorf("contest settings: invalid %s: %w", SettingStartDate, err)
	}
	s.StartDate = start

	if endRaw, ok := raw[SettingEndDate]; ok && endRaw != "" {
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return nil, fmt.Errorf("contest settings: invalid %s: %w", SettingEndDate, err)
		}
		s.EndDate = &end
	}

	priceRaw, ok := raw[SettingVotePrice]
	if !ok || priceRaw == "" {
		return nil, fmt.Errorf("contest settings: %s is missing", SettingVotePrice)
	}
	price, err := strconv.Atoi(priceRaw)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("contest settings: %s must be a positive integer, got %q", SettingVotePrice, priceRaw)
	}
	s.VotePrice = price

	if activeRaw, ok := raw[SettingIsActive]; ok && activeRaw != "" {
		active, err := strconv.ParseBool(activeRaw)
		if err != nil {
			return nil, fmt.Errorf("contest settings: invalid %s: %w", SettingIsActive, err)
		}
		s.IsActive = active
	}

	if boostRaw, ok := raw[SettingBoostApplied]; ok {
		s.BoostApplied = boostRaw == "true"
	}

	return s, nil
}

// PhaseAt resolves the contest phase for the given instant.
func (s *Settings) PhaseAt(now time.Time) Phase {
	return ResolvePhase(now, s.StartDate, s.EndDate)
}

// VotesForAmount converts a gateway-confirmed subunit amount into votes.
// The division truncates twice: subunits below one whole unit and units below
// one vote's price are simply not credited.
func (s *Settings) VotesForAmount(subunits int64) int {
	units := subunits / SubunitsPerUnit
	return int(units / int64(s.VotePrice))
}

// AmountForVotes is the subunit amount the gateway should be asked to charge
// for the given vote count.
func (s *Settings) AmountForVotes(count int) int64 {
	return int64(count) * int64(s.VotePrice) * SubunitsPerUnit
}
