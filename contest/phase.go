package contest

import "time"

// Phase is where the contest is on its timeline. Purchases are only accepted
// while the contest is PhaseActive; the vote boost only runs once it is
// PhaseEnded.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseActive Phase = "active"
	PhaseEnded  Phase = "ended"
)

// ResolvePhase maps a point in time onto the contest timeline. A nil end date
// means the contest never ends through this resolver; closing it requires an
// administrative settings update.
func ResolvePhase(now, start time.Time, end *time.Time) Phase {
	if now.Before(start) {
		return PhaseBefore
	}
	if end != nil && !now.Before(*end) {
		return PhaseEnded
	}
	return PhaseActive
}
