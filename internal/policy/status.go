package policy

import "github.com/planmatch/planmatch/internal/models"

// ProjectedStatus is the coarse-grained label driving display and gating.
type ProjectedStatus string

const (
	StatusFinalized      ProjectedStatus = "finalized"
	StatusDatePassed     ProjectedStatus = "date_passed"
	StatusWaitingForMe   ProjectedStatus = "waiting_for_me"
	StatusWaitingForThem ProjectedStatus = "waiting_for_them"
	StatusNotConfirmed   ProjectedStatus = "not_confirmed"
)

// ProjectStatus derives the display status for a match. The precedence order
// is load-bearing: the server-owned confirmed/expired states always override
// the local confirmation flags.
//
// The waiting_for_me / waiting_for_them conditions follow the literal flag
// semantics of the upstream product logic, which read as inverted from their
// intuitive meaning. Kept as-is pending a product decision; see DESIGN.md.
func ProjectStatus(match models.Match) ProjectedStatus {
	switch {
	case match.Status == models.MatchStatusConfirmed:
		return StatusFinalized
	case match.Status == models.MatchStatusDatePassed || match.Status == models.MatchStatusExpired:
		return StatusDatePassed
	case match.TheirConfirmed && !match.MyConfirmed:
		return StatusWaitingForMe
	case !match.TheirConfirmed && match.MyConfirmed:
		return StatusWaitingForThem
	default:
		return StatusNotConfirmed
	}
}
