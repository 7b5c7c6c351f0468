package policy

import (
	"github.com/elliotchance/pie/v2"

	"github.com/planmatch/planmatch/internal/models"
)

// HasBlockingUnratedMatch reports whether any match has an elapsed date the
// user has not rated yet. While true, starting a new match session is
// disabled; presentation of the block is the caller's concern.
func HasBlockingUnratedMatch(matches []models.Match) bool {
	return pie.Any(matches, func(m models.Match) bool {
		return m.Status == models.MatchStatusDatePassed && m.MyRating == nil
	})
}

// UnratedMatchIDs returns the ids of matches currently blocking a new
// session.
func UnratedMatchIDs(matches []models.Match) []string {
	blocking := pie.Filter(matches, func(m models.Match) bool {
		return m.Status == models.MatchStatusDatePassed && m.MyRating == nil
	})
	return pie.Map(blocking, func(m models.Match) string { return m.ID })
}
