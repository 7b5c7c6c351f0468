// Package interfaces defines the collaborator contracts the session engine
// depends on, so sessions can be exercised with fakes in tests.
package interfaces

import (
	"context"

	"github.com/planmatch/planmatch/internal/coreapi"
	"github.com/planmatch/planmatch/internal/models"
)

// CoreAPI is the platform REST collaborator owning matches and messages.
type CoreAPI interface {
	FetchMatches(ctx context.Context, userID string, status models.MatchStatus) ([]models.Match, error)
	FetchMessages(ctx context.Context, userID, matchID string, limit, offset int) ([]models.Message, error)
	SendMessage(ctx context.Context, userID, matchID string, req coreapi.SendMessageRequest) (*models.Message, error)
	ConfirmPlan(ctx context.Context, userID, matchID string) error
}

// SnapshotCache is the warm-start cache for match snapshots. Implementations
// must treat a miss as (nil, false, nil), not an error.
type SnapshotCache interface {
	PutMatches(ctx context.Context, userID string, matches []models.Match) error
	GetMatches(ctx context.Context, userID string) ([]models.Match, bool, error)
	Invalidate(ctx context.Context, userID string) error
}
