package port

import (
	"context"

	"oraclewatch/internal/domain"
)

// Source is one upstream price API. FetchFeeds returns one feed per tracked
// asset it knows about; a transport failure is reported as an error and the
// caller treats the source as unavailable for that refresh.
type Source interface {
	Name() domain.Oracle
	FetchFeeds(ctx context.Context) ([]domain.Feed, error)
}
