package redstone

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/oracle"
)

// Source reads the prices endpoint, which is keyed by ticker:
// {"BTC": {"value": 65000.1, "timestamp": 1740830400000}, ...}
type Source struct {
	client *oracle.Client
	assets []string
	now    func() time.Time
}

func NewSource(client *oracle.Client, assets []string) *Source {
	return &Source{client: client, assets: assets, now: time.Now}
}

func (s *Source) Name() domain.Oracle { return domain.OracleRedStone }

func (s *Source) FetchFeeds(ctx context.Context) ([]domain.Feed, error) {
	if len(s.assets) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("symbols", strings.Join(s.assets, ","))

	body, err := s.client.Get(ctx, "/prices", params)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := gjson.ParseBytes(body).Map()
	feeds := make([]domain.Feed, 0, len(s.assets))
	for _, sym := range s.assets {
		entry, ok := res[sym]
		value := entry.Get("value")
		if !ok || !value.Exists() {
			feeds = append(feeds, domain.FailedFeed(s.Name(), sym, now))
			continue
		}
		updated := now
		if ms := entry.Get("timestamp").Int(); ms > 0 {
			updated = time.UnixMilli(ms)
		}
		// ActiveFeed downgrades zero values to Failed
		feeds = append(feeds, domain.ActiveFeed(s.Name(), sym, value.Float(), updated))
	}
	return feeds, nil
}
