package coingecko

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/oracle"
)

// Source queries the simple/price endpoint for all tracked coins in one call.
type Source struct {
	client *oracle.Client
	assets []string
	now    func() time.Time
}

func NewSource(client *oracle.Client, assets []string) *Source {
	return &Source{client: client, assets: assets, now: time.Now}
}

func (s *Source) Name() domain.Oracle { return domain.OracleCoinGecko }

// FetchFeeds returns one feed per tracked asset. Assets without a known coin
// slug, or missing from the response, come back as Failed.
func (s *Source) FetchFeeds(ctx context.Context) ([]domain.Feed, error) {
	now := s.now()

	ids := make([]string, 0, len(s.assets))
	var unknown []string
	for _, a := range s.assets {
		if slug, ok := domain.CoinSlug(a); ok {
			ids = append(ids, slug)
		} else {
			unknown = append(unknown, a)
		}
	}

	feeds := make([]domain.Feed, 0, len(s.assets))
	if len(ids) > 0 {
		params := url.Values{}
		params.Set("ids", strings.Join(ids, ","))
		params.Set("vs_currencies", "usd")
		params.Set("include_last_updated_at", "true")

		body, err := s.client.Get(ctx, "/simple/price", params)
		if err != nil {
			return nil, err
		}

		res := gjson.ParseBytes(body).Map()
		for _, id := range ids {
			asset := strings.ToUpper(id)
			coin, ok := res[id]
			usd := coin.Get("usd")
			if !ok || !usd.Exists() {
				feeds = append(feeds, domain.FailedFeed(s.Name(), asset, now))
				continue
			}
			updated := now
			if ts := coin.Get("last_updated_at").Int(); ts > 0 {
				updated = time.Unix(ts, 0)
			}
			feeds = append(feeds, domain.ActiveFeed(s.Name(), asset, usd.Float(), updated))
		}
	}

	for _, a := range unknown {
		log.Debug().Str("asset", a).Msg("coingecko: no coin slug for asset")
		feeds = append(feeds, domain.FailedFeed(s.Name(), a, now))
	}
	return feeds, nil
}
