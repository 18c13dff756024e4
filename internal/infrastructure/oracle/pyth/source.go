package pyth

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/oracle"
)

// Source resolves tracked tickers to feed ids through the catalog, then reads
// the latest price updates for those ids.
type Source struct {
	client *oracle.Client
	assets []string
	now    func() time.Time
}

func NewSource(client *oracle.Client, assets []string) *Source {
	return &Source{client: client, assets: assets, now: time.Now}
}

func (s *Source) Name() domain.Oracle { return domain.OraclePyth }

// FetchFeeds returns one feed per tracked asset. Assets with no USD-quoted
// catalog entry, or no parsed update, come back as Failed.
func (s *Source) FetchFeeds(ctx context.Context) ([]domain.Feed, error) {
	if len(s.assets) == 0 {
		return nil, nil
	}

	ids, err := s.resolveFeedIDs(ctx)
	if err != nil {
		return nil, err
	}

	prices := map[string]domain.Feed{}
	if len(ids) > 0 {
		prices, err = s.latest(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	feeds := make([]domain.Feed, 0, len(s.assets))
	for _, sym := range s.assets {
		if f, ok := prices[sym]; ok {
			feeds = append(feeds, f)
			continue
		}
		feeds = append(feeds, domain.FailedFeed(s.Name(), sym, now))
	}
	return feeds, nil
}

// resolveFeedIDs maps feed id -> tracked ticker. The first catalog entry per
// base wins.
func (s *Source) resolveFeedIDs(ctx context.Context) (map[string]string, error) {
	params := url.Values{}
	params.Set("asset_type", "crypto")
	body, err := s.client.Get(ctx, "/v2/price_feeds", params)
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]bool, len(s.assets))
	for _, a := range s.assets {
		tracked[a] = true
	}

	ids := make(map[string]string)
	taken := make(map[string]bool)
	gjson.ParseBytes(body).ForEach(func(_, entry gjson.Result) bool {
		base := strings.ToUpper(entry.Get("attributes.base").String())
		quote := entry.Get("attributes.quote_currency").String()
		display := entry.Get("attributes.display_symbol").String()
		id := entry.Get("id").String()
		if id == "" || !tracked[base] || taken[base] || !quotesUSD(quote, display) {
			return true
		}
		ids[id] = base
		taken[base] = true
		return true
	})
	return ids, nil
}

// quotesUSD prefers quote_currency and falls back to the part of
// display_symbol after the last "/". Only plain USD and USDT qualify.
func quotesUSD(quote, display string) bool {
	if quote == "" {
		i := strings.LastIndex(display, "/")
		if i < 0 {
			return false
		}
		quote = display[i+1:]
	}
	switch strings.ToUpper(strings.TrimSpace(quote)) {
	case "USD", "USDT":
		return true
	}
	return false
}

func (s *Source) latest(ctx context.Context, ids map[string]string) (map[string]domain.Feed, error) {
	params := url.Values{}
	for id := range ids {
		params.Add("ids[]", id)
	}
	body, err := s.client.Get(ctx, "/v2/updates/price/latest", params)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.Feed, len(ids))
	for _, p := range gjson.GetBytes(body, "parsed").Array() {
		sym, ok := ids[strings.TrimPrefix(p.Get("id").String(), "0x")]
		if !ok {
			continue
		}
		price, err := scalePrice(p.Get("price.price").String(), p.Get("price.expo").Int())
		updated := time.Unix(p.Get("price.publish_time").Int(), 0)
		if err != nil {
			out[sym] = domain.FailedFeed(s.Name(), sym, updated)
			continue
		}
		out[sym] = domain.ActiveFeed(s.Name(), sym, price, updated)
	}
	return out, nil
}

// scalePrice converts a fixed-point mantissa and exponent into a float.
func scalePrice(mantissa string, expo int64) (float64, error) {
	m, err := strconv.ParseInt(mantissa, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price mantissa %q: %w", mantissa, err)
	}
	return float64(m) * math.Pow10(int(expo)), nil
}
