package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Repo keeps the latest price per oracle:asset in a hash and fans comparison
// snapshots out through a stream and a pub/sub channel.
type Repo struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	keyLatest  string // prefix + ":latest"
	stream     string
	channel    string
	streamSize int64
}

type LatestPrice struct {
	Oracle string  `json:"oracle"`
	Asset  string  `json:"asset"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, stream, channel string) *Repo {
	if strings.TrimSpace(stream) == "" {
		stream = prefix + ":comparison"
	}
	if strings.TrimSpace(channel) == "" {
		channel = prefix + ":comparison:pub"
	}
	return &Repo{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		keyLatest:  prefix + ":latest",
		stream:     stream,
		channel:    channel,
		streamSize: 1000,
	}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, oracle, asset string, price float64, ts int64) error {
	if price <= 0 {
		return nil
	}
	lp := LatestPrice{Oracle: oracle, Asset: asset, Price: price, Ts: ts}
	b, _ := json.Marshal(lp)

	// Hash: field = "Pyth:BTC" -> json
	field := fmt.Sprintf("%s:%s", oracle, asset)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) PublishComparison(ctx context.Context, ts int64, rows []domain.ComparisonRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> MAXLEN ~ N * ts_ms rows payload
	if _, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.streamSize,
		Approx: true,
		Values: map[string]any{
			"ts_ms":   ts,
			"rows":    len(rows),
			"payload": string(payload),
		},
	}).Result(); err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	msg := fmt.Sprintf(`{"ts_ms":%d,"rows":%s}`, ts, payload)
	return r.rdb.Publish(ctx, r.channel, msg).Err()
}

var (
	_ port.LatestCache         = (*Repo)(nil)
	_ port.ComparisonPublisher = (*Repo)(nil)
)
