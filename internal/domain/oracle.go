package domain

import (
	"math"
	"strings"
	"time"
)

// Oracle identifies one upstream price source.
type Oracle string

const (
	OracleCoinGecko Oracle = "CoinGecko"
	OracleRedStone  Oracle = "RedStone"
	OraclePyth      Oracle = "Pyth"
)

// AllOracles is the canonical column order used by comparisons and renderers.
var AllOracles = []Oracle{OracleCoinGecko, OracleRedStone, OraclePyth}

// ParseOracle accepts the oracle name in any case.
func ParseOracle(s string) (Oracle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coingecko":
		return OracleCoinGecko, true
	case "redstone":
		return OracleRedStone, true
	case "pyth":
		return OraclePyth, true
	}
	return "", false
}

// Key is the lower-case form used in config sections and history documents.
func (o Oracle) Key() string { return strings.ToLower(string(o)) }

type Status string

const (
	StatusActive Status = "Active"
	StatusFailed Status = "Failed"
)

// Feed is one quote as reported by a source, before normalization.
// Price is nil when the source could not provide a value.
type Feed struct {
	Asset   string    `json:"asset"`
	Oracle  Oracle    `json:"oracle"`
	Price   *float64  `json:"price"`
	Status  Status    `json:"status"`
	Updated time.Time `json:"updated"`
}

// ActiveFeed builds a feed from a reported price. Non-positive or non-finite
// values are treated as missing and yield a Failed feed.
func ActiveFeed(oracle Oracle, asset string, price float64, updated time.Time) Feed {
	if !validPrice(price) {
		return FailedFeed(oracle, asset, updated)
	}
	p := price
	return Feed{Asset: asset, Oracle: oracle, Price: &p, Status: StatusActive, Updated: updated}
}

func FailedFeed(oracle Oracle, asset string, updated time.Time) Feed {
	return Feed{Asset: asset, Oracle: oracle, Status: StatusFailed, Updated: updated}
}

// HasPrice reports whether the feed carries a usable number.
func (f Feed) HasPrice() bool {
	return f.Price != nil && validPrice(*f.Price)
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// NormalizedFeed is a Feed mapped onto the canonical asset identity.
type NormalizedFeed struct {
	AssetKey     string
	AssetDisplay string
	Oracle       Oracle
	Price        *float64
	Status       Status
	Updated      time.Time
}

func Normalize(f Feed) NormalizedFeed {
	id := NormalizeAsset(f.Asset)
	return NormalizedFeed{
		AssetKey:     id.Key,
		AssetDisplay: id.Display,
		Oracle:       f.Oracle,
		Price:        f.Price,
		Status:       f.Status,
		Updated:      f.Updated,
	}
}
