package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// HistoryPoint is one oracle's value for one asset at snapshot time.
type HistoryPoint struct {
	Price   *float64 `json:"price"`
	Status  Status   `json:"status"`
	Updated int64    `json:"updated"`
}

// HistorySnapshot is the document appended to the price history log.
// Oracles is keyed by oracle key ("coingecko") then by asset display ticker.
// On the wire the oracle keys sit at the top level next to timestamp and created.
type HistorySnapshot struct {
	Oracles   map[string]map[string]HistoryPoint
	Timestamp string
	Created   int64
}

func (s HistorySnapshot) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.Oracles)+2)
	for k, v := range s.Oracles {
		doc[k] = v
	}
	doc["timestamp"] = s.Timestamp
	doc["created"] = s.Created
	return json.Marshal(doc)
}

func (s *HistorySnapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Oracles = make(map[string]map[string]HistoryPoint)
	for k, v := range raw {
		switch k {
		case "timestamp":
			if err := json.Unmarshal(v, &s.Timestamp); err != nil {
				return err
			}
		case "created":
			if err := json.Unmarshal(v, &s.Created); err != nil {
				return err
			}
		default:
			var m map[string]HistoryPoint
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			s.Oracles[k] = m
		}
	}
	return nil
}

func NewHistorySnapshot(at time.Time, sources ...[]Feed) HistorySnapshot {
	snap := HistorySnapshot{
		Oracles:   make(map[string]map[string]HistoryPoint),
		Timestamp: at.UTC().Format(time.RFC3339),
		Created:   at.UnixMilli(),
	}
	for _, feeds := range sources {
		for _, f := range feeds {
			id := NormalizeAsset(f.Asset)
			if id.Display == "" {
				continue
			}
			key := f.Oracle.Key()
			m := snap.Oracles[key]
			if m == nil {
				m = make(map[string]HistoryPoint)
				snap.Oracles[key] = m
			}
			if prev, ok := m[id.Display]; ok && prev.Price != nil && !f.HasPrice() {
				continue
			}
			pt := HistoryPoint{Status: f.Status, Updated: f.Updated.UnixMilli()}
			if f.HasPrice() {
				v := *f.Price
				pt.Price = &v
			}
			m[id.Display] = pt
		}
	}
	return snap
}

type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe defaults to daily for an empty value.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return TimeframeDaily, true
	case "weekly":
		return TimeframeWeekly, true
	case "monthly":
		return TimeframeMonthly, true
	}
	return "", false
}

func (t Timeframe) Window() time.Duration {
	switch t {
	case TimeframeWeekly:
		return 7 * 24 * time.Hour
	case TimeframeMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// HistorySeries is a chart-ready view of one asset: a shared time axis and
// one value per oracle per axis point (nil where the oracle had no value).
type HistorySeries struct {
	Asset  string                `json:"asset"`
	Times  []int64               `json:"times"`
	Series map[Oracle][]*float64 `json:"series"`
}

func BuildSeries(asset string, snaps []HistorySnapshot) HistorySeries {
	id := NormalizeAsset(asset)
	out := HistorySeries{Asset: id.Display, Series: make(map[Oracle][]*float64, len(AllOracles))}

	byTime := make(map[int64]map[Oracle]*float64)
	for _, s := range snaps {
		for _, o := range AllOracles {
			pt, ok := s.Oracles[o.Key()][id.Display]
			if !ok || pt.Price == nil {
				continue
			}
			m := byTime[s.Created]
			if m == nil {
				m = make(map[Oracle]*float64, len(AllOracles))
				byTime[s.Created] = m
			}
			v := *pt.Price
			m[o] = &v
		}
	}

	for ts := range byTime {
		out.Times = append(out.Times, ts)
	}
	sort.Slice(out.Times, func(i, j int) bool { return out.Times[i] < out.Times[j] })

	for _, o := range AllOracles {
		vals := make([]*float64, len(out.Times))
		for i, ts := range out.Times {
			vals[i] = byTime[ts][o]
		}
		out.Series[o] = vals
	}
	return out
}
