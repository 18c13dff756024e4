package domain

import (
	"sort"
	"time"
)

// Rank is a price's position relative to the other sources for the same asset.
type Rank string

const (
	RankNone Rank = ""
	RankLow  Rank = "low"
	RankMid  Rank = "mid"
	RankHigh Rank = "high"
)

type Color string

const (
	ColorNone   Color = ""
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

func (r Rank) Color() Color {
	switch r {
	case RankLow:
		return ColorRed
	case RankMid:
		return ColorYellow
	case RankHigh:
		return ColorGreen
	default:
		return ColorNone
	}
}

// OraclePrice is one cell of a comparison row.
type OraclePrice struct {
	Oracle  Oracle    `json:"oracle"`
	Price   *float64  `json:"price"`
	Status  Status    `json:"status"`
	Updated time.Time `json:"updated"`
	Rank    Rank      `json:"rank,omitempty"`
	Color   Color     `json:"color,omitempty"`
}

// ComparisonRow holds at most one price per oracle for a single asset.
type ComparisonRow struct {
	AssetKey     string        `json:"assetKey"`
	AssetDisplay string        `json:"assetDisplay"`
	Prices       []OraclePrice `json:"prices"`
	Spread       float64       `json:"spread"`
	SpreadPct    float64       `json:"spreadPct"`
	Classified   bool          `json:"classified"`
}

// Price returns the cell for one oracle.
func (r ComparisonRow) Price(o Oracle) (OraclePrice, bool) {
	for _, p := range r.Prices {
		if p.Oracle == o {
			return p, true
		}
	}
	return OraclePrice{}, false
}

// BuildComparison merges the feeds of every source into one row per canonical
// asset. Within an oracle the last feed in input order wins, except that a
// feed without a price never replaces one that has a price.
func BuildComparison(sources ...[]Feed) []ComparisonRow {
	type group struct {
		display string
		cells   map[Oracle]NormalizedFeed
	}
	groups := make(map[string]*group)

	for _, feeds := range sources {
		for _, f := range feeds {
			nf := Normalize(f)
			// a blank asset id has no row to land in
			if nf.AssetKey == "" {
				continue
			}
			g := groups[nf.AssetKey]
			if g == nil {
				g = &group{display: nf.AssetDisplay, cells: make(map[Oracle]NormalizedFeed, len(AllOracles))}
				groups[nf.AssetKey] = g
			}
			prev, seen := g.cells[nf.Oracle]
			if seen && prev.Price != nil && !f.HasPrice() {
				continue
			}
			if !f.HasPrice() {
				nf.Price = nil
			}
			g.cells[nf.Oracle] = nf
		}
	}

	rows := make([]ComparisonRow, 0, len(groups))
	for key, g := range groups {
		row := ComparisonRow{AssetKey: key, AssetDisplay: g.display}
		for _, o := range oracleOrder(g.cells) {
			nf := g.cells[o]
			row.Prices = append(row.Prices, OraclePrice{
				Oracle:  o,
				Price:   nf.Price,
				Status:  nf.Status,
				Updated: nf.Updated,
			})
		}
		classify(&row)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].AssetDisplay < rows[j].AssetDisplay })
	return rows
}

// oracleOrder yields the canonical oracles first, then any others by name.
func oracleOrder(cells map[Oracle]NormalizedFeed) []Oracle {
	out := make([]Oracle, 0, len(cells))
	known := make(map[Oracle]struct{}, len(AllOracles))
	for _, o := range AllOracles {
		known[o] = struct{}{}
		if _, ok := cells[o]; ok {
			out = append(out, o)
		}
	}
	var extra []Oracle
	for o := range cells {
		if _, ok := known[o]; !ok {
			extra = append(extra, o)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func classify(row *ComparisonRow) {
	var (
		n      int
		lo, hi float64
	)
	for _, p := range row.Prices {
		if p.Price == nil {
			continue
		}
		v := *p.Price
		if n == 0 || v < lo {
			lo = v
		}
		if n == 0 || v > hi {
			hi = v
		}
		n++
	}
	if n < 2 {
		return
	}

	for i := range row.Prices {
		p := &row.Prices[i]
		if p.Price == nil {
			continue
		}
		switch v := *p.Price; {
		case hi > lo && v == lo:
			p.Rank = RankLow
		case hi > lo && v == hi:
			p.Rank = RankHigh
		default:
			p.Rank = RankMid
		}
		p.Color = p.Rank.Color()
	}
	row.Classified = true
	row.Spread = hi - lo
	row.SpreadPct = row.Spread / lo * 100
}
