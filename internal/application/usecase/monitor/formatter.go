package monitor

import (
	"fmt"
	"strings"

	"oraclewatch/internal/domain"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

func ansiFor(c domain.Color) string {
	switch c {
	case domain.ColorRed:
		return ansiRed
	case domain.ColorYellow:
		return ansiYellow
	case domain.ColorGreen:
		return ansiGreen
	default:
		return ansiDim
	}
}

var oracleTag = map[domain.Oracle]string{
	domain.OracleCoinGecko: "CG",
	domain.OracleRedStone:  "RS",
	domain.OraclePyth:      "PY",
}

type Formatter struct {
	Color bool
}

func NewFormatter(color bool) *Formatter {
	return &Formatter{Color: color}
}

func (f *Formatter) paint(s, c string) string {
	if !f.Color {
		return s
	}
	return colorize(s, c)
}

// Render draws one line for the whole comparison:
// BTC CG:100.0000 RS:102.0000 PY:-- Δ=2.00%  ||  ETH ...
func (f *Formatter) Render(rows []domain.ComparisonRow) string {
	var sb strings.Builder
	sb.WriteString(f.paint("[ORACLE] ", ansiDim))

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(f.paint("  ||  ", ansiDim))
		}
		sb.WriteString(row.AssetDisplay)

		for _, o := range domain.AllOracles {
			tag := oracleTag[o]
			p, ok := row.Price(o)
			if !ok {
				continue
			}
			sb.WriteString(" ")
			if p.Price == nil {
				sb.WriteString(f.paint(tag+":--", ansiDim))
				continue
			}
			sb.WriteString(f.paint(fmt.Sprintf("%s:%.4f", tag, *p.Price), ansiFor(p.Color)))
		}

		if row.Classified {
			sb.WriteString(" ")
			sb.WriteString(f.paint(fmt.Sprintf("Δ=%.2f%%", row.SpreadPct), ansiDim))
		}
	}
	return sb.String()
}
