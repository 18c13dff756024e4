package domain

import "strings"

// AssetID is the canonical identity of an asset across sources.
type AssetID struct {
	Key     string // lower-case ticker, grouping key
	Display string // upper-case ticker
}

type coin struct {
	symbol string
	slug   string
}

// 支持的币种：ticker 与 CoinGecko slug 的对应关系
var coins = []coin{
	{"BTC", "bitcoin"},
	{"ETH", "ethereum"},
	{"SOL", "solana"},
	{"LTC", "litecoin"},
	{"ADA", "cardano"},
	{"DOT", "polkadot"},
	{"BNB", "binancecoin"},
	{"XRP", "ripple"},
	{"MATIC", "matic-network"},
	{"DOGE", "dogecoin"},
	{"SHIB", "shiba-inu"},
	{"AVAX", "avalanche-2"},
	{"LINK", "chainlink"},
	{"XLM", "stellar"},
	{"TRX", "tron"},
	{"VET", "vechain"},
	{"FIL", "filecoin"},
	{"ATOM", "cosmos"},
	{"ALGO", "algorand"},
	{"ICP", "internet-computer"},
	{"APT", "aptos"},
	{"ARB", "arbitrum"},
	{"OP", "optimism"},
	{"SUI", "sui"},
	{"HBAR", "hedera-hashgraph"},
	{"GRT", "the-graph"},
	{"AAVE", "aave"},
	{"SNX", "synthetix-network-token"},
	{"CAKE", "pancakeswap-token"},
	{"UNI", "uniswap"},
}

var (
	aliases = buildAliases(coins)
	slugs   = buildSlugs(coins)
)

func buildAliases(cs []coin) map[string]string {
	m := make(map[string]string, len(cs)*3)
	for _, c := range cs {
		m[c.slug] = c.symbol
		m[c.symbol] = c.symbol
		m[strings.ToLower(c.symbol)] = c.symbol
	}
	return m
}

func buildSlugs(cs []coin) map[string]string {
	m := make(map[string]string, len(cs))
	for _, c := range cs {
		m[c.symbol] = c.slug
	}
	return m
}

// NormalizeAsset maps a raw source identifier (slug, ticker in any case) onto
// its canonical ticker. Unknown identifiers fall back to their upper-case form.
func NormalizeAsset(raw string) AssetID {
	s := strings.TrimSpace(raw)
	display, ok := aliases[s]
	if !ok {
		display, ok = aliases[strings.ToLower(s)]
	}
	if !ok {
		display = strings.ToUpper(s)
	}
	return AssetID{Key: strings.ToLower(display), Display: display}
}

// CoinSlug returns the long-form slug for a ticker.
func CoinSlug(symbol string) (string, bool) {
	slug, ok := slugs[strings.ToUpper(strings.TrimSpace(symbol))]
	return slug, ok
}

// KnownSymbols lists every ticker the alias table knows, in declaration order.
func KnownSymbols() []string {
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = c.symbol
	}
	return out
}
