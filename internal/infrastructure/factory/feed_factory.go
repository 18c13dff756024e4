package factory

import (
	"oraclewatch/internal/application/port"
	"oraclewatch/internal/infrastructure/config"
	"oraclewatch/internal/infrastructure/pricefeed"

	// 各 oracle 包在 init() 中向 pricefeed registry 注册工厂
	_ "oraclewatch/internal/infrastructure/oracle/coingecko"
	_ "oraclewatch/internal/infrastructure/oracle/pyth"
	_ "oraclewatch/internal/infrastructure/oracle/redstone"

	"github.com/rs/zerolog/log"
)

// NewSources 初始化已启用的价格源
// 按固定顺序遍历 enabled 的 oracle，使用已注册的工厂函数创建 Source
func NewSources(cfg *config.Config) []port.Source {
	var sources []port.Source

	for _, o := range cfg.EnabledOracles() {
		oc := cfg.Oracle(o)

		factory, ok := pricefeed.Get(o)
		if !ok {
			log.Warn().Msgf("⚠️ Unknown oracle or source not registered: %s", o)
			continue
		}

		sources = append(sources, factory(pricefeed.Options{
			BaseURL:    oc.BaseURL,
			RatePerSec: oc.RatePerSec,
			Assets:     cfg.Assets.List,
			Timeout:    cfg.FetchTimeout(),
		}))
		log.Info().Str("base_url", oc.BaseURL).Msgf("✓ %s source initialized", o)
	}

	return sources
}
