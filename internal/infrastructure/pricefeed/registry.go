package pricefeed

import (
	"time"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"

	"github.com/rs/zerolog/log"
)

// Options carries the per-source settings a factory needs.
type Options struct {
	BaseURL    string
	RatePerSec float64
	Assets     []string // canonical tickers
	Timeout    time.Duration
}

// factory函数类型
type Factory func(opts Options) port.Source

// registry maps oracle names to their source factories
var registry = make(map[domain.Oracle]Factory)

// Register 注册一个价格源工厂
// 由各 oracle 包的 init() 函数调用来自注册
func Register(oracle domain.Oracle, factory Factory) {
	if factory == nil {
		log.Warn().Str("oracle", string(oracle)).Msg("invalid source factory")
		return
	}
	if _, exists := registry[oracle]; exists {
		log.Warn().Str("oracle", string(oracle)).Msg("source factory already registered, overwriting")
	}
	registry[oracle] = factory
	log.Debug().Str("oracle", string(oracle)).Msg("source factory registered")
}

// Get 获取已注册的价格源工厂
func Get(oracle domain.Oracle) (Factory, bool) {
	factory, ok := registry[oracle]
	return factory, ok
}
