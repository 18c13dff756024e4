package coingecko

import (
	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/oracle"
	"oraclewatch/internal/infrastructure/pricefeed"
)

func init() {
	pricefeed.Register(domain.OracleCoinGecko, func(opts pricefeed.Options) port.Source {
		return NewSource(oracle.NewClient(opts.BaseURL, opts.RatePerSec, opts.Timeout), opts.Assets)
	})
}
