package monitor

import (
	"time"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

type Source = port.Source

// Observer receives per-refresh measurements (metrics).
type Observer interface {
	ObserveFetch(oracle domain.Oracle, took time.Duration, feeds int, err error)
	ObserveComparison(rows int)
}
