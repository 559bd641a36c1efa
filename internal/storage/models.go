package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is a persisted daily reference rate.
type RateRecord struct {
	Pair      string
	Date      time.Time
	Rate      decimal.Decimal
	Source    string
	FetchedAt time.Time
}

// AlertRecord captures an emitted alert for de-duplication/auditing.
type AlertRecord struct {
	ID        int64
	Pair      string
	Date      time.Time
	Kind      string
	Value     decimal.Decimal
	Threshold decimal.Decimal
	Channels  []string
	CreatedAt time.Time
}
