package monitor

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/internal/service/exchange/fallback"
)

// CandleResolver abstracts the fallback chain for the scanner.
type CandleResolver interface {
	Resolve(ctx context.Context, req exchange.GetKlinesReq) (fallback.Result, bool)
}

// Alert is one positive detection inside a scan sweep.
type Alert struct {
	Symbol      string
	VolumeRatio decimal.Decimal
	PctAboveLow decimal.Decimal
	Price       decimal.Decimal
	Source      string
}
