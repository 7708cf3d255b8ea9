package price

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// LiveHolding is a snapshot holding revalued at the latest known price.
type LiveHolding struct {
	Ticker         string   `json:"ticker"`
	Name           string   `json:"name"`
	Quantity       float64  `json:"quantity"`
	SnapshotPrice  *float64 `json:"snapshot_price"`
	LivePrice      *float64 `json:"live_price"`
	SnapshotValue  float64  `json:"snapshot_value"`
	LiveValue      float64  `json:"live_value"`
	PriceChange    float64  `json:"price_change"`
	PriceChangePct float64  `json:"price_change_pct"`
	Brokerage      string   `json:"brokerage"`
	Account        string   `json:"account"`
}

// LivePortfolio is the revalued holdings list with totals.
type LivePortfolio struct {
	Holdings      []LiveHolding `json:"holdings"`
	SnapshotValue float64       `json:"snapshot_value"`
	LiveValue     float64       `json:"live_value"`
	Change        float64       `json:"change"`
	ChangePct     float64       `json:"change_pct"`
}

// ApplyLivePrices revalues holdings. A holding with a positive live price and non-zero quantity
// is worth quantity × price; any other holding keeps its snapshot price and value.
func ApplyLivePrices(holdings []domain.Holding, prices map[string]float64) []LiveHolding {
	return lo.Map(holdings, func(h domain.Holding, _ int) LiveHolding {
		lh := LiveHolding{
			Ticker:        h.Ticker,
			Name:          h.Name,
			Quantity:      h.Quantity,
			SnapshotPrice: h.Price,
			LivePrice:     h.Price,
			SnapshotValue: h.Value,
			LiveValue:     h.Value,
			Brokerage:     h.Brokerage,
			Account:       h.Account,
		}

		live, ok := prices[domain.NormalizeTicker(h.Ticker)]
		if !ok || live <= 0 || h.Quantity == 0 {
			return lh
		}

		livePrice := live
		lh.LivePrice = &livePrice
		lh.LiveValue = domain.MultiplyRound2(h.Quantity, live)

		snapshotPrice := decimal.Zero
		if h.Price != nil {
			snapshotPrice = decimal.NewFromFloat(*h.Price)
		}
		change := decimal.NewFromFloat(live).Sub(snapshotPrice)
		lh.PriceChange = change.Round(4).InexactFloat64()
		if snapshotPrice.IsPositive() {
			lh.PriceChangePct = change.Div(snapshotPrice).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		return lh
	})
}

// Summarize totals revalued holdings.
func Summarize(holdings []LiveHolding) LivePortfolio {
	snapshotTotal := lo.SumBy(holdings, func(h LiveHolding) float64 { return h.SnapshotValue })
	liveTotal := lo.SumBy(holdings, func(h LiveHolding) float64 { return h.LiveValue })

	p := LivePortfolio{
		Holdings:      holdings,
		SnapshotValue: domain.Round2(snapshotTotal),
		LiveValue:     domain.Round2(liveTotal),
		Change:        domain.Round2(liveTotal - snapshotTotal),
	}
	if p.Holdings == nil {
		p.Holdings = []LiveHolding{}
	}
	if snapshotTotal != 0 {
		p.ChangePct = domain.Round2((liveTotal - snapshotTotal) / snapshotTotal * 100)
	}
	return p
}

// Revalued converts live holdings back to plain holdings at their live value, so a breakdown
// can be computed on current prices.
func Revalued(holdings []LiveHolding) []domain.Holding {
	return lo.Map(holdings, func(h LiveHolding, _ int) domain.Holding {
		return domain.Holding{
			Ticker:    h.Ticker,
			Name:      h.Name,
			Quantity:  h.Quantity,
			Price:     h.LivePrice,
			Value:     h.LiveValue,
			Brokerage: h.Brokerage,
			Account:   h.Account,
		}
	})
}
