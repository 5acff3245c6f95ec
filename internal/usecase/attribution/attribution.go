// Package attribution splits a change in portfolio value into per-symbol
// contributions from price movement.
package attribution

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// activity is the dated buying and selling of one symbol between two
// valuation dates
type activity struct {
	shares   decimal.Decimal // Bought minus sold
	buyCost  decimal.Decimal
	proceeds decimal.Decimal

	lotShares decimal.Decimal // Every lot of the symbol, for the fallback price
	lotCost   decimal.Decimal
}

// Attribute computes each symbol's contribution between two snapshots.
//
// Holdings at both ends are read from the snapshots' breakdowns. lots must
// contain every lot, open and closed, so that activity dated after the start
// snapshot's valuation date and on or before the end snapshot's is counted as
// cash flow: a purchase adds its cost and a sale subtracts its proceeds.
//
// A share change that dated activity does not explain, such as a lot entered
// after a snapshot but dated on or before its valuation date, is valued at the
// start snapshot's price, else the end snapshot's, else the symbol's average
// lot cost, and reported as the symbol's Adjustment cash flow.
//
// A symbol's contribution is its change in value less its cash flow, so the
// contributions plus NetCashFlow equal SnapshotChange. A symbol either
// snapshot holds without a price is skipped and reported as unavailable.
func Attribute(lots []domain.Lot, start, end domain.Snapshot) (domain.AttributionReport, error) {
	if end.Timestamp.Before(start.Timestamp) {
		return domain.AttributionReport{}, fmt.Errorf("%w: %s before %s", domain.ErrInvalidInterval, end.Timestamp, start.Timestamp)
	}

	report := domain.AttributionReport{
		Start:          start.Timestamp,
		End:            end.Timestamp,
		StartValue:     start.TotalValue,
		EndValue:       end.TotalValue,
		SnapshotChange: end.TotalValue.Sub(start.TotalValue),
	}
	startDate := start.ValuationDate()
	endDate := end.ValuationDate()

	bySymbol := make(map[string]*activity)
	get := func(symbol string) *activity {
		a, ok := bySymbol[symbol]
		if !ok {
			a = &activity{}
			bySymbol[symbol] = a
		}
		return a
	}
	for _, v := range start.Breakdown {
		get(v.Symbol)
	}
	for _, v := range end.Breakdown {
		get(v.Symbol)
	}
	for _, lot := range lots {
		a := get(lot.Symbol)
		a.lotShares = a.lotShares.Add(lot.Shares)
		a.lotCost = a.lotCost.Add(lot.TotalCost())
		if within(lot.PurchaseDate, startDate, endDate) {
			a.shares = a.shares.Add(lot.Shares)
			a.buyCost = a.buyCost.Add(lot.TotalCost())
		}
		if lot.Closed && lot.Sale != nil && within(lot.Sale.SaleDate, startDate, endDate) {
			a.shares = a.shares.Sub(lot.Shares)
			a.proceeds = a.proceeds.Add(lot.Sale.Proceeds())
		}
	}

	for symbol, a := range bySymbol {
		from, inStart := start.Holding(symbol)
		to, inEnd := end.Holding(symbol)
		if from.Unpriced || to.Unpriced {
			report.Unavailable = append(report.Unavailable, symbol)
			continue
		}
		if !inStart && !inEnd && a.shares.IsZero() && a.buyCost.IsZero() && a.proceeds.IsZero() {
			continue
		}

		c := domain.Contribution{Symbol: symbol, BuyCost: a.buyCost, SaleProceeds: a.proceeds}
		if unexplained := to.Shares.Sub(from.Shares).Sub(a.shares); !unexplained.IsZero() {
			c.Adjustment = unexplained.Mul(referencePrice(symbol, a, start, end))
		}
		cash := c.BuyCost.Sub(c.SaleProceeds).Add(c.Adjustment)
		c.Contribution = to.Value.Sub(from.Value).Sub(cash)

		report.Contributions = append(report.Contributions, c)
		report.NetCashFlow = report.NetCashFlow.Add(cash)
		report.TotalChange = report.TotalChange.Add(c.Contribution)
	}
	report.TotalChange = report.TotalChange.Add(report.NetCashFlow)

	sort.Slice(report.Contributions, func(i, j int) bool {
		a, b := report.Contributions[i], report.Contributions[j]
		if !a.Contribution.Equal(b.Contribution) {
			return a.Contribution.GreaterThan(b.Contribution)
		}
		return a.Symbol < b.Symbol
	})
	sort.Strings(report.Unavailable)

	return report, nil
}

// within reports whether date falls after from and on or before to
func within(date, from, to time.Time) bool {
	return date.After(from) && !date.After(to)
}

func referencePrice(symbol string, a *activity, start, end domain.Snapshot) decimal.Decimal {
	if p, ok := start.Price(symbol); ok {
		return p
	}
	if p, ok := end.Price(symbol); ok {
		return p
	}
	if a.lotShares.IsPositive() {
		return a.lotCost.Div(a.lotShares)
	}
	return decimal.Zero
}
