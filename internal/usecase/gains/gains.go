// Package gains computes unrealized and realized gains and the holding-period
// classification of lots. Every function is pure.
package gains

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// LongTermThresholdDays is the minimum holding period for long-term treatment.
// It is a fixed policy, not a per-call option.
const LongTermThresholdDays = 365

var hundred = decimal.NewFromInt(100)

// HoldingDays returns the number of calendar days between purchase and reference date
func HoldingDays(purchaseDate, referenceDate time.Time) int {
	return domain.DaysBetween(purchaseDate, referenceDate)
}

// Classify returns LONG_TERM if the shares were held at least
// LongTermThresholdDays at referenceDate, SHORT_TERM otherwise
func Classify(purchaseDate, referenceDate time.Time) domain.HoldingPeriod {
	if HoldingDays(purchaseDate, referenceDate) >= LongTermThresholdDays {
		return domain.HoldingPeriodLongTerm
	}
	return domain.HoldingPeriodShortTerm
}

// Unrealized returns Shares * (price - CostBasis) for an open lot
func Unrealized(lot domain.Lot, quote domain.Quote) decimal.Decimal {
	return lot.Shares.Mul(quote.Price.Sub(lot.CostBasis))
}

// Realized returns the gain fixed on the sale when it was recorded
func Realized(sale domain.Sale) decimal.Decimal {
	return sale.RealizedGain
}

// Percent returns part / whole * 100, or zero when whole is zero
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// DayChange returns the lot's value change since the quote's previous close
// and that change as a percentage of the previous close. Returns false when
// the quote has no previous close.
func DayChange(lot domain.Lot, quote domain.Quote) (decimal.Decimal, decimal.Decimal, bool) {
	perShare, ok := quote.DayChange()
	if !ok {
		return decimal.Zero, decimal.Zero, false
	}
	return lot.Shares.Mul(perShare), Percent(perShare, quote.PreviousClose), true
}

// Report builds a gain report from open lots, the sale history and resolved quotes.
// Open lots are classified against asOf; sales against their sale date.
// A symbol missing from quotes is listed in Unavailable and its lots are
// reported with Available=false; the rest of the report is unaffected.
// disallowed maps sale ids to the loss wash sales disallow on them; it may be nil.
func Report(openLots []domain.Lot, sales []domain.Sale, quotes domain.QuoteBook, disallowed map[uuid.UUID]decimal.Decimal, asOf time.Time) domain.GainReport {
	report := domain.GainReport{AsOf: asOf}
	asOfDate := domain.DateOf(asOf)

	symbols := make(map[string]*domain.SymbolGain)
	var symbolOrder []string
	unavailable := make(map[string]struct{})

	for _, lot := range openLots {
		if lot.Closed {
			continue
		}

		row := domain.LotGain{
			LotID:         lot.ID,
			Symbol:        lot.Symbol,
			Shares:        lot.Shares,
			CostBasis:     lot.CostBasis,
			TotalCost:     lot.TotalCost(),
			PurchaseDate:  lot.PurchaseDate,
			HoldingDays:   HoldingDays(lot.PurchaseDate, asOfDate),
			HoldingPeriod: Classify(lot.PurchaseDate, asOfDate),
		}

		agg, ok := symbols[lot.Symbol]
		if !ok {
			agg = &domain.SymbolGain{Symbol: lot.Symbol}
			symbols[lot.Symbol] = agg
			symbolOrder = append(symbolOrder, lot.Symbol)
		}
		agg.Lots++
		agg.Shares = agg.Shares.Add(lot.Shares)
		agg.TotalCost = agg.TotalCost.Add(row.TotalCost)
		report.Totals.CostBasis = report.Totals.CostBasis.Add(row.TotalCost)

		if quote, ok := quotes[lot.Symbol]; ok {
			row.Available = true
			row.Price = quote.Price
			row.MarketValue = lot.Shares.Mul(quote.Price)
			row.UnrealizedGain = Unrealized(lot, quote)
			row.UnrealizedGainPct = Percent(row.UnrealizedGain, row.TotalCost)

			row.DayChange, row.DayChangePct, row.HasDayChange = DayChange(lot, quote)
			agg.DayChange = agg.DayChange.Add(row.DayChange)

			report.Totals.MarketValue = report.Totals.MarketValue.Add(row.MarketValue)
			report.Totals.DayChange = report.Totals.DayChange.Add(row.DayChange)
			report.Totals.Unrealized = report.Totals.Unrealized.Add(row.UnrealizedGain)
			if row.HoldingPeriod == domain.HoldingPeriodLongTerm {
				report.Totals.UnrealizedLongTerm = report.Totals.UnrealizedLongTerm.Add(row.UnrealizedGain)
			} else {
				report.Totals.UnrealizedShortTerm = report.Totals.UnrealizedShortTerm.Add(row.UnrealizedGain)
			}
		} else {
			unavailable[lot.Symbol] = struct{}{}
		}

		report.Lots = append(report.Lots, row)
	}

	for _, sale := range sales {
		row := domain.RealizedGain{
			SaleID:           sale.ID,
			LotID:            sale.LotID,
			Symbol:           sale.Symbol,
			Shares:           sale.Shares,
			CostBasis:        sale.CostBasis,
			ProceedsPerShare: sale.ProceedsPerShare,
			PurchaseDate:     sale.PurchaseDate,
			SaleDate:         sale.SaleDate,
			HoldingDays:      HoldingDays(sale.PurchaseDate, sale.SaleDate),
			HoldingPeriod:    Classify(sale.PurchaseDate, sale.SaleDate),
			Gain:             Realized(sale),
			DisallowedLoss:   disallowed[sale.ID],
		}
		report.Totals.Realized = report.Totals.Realized.Add(row.Gain)
		report.Totals.DisallowedLoss = report.Totals.DisallowedLoss.Add(row.DisallowedLoss)
		if row.HoldingPeriod == domain.HoldingPeriodLongTerm {
			report.Totals.RealizedLongTerm = report.Totals.RealizedLongTerm.Add(row.Gain)
		} else {
			report.Totals.RealizedShortTerm = report.Totals.RealizedShortTerm.Add(row.Gain)
		}
		report.Realized = append(report.Realized, row)
	}

	if previous := report.Totals.MarketValue.Sub(report.Totals.DayChange); previous.IsPositive() {
		report.Totals.DayChangePct = Percent(report.Totals.DayChange, previous)
	}
	totalMagnitude := report.Totals.Unrealized.Abs()

	for _, symbol := range symbolOrder {
		agg := symbols[symbol]
		agg.AverageCost = agg.TotalCost.Div(agg.Shares)
		if quote, ok := quotes[symbol]; ok {
			agg.Available = true
			agg.Price = quote.Price
			agg.MarketValue = agg.Shares.Mul(quote.Price)
			agg.UnrealizedGain = agg.MarketValue.Sub(agg.TotalCost)
			agg.UnrealizedGainPct = Percent(agg.UnrealizedGain, agg.TotalCost)
			agg.WeightPct = Percent(agg.MarketValue, report.Totals.MarketValue)
			agg.ContributionPct = Percent(agg.UnrealizedGain, totalMagnitude)
		}
		report.Symbols = append(report.Symbols, *agg)
	}
	sort.SliceStable(report.Symbols, func(i, j int) bool {
		return report.Symbols[i].MarketValue.GreaterThan(report.Symbols[j].MarketValue)
	})

	report.Unavailable = sortedKeys(unavailable)
	return report
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
