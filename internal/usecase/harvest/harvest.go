// Package harvest ranks open lots as tax-loss-harvesting candidates
package harvest

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/simaogato/lotwise-backend/internal/usecase/gains"
	"github.com/simaogato/lotwise-backend/internal/usecase/washsale"
)

// Advise returns the open lots whose unrealized loss exceeds threshold,
// largest loss first (ties: earliest purchase first).
//
// A candidate is annotated as WouldTriggerWashSale, not dropped, when another
// open lot of the same symbol from a different purchase was bought within
// the washsale.WindowDays days up to asOf. Lots without a quote are skipped
// and their symbol is listed in Unavailable.
func Advise(openLots []domain.Lot, quotes domain.QuoteBook, threshold decimal.Decimal, asOf time.Time) domain.HarvestReport {
	if threshold.IsNegative() {
		threshold = decimal.Zero
	}
	asOfDate := domain.DateOf(asOf)
	report := domain.HarvestReport{AsOf: asOf, Threshold: threshold}

	unavailable := make(map[string]struct{})
	for _, lot := range openLots {
		if lot.Closed {
			continue
		}
		quote, ok := quotes[lot.Symbol]
		if !ok {
			unavailable[lot.Symbol] = struct{}{}
			continue
		}

		loss := gains.Unrealized(lot, quote).Neg()
		if !loss.IsPositive() || !loss.GreaterThan(threshold) {
			continue
		}

		candidate := domain.HarvestCandidate{
			LotID:          lot.ID,
			Symbol:         lot.Symbol,
			Shares:         lot.Shares,
			CostBasis:      lot.CostBasis,
			Price:          quote.Price,
			PurchaseDate:   lot.PurchaseDate,
			HoldingPeriod:  gains.Classify(lot.PurchaseDate, asOfDate),
			UnrealizedLoss: loss,
		}
		candidate.ReplacementLotIDs = recentReplacements(lot, openLots, asOfDate)
		candidate.WouldTriggerWashSale = len(candidate.ReplacementLotIDs) > 0

		report.Candidates = append(report.Candidates, candidate)
		report.TotalHarvestableLoss = report.TotalHarvestableLoss.Add(loss)
	}

	sort.SliceStable(report.Candidates, func(i, j int) bool {
		a, b := report.Candidates[i], report.Candidates[j]
		if !a.UnrealizedLoss.Equal(b.UnrealizedLoss) {
			return a.UnrealizedLoss.GreaterThan(b.UnrealizedLoss)
		}
		if !a.PurchaseDate.Equal(b.PurchaseDate) {
			return a.PurchaseDate.Before(b.PurchaseDate)
		}
		return a.LotID.String() < b.LotID.String()
	})

	for symbol := range unavailable {
		report.Unavailable = append(report.Unavailable, symbol)
	}
	sort.Strings(report.Unavailable)

	return report
}

// recentReplacements returns open lots of the same symbol, from other
// purchases, bought in the window ending at asOf
func recentReplacements(lot domain.Lot, openLots []domain.Lot, asOf time.Time) []uuid.UUID {
	var out []uuid.UUID
	for _, other := range openLots {
		if other.Closed || other.Symbol != lot.Symbol || other.OriginID == lot.OriginID {
			continue
		}
		age := domain.DaysBetween(other.PurchaseDate, asOf)
		if age >= 0 && age <= washsale.WindowDays {
			out = append(out, other.ID)
		}
	}
	return out
}
