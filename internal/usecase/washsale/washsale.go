// Package washsale detects losses disallowed by the wash-sale rule.
//
// A loss-realizing sale is a wash sale when shares of the same symbol were
// bought within WindowDays before or after the sale date (both ends
// inclusive), other than the purchase being sold. Replacement shares are
// matched to losing sales in sale-date order and each replacement share is
// used at most once.
package washsale

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// WindowDays is the number of days on each side of a sale that a
// replacement purchase is looked for
const WindowDays = 30

// InWindow reports whether purchaseDate is within WindowDays of saleDate,
// inclusive on both sides
func InWindow(saleDate, purchaseDate time.Time) bool {
	d := domain.DaysBetween(saleDate, purchaseDate)
	return d >= -WindowDays && d <= WindowDays
}

// Detect scans the full purchase and sale timeline and returns one flag per
// (losing sale, replacement purchase) match, ordered by sale date and then
// replacement purchase date. Purchases made on the same date are used in
// lot id order.
func Detect(purchases []domain.Purchase, sales []domain.Sale) []domain.WashSaleFlag {
	bySymbol := make(map[string][]domain.Purchase)
	available := make(map[uuid.UUID]decimal.Decimal, len(purchases))
	for _, p := range purchases {
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
		available[p.LotID] = available[p.LotID].Add(p.Shares)
	}
	for symbol := range bySymbol {
		ps := bySymbol[symbol]
		sort.Slice(ps, func(i, j int) bool {
			if !ps[i].Date.Equal(ps[j].Date) {
				return ps[i].Date.Before(ps[j].Date)
			}
			return ps[i].LotID.String() < ps[j].LotID.String()
		})
	}

	ordered := append([]domain.Sale(nil), sales...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SaleDate.Before(ordered[j].SaleDate) })

	var flags []domain.WashSaleFlag
	for _, sale := range ordered {
		if !sale.IsLoss() {
			continue
		}

		loss := sale.RealizedGain.Neg()
		lossPerShare := sale.CostBasis.Sub(sale.ProceedsPerShare)
		sharesLeft := sale.Shares

		for _, p := range bySymbol[sale.Symbol] {
			if !sharesLeft.IsPositive() || !loss.IsPositive() {
				break
			}
			if p.LotID == sale.LotID || !InWindow(sale.SaleDate, p.Date) {
				continue
			}
			replacement := available[p.LotID]
			if !replacement.IsPositive() {
				continue
			}

			matched := decimal.Min(replacement, sharesLeft)
			disallowed := decimal.Min(matched.Mul(lossPerShare), loss)

			flags = append(flags, domain.WashSaleFlag{
				SaleID:           sale.ID,
				LotID:            sale.LotID,
				ReplacementLotID: p.LotID,
				Symbol:           sale.Symbol,
				SaleDate:         sale.SaleDate,
				ReplacementDate:  p.Date,
				SharesMatched:    matched,
				DisallowedLoss:   disallowed,
			})

			available[p.LotID] = replacement.Sub(matched)
			sharesLeft = sharesLeft.Sub(matched)
			loss = loss.Sub(disallowed)
		}
	}

	return flags
}

// DisallowedBySale sums disallowed losses per sale id
func DisallowedBySale(flags []domain.WashSaleFlag) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, f := range flags {
		out[f.SaleID] = out[f.SaleID].Add(f.DisallowedLoss)
	}
	return out
}

// Report wraps Detect into a WashSaleReport
func Report(purchases []domain.Purchase, sales []domain.Sale) domain.WashSaleReport {
	report := domain.WashSaleReport{Flags: Detect(purchases, sales)}
	for _, f := range report.Flags {
		report.TotalDisallowed = report.TotalDisallowed.Add(f.DisallowedLoss)
	}
	return report
}
