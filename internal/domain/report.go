package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportKind identifies one of the fixed analytics report variants
type ReportKind string

const (
	ReportKindGain        ReportKind = "GAIN"
	ReportKindWashSale    ReportKind = "WASH_SALE"
	ReportKindHarvest     ReportKind = "HARVEST"
	ReportKindAttribution ReportKind = "ATTRIBUTION"
	ReportKindTrend       ReportKind = "TREND"
)

// Report is implemented only by the report types in this package, so a type
// switch over GainReport, WashSaleReport, HarvestReport, AttributionReport and
// TrendReport is exhaustive.
type Report interface {
	Kind() ReportKind
	report()
}

// WashSaleFlag marks the part of a losing sale disallowed by a replacement purchase
type WashSaleFlag struct {
	SaleID           uuid.UUID
	LotID            uuid.UUID // Lot the losing sale came from
	ReplacementLotID uuid.UUID // Purchase that triggered the flag
	Symbol           string
	SaleDate         time.Time
	ReplacementDate  time.Time
	SharesMatched    decimal.Decimal
	DisallowedLoss   decimal.Decimal // Positive amount, never more than the realized loss
}

// LotGain is the unrealized position of one open lot
type LotGain struct {
	LotID             uuid.UUID
	Symbol            string
	Shares            decimal.Decimal
	CostBasis         decimal.Decimal
	TotalCost         decimal.Decimal
	PurchaseDate      time.Time
	HoldingDays       int
	HoldingPeriod     HoldingPeriod
	Available         bool // False when no quote was available; price fields are then zero
	Price             decimal.Decimal
	MarketValue       decimal.Decimal
	UnrealizedGain    decimal.Decimal
	UnrealizedGainPct decimal.Decimal
	HasDayChange      bool // False when the quote carried no previous close
	DayChange         decimal.Decimal
	DayChangePct      decimal.Decimal
}

// RealizedGain is the locked-in result of one sale
type RealizedGain struct {
	SaleID           uuid.UUID
	LotID            uuid.UUID
	Symbol           string
	Shares           decimal.Decimal
	CostBasis        decimal.Decimal
	ProceedsPerShare decimal.Decimal
	PurchaseDate     time.Time
	SaleDate         time.Time
	HoldingDays      int
	HoldingPeriod    HoldingPeriod
	Gain             decimal.Decimal
	DisallowedLoss   decimal.Decimal // Part of a loss disallowed by wash sales
}

// SymbolGain aggregates all open lots of one symbol
type SymbolGain struct {
	Symbol            string
	Lots              int
	Shares            decimal.Decimal
	TotalCost         decimal.Decimal
	AverageCost       decimal.Decimal
	Available         bool
	Price             decimal.Decimal
	MarketValue       decimal.Decimal
	UnrealizedGain    decimal.Decimal
	UnrealizedGainPct decimal.Decimal
	WeightPct         decimal.Decimal // Share of the total available market value
	ContributionPct   decimal.Decimal // UnrealizedGain over the magnitude of the total unrealized gain
	DayChange         decimal.Decimal
}

// GainTotals sums a GainReport. Market value and unrealized figures cover
// only lots with an available quote.
type GainTotals struct {
	CostBasis           decimal.Decimal
	MarketValue         decimal.Decimal
	Unrealized          decimal.Decimal
	UnrealizedShortTerm decimal.Decimal
	UnrealizedLongTerm  decimal.Decimal
	Realized            decimal.Decimal
	RealizedShortTerm   decimal.Decimal
	RealizedLongTerm    decimal.Decimal
	DisallowedLoss      decimal.Decimal
	DayChange           decimal.Decimal
	DayChangePct        decimal.Decimal // DayChange against the value at the previous close
}

// GainReport lists unrealized and realized gains
type GainReport struct {
	AsOf        time.Time
	Lots        []LotGain
	Realized    []RealizedGain
	Symbols     []SymbolGain // Sorted by market value, largest first
	Totals      GainTotals
	Unavailable []string // Symbols without a quote
}

// TopGainers returns up to n priced symbols with an unrealized gain, largest first
func (r GainReport) TopGainers(n int) []SymbolGain {
	return topSymbols(r.Symbols, n, func(a, b SymbolGain) bool {
		return a.UnrealizedGain.GreaterThan(b.UnrealizedGain)
	}, func(s SymbolGain) bool { return s.UnrealizedGain.IsPositive() })
}

// TopLosers returns up to n priced symbols with an unrealized loss, largest loss first
func (r GainReport) TopLosers(n int) []SymbolGain {
	return topSymbols(r.Symbols, n, func(a, b SymbolGain) bool {
		return a.UnrealizedGain.LessThan(b.UnrealizedGain)
	}, func(s SymbolGain) bool { return s.UnrealizedGain.IsNegative() })
}

func topSymbols(symbols []SymbolGain, n int, less func(a, b SymbolGain) bool, keep func(SymbolGain) bool) []SymbolGain {
	var out []SymbolGain
	for _, s := range symbols {
		if s.Available && keep(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// WashSaleReport lists every wash-sale flag on the sale timeline
type WashSaleReport struct {
	Flags           []WashSaleFlag
	TotalDisallowed decimal.Decimal
}

// HarvestCandidate is an open lot whose unrealized loss could be realized
type HarvestCandidate struct {
	LotID                uuid.UUID
	Symbol               string
	Shares               decimal.Decimal
	CostBasis            decimal.Decimal
	Price                decimal.Decimal
	PurchaseDate         time.Time
	HoldingPeriod        HoldingPeriod
	UnrealizedLoss       decimal.Decimal // Positive magnitude
	WouldTriggerWashSale bool
	ReplacementLotIDs    []uuid.UUID // Open lots that would trigger the wash sale
}

// HarvestReport ranks tax-loss-harvesting candidates, largest loss first
type HarvestReport struct {
	AsOf                 time.Time
	Threshold            decimal.Decimal
	Candidates           []HarvestCandidate
	TotalHarvestableLoss decimal.Decimal
	Unavailable          []string
}

// Contribution is one symbol's price-driven change over an interval
type Contribution struct {
	Symbol       string
	Contribution decimal.Decimal
	BuyCost      decimal.Decimal // Cost of lots bought during the interval
	SaleProceeds decimal.Decimal // Proceeds of lots sold during the interval
	Adjustment   decimal.Decimal // Value of share changes the dated lot activity does not explain
}

// AttributionReport splits a portfolio value change by symbol.
// TotalChange = sum of contributions + NetCashFlow; for consistent snapshots
// it equals SnapshotChange.
type AttributionReport struct {
	Start          time.Time
	End            time.Time
	StartValue     decimal.Decimal
	EndValue       decimal.Decimal
	Contributions  []Contribution // Sorted by contribution, largest first
	NetCashFlow    decimal.Decimal // Buys minus sale proceeds plus adjustments
	TotalChange    decimal.Decimal
	SnapshotChange decimal.Decimal
	Unavailable    []string
}

// TopGainers returns up to n symbols with a positive contribution, largest first
func (r AttributionReport) TopGainers(n int) []Contribution {
	out := make([]Contribution, 0, n)
	for _, c := range r.Contributions {
		if len(out) == n {
			break
		}
		if c.Contribution.IsPositive() {
			out = append(out, c)
		}
	}
	return out
}

// TopLosers returns up to n symbols with a negative contribution, most negative first
func (r AttributionReport) TopLosers(n int) []Contribution {
	out := make([]Contribution, 0, n)
	for i := len(r.Contributions) - 1; i >= 0 && len(out) < n; i-- {
		if r.Contributions[i].Contribution.IsNegative() {
			out = append(out, r.Contributions[i])
		}
	}
	return out
}

// TrendReport summarizes snapshot history over a range
type TrendReport struct {
	From       time.Time
	To         time.Time
	Snapshots  []Snapshot
	StartValue decimal.Decimal
	EndValue   decimal.Decimal
	Change     decimal.Decimal
	ChangePct  decimal.Decimal
	High       decimal.Decimal
	HighAt     time.Time
	Low        decimal.Decimal
	LowAt      time.Time
	Volatility float64 // Standard deviation of snapshot-to-snapshot returns
}

func (GainReport) Kind() ReportKind        { return ReportKindGain }
func (WashSaleReport) Kind() ReportKind    { return ReportKindWashSale }
func (HarvestReport) Kind() ReportKind     { return ReportKindHarvest }
func (AttributionReport) Kind() ReportKind { return ReportKindAttribution }
func (TrendReport) Kind() ReportKind       { return ReportKindTrend }

func (GainReport) report()        {}
func (WashSaleReport) report()    {}
func (HarvestReport) report()     {}
func (AttributionReport) report() {}
func (TrendReport) report()       {}
