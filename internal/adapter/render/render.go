// Package render turns analytics reports into markdown and styles it for the
// terminal with glamour.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/simaogato/lotwise-backend/internal/domain"
)

// topMovers is how many symbols each side of a gain report's movers list shows
const topMovers = 5

// Markdown renders any report variant as a markdown document
func Markdown(r domain.Report) string {
	switch r := r.(type) {
	case domain.GainReport:
		return gainMarkdown(r)
	case domain.WashSaleReport:
		return washSaleMarkdown(r)
	case domain.HarvestReport:
		return harvestMarkdown(r)
	case domain.AttributionReport:
		return attributionMarkdown(r)
	case domain.TrendReport:
		return trendMarkdown(r)
	}
	panic(fmt.Sprintf("render: unknown report kind %q", r.Kind()))
}

// Terminal styles markdown for a terminal. An empty style picks one from the
// terminal background; "notty" produces plain text.
func Terminal(md string, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return renderer.Render(md)
}

// LotsMarkdown renders a lot listing
func LotsMarkdown(lots []domain.Lot) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Lots\n\n")
	if len(lots) == 0 {
		fmt.Fprint(&b, "No lots.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| ID | Symbol | Shares | Cost Basis | Purchased | Status | Notes |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|:---|:---|:---|")
	for _, l := range lots {
		state := "open"
		if l.Closed {
			state = "closed"
			if l.Sale != nil {
				state = fmt.Sprintf("sold %s @ %s", date(l.Sale.SaleDate), money(l.Sale.ProceedsPerShare))
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			l.ID, l.Symbol, l.Shares, money(l.CostBasis), date(l.PurchaseDate), state, cell(l.Notes))
	}
	return b.String()
}

func gainMarkdown(r domain.GainReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Gain Report as of %s\n\n", date(r.AsOf))

	fmt.Fprint(&b, "## Open Lots\n\n")
	if len(r.Lots) == 0 {
		fmt.Fprint(&b, "No open lots.\n\n")
	} else {
		fmt.Fprintln(&b, "| Symbol | Shares | Cost | Price | Value | Unrealized | % | Term |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|:---|")
		for _, l := range r.Lots {
			if !l.Available {
				fmt.Fprintf(&b, "| %s | %s | %s | n/a | n/a | n/a | n/a | %s |\n",
					l.Symbol, l.Shares, money(l.TotalCost), term(l.HoldingPeriod))
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				l.Symbol, l.Shares, money(l.TotalCost), money(l.Price), money(l.MarketValue),
				signed(l.UnrealizedGain), pct(l.UnrealizedGainPct), term(l.HoldingPeriod))
		}
		fmt.Fprintln(&b)
	}

	if len(r.Symbols) > 0 {
		fmt.Fprint(&b, "## By Symbol\n\n")
		fmt.Fprintln(&b, "| Symbol | Lots | Shares | Avg Cost | Value | Unrealized | Weight | Contribution | Day |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|---:|")
		for _, s := range r.Symbols {
			if !s.Available {
				fmt.Fprintf(&b, "| %s | %d | %s | %s | n/a | n/a | n/a | n/a | n/a |\n",
					s.Symbol, s.Lots, s.Shares, money(s.AverageCost))
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
				s.Symbol, s.Lots, s.Shares, money(s.AverageCost), money(s.MarketValue),
				signed(s.UnrealizedGain), pct(s.WeightPct), pct(s.ContributionPct), signed(s.DayChange))
		}
		fmt.Fprintln(&b)
	}

	gainers, losers := r.TopGainers(topMovers), r.TopLosers(topMovers)
	if len(gainers) > 0 || len(losers) > 0 {
		fmt.Fprint(&b, "## Top Movers\n\n")
		if len(gainers) > 0 {
			fmt.Fprintf(&b, "Gainers: %s\n\n", symbolGains(gainers))
		}
		if len(losers) > 0 {
			fmt.Fprintf(&b, "Losers: %s\n\n", symbolGains(losers))
		}
	}

	if len(r.Realized) > 0 {
		fmt.Fprint(&b, "## Realized\n\n")
		fmt.Fprintln(&b, "| Symbol | Shares | Bought | Sold | Proceeds | Gain | Disallowed | Term |")
		fmt.Fprintln(&b, "|:---|---:|:---|:---|---:|---:|---:|:---|")
		for _, g := range r.Realized {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				g.Symbol, g.Shares, date(g.PurchaseDate), date(g.SaleDate),
				money(g.ProceedsPerShare), signed(g.Gain), money(g.DisallowedLoss), term(g.HoldingPeriod))
		}
		fmt.Fprintln(&b)
	}

	t := r.Totals
	fmt.Fprint(&b, "## Totals\n\n")
	fmt.Fprintln(&b, "| | Short Term | Long Term | Total |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	fmt.Fprintf(&b, "| Unrealized | %s | %s | **%s** |\n", signed(t.UnrealizedShortTerm), signed(t.UnrealizedLongTerm), signed(t.Unrealized))
	fmt.Fprintf(&b, "| Realized | %s | %s | **%s** |\n", signed(t.RealizedShortTerm), signed(t.RealizedLongTerm), signed(t.Realized))
	fmt.Fprintf(&b, "\nCost basis %s, market value %s.\n", money(t.CostBasis), money(t.MarketValue))
	if !t.DayChange.IsZero() {
		fmt.Fprintf(&b, "\nDay change %s (%s).\n", signed(t.DayChange), pct(t.DayChangePct))
	}
	if t.DisallowedLoss.IsPositive() {
		fmt.Fprintf(&b, "\nWash sales disallow %s of realized losses.\n", money(t.DisallowedLoss))
	}

	unavailable(&b, r.Unavailable)
	return b.String()
}

func washSaleMarkdown(r domain.WashSaleReport) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Wash Sales\n\n")
	if len(r.Flags) == 0 {
		fmt.Fprint(&b, "No wash sales.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Symbol | Sold | Replacement | Shares | Disallowed |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|")
	for _, f := range r.Flags {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			f.Symbol, date(f.SaleDate), date(f.ReplacementDate), f.SharesMatched, money(f.DisallowedLoss))
	}
	fmt.Fprintf(&b, "| **Total** | | | | **%s** |\n", money(r.TotalDisallowed))
	return b.String()
}

func harvestMarkdown(r domain.HarvestReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Harvest Candidates as of %s\n\n", date(r.AsOf))
	if r.Threshold.IsPositive() {
		fmt.Fprintf(&b, "Losses above %s.\n\n", money(r.Threshold))
	}

	if len(r.Candidates) == 0 {
		fmt.Fprint(&b, "No candidates.\n")
	} else {
		fmt.Fprintln(&b, "| Symbol | Shares | Cost | Price | Loss | Term | Wash Sale Risk |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|:---|:---|")
		for _, c := range r.Candidates {
			risk := "no"
			if c.WouldTriggerWashSale {
				risk = fmt.Sprintf("yes (%d recent)", len(c.ReplacementLotIDs))
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				c.Symbol, c.Shares, money(c.CostBasis), money(c.Price), money(c.UnrealizedLoss),
				term(c.HoldingPeriod), risk)
		}
		fmt.Fprintf(&b, "\nTotal harvestable loss: **%s**\n", money(r.TotalHarvestableLoss))
	}

	unavailable(&b, r.Unavailable)
	return b.String()
}

func attributionMarkdown(r domain.AttributionReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Attribution from %s to %s\n\n", timestamp(r.Start), timestamp(r.End))
	fmt.Fprintf(&b, "Value moved from %s to %s (%s).\n\n", money(r.StartValue), money(r.EndValue), signed(r.SnapshotChange))

	if len(r.Contributions) > 0 {
		fmt.Fprintln(&b, "| Symbol | Contribution | Bought | Sold | Adjusted |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
		for _, c := range r.Contributions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				c.Symbol, signed(c.Contribution), money(c.BuyCost), money(c.SaleProceeds), signed(c.Adjustment))
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintf(&b, "Net cash flow: %s\n\n", signed(r.NetCashFlow))
	fmt.Fprintf(&b, "Total change: **%s**\n", signed(r.TotalChange))

	if gainers := r.TopGainers(3); len(gainers) > 0 {
		fmt.Fprintf(&b, "\nTop gainers: %s\n", symbols(gainers))
	}
	if losers := r.TopLosers(3); len(losers) > 0 {
		fmt.Fprintf(&b, "\nTop losers: %s\n", symbols(losers))
	}

	unavailable(&b, r.Unavailable)
	return b.String()
}

func trendMarkdown(r domain.TrendReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Trend from %s to %s\n\n", timestamp(r.From), timestamp(r.To))
	if len(r.Snapshots) == 0 {
		fmt.Fprint(&b, "No snapshots in range.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Timestamp | Value | Cost Basis |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	for _, s := range r.Snapshots {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", timestamp(s.Timestamp), money(s.TotalValue), money(s.TotalCostBasis))
	}

	fmt.Fprintf(&b, "\nChange: **%s** (%s)\n\n", signed(r.Change), pct(r.ChangePct))
	fmt.Fprintf(&b, "High %s on %s, low %s on %s.\n\n", money(r.High), timestamp(r.HighAt), money(r.Low), timestamp(r.LowAt))
	fmt.Fprintf(&b, "Volatility: %.4f\n", r.Volatility)
	return b.String()
}

func unavailable(b *strings.Builder, symbols []string) {
	if len(symbols) == 0 {
		return
	}
	fmt.Fprintf(b, "\n> No quote for: %s\n", strings.Join(symbols, ", "))
}

func symbolGains(gs []domain.SymbolGain) string {
	parts := make([]string, 0, len(gs))
	for _, g := range gs {
		parts = append(parts, fmt.Sprintf("%s (%s)", g.Symbol, signed(g.UnrealizedGain)))
	}
	return strings.Join(parts, ", ")
}

// cell keeps free text from breaking a table row
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func symbols(cs []domain.Contribution) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Symbol, signed(c.Contribution)))
	}
	return strings.Join(parts, ", ")
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func pct(d decimal.Decimal) string { return d.StringFixed(2) + "%" }

func date(t time.Time) string { return t.Format(domain.DateLayout) }

func timestamp(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") }

func term(p domain.HoldingPeriod) string {
	if p == domain.HoldingPeriodLongTerm {
		return "long"
	}
	return "short"
}
