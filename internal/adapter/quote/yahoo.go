package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// DefaultYahooBaseURL is the Yahoo Finance v8 chart endpoint
const DefaultYahooBaseURL = "https://query2.finance.yahoo.com/v8/finance/chart/"

// Yahoo fetches the latest market price from the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewYahoo creates a new Yahoo gateway. An empty baseURL selects DefaultYahooBaseURL.
func NewYahoo(baseURL string, log zerolog.Logger) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &Yahoo{
		client:  &http.Client{Timeout: 8 * time.Second},
		baseURL: baseURL,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

type chartMeta struct {
	RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
	RegularMarketTime  int64               `json:"regularMarketTime"`
	PreviousClose      decimal.NullDecimal `json:"previousClose"`
	ChartPreviousClose decimal.NullDecimal `json:"chartPreviousClose"` // Close before the first bar of the range
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       chartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []decimal.NullDecimal `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote implements domain.QuoteGateway
func (y *Yahoo) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.Quote{}, fmt.Errorf("%w: empty symbol", domain.ErrNoQuote)
	}

	reqURL := y.baseURL + url.PathEscape(symbol) + "?interval=1d&range=5d"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "lotwise/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrNoQuote, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("yahoo http %d for %s", resp.StatusCode, symbol)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Quote{}, fmt.Errorf("failed to decode yahoo response: %w", err)
	}
	if raw.Chart.Error != nil {
		return domain.Quote{}, fmt.Errorf("%w: %s: %s", domain.ErrNoQuote, symbol, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 {
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrNoQuote, symbol)
	}

	r := raw.Chart.Result[0]
	price := r.Meta.RegularMarketPrice.Decimal
	valid := r.Meta.RegularMarketPrice.Valid && price.IsPositive()
	asOf := time.Unix(r.Meta.RegularMarketTime, 0).UTC()

	var closes []decimal.NullDecimal
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	// Fall back to the last non-empty close
	if !valid {
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i].Valid && closes[i].Decimal.IsPositive() {
				price, valid = closes[i].Decimal, true
				if i < len(r.Timestamp) {
					asOf = time.Unix(r.Timestamp[i], 0).UTC()
				}
				break
			}
		}
	}
	if !valid {
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrNoQuote, symbol)
	}

	prev := previousClose(r.Meta, closes)
	y.log.Debug().Str("symbol", symbol).Str("price", price.String()).Str("previous_close", prev.String()).Msg("quote fetched")
	return domain.Quote{Symbol: symbol, Price: price, PreviousClose: prev, Timestamp: asOf}, nil
}

// previousClose prefers the reported previous close, then the daily close
// before the latest one, then the close before the chart range. Zero when
// none is known.
func previousClose(meta chartMeta, closes []decimal.NullDecimal) decimal.Decimal {
	if meta.PreviousClose.Valid && meta.PreviousClose.Decimal.IsPositive() {
		return meta.PreviousClose.Decimal
	}
	latest := true
	for i := len(closes) - 1; i >= 0; i-- {
		if !closes[i].Valid || !closes[i].Decimal.IsPositive() {
			continue
		}
		if !latest {
			return closes[i].Decimal
		}
		latest = false
	}
	if meta.ChartPreviousClose.Valid && meta.ChartPreviousClose.Decimal.IsPositive() {
		return meta.ChartPreviousClose.Decimal
	}
	return decimal.Zero
}
