// Package rowcodec converts between domain values and the column encodings
// shared by the SQL repositories.
package rowcodec

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// breakdownRow is the stored form of one domain.SymbolValue.
// Decimals are kept as strings so no precision is lost.
type breakdownRow struct {
	Symbol string `msgpack:"s"`
	Shares string `msgpack:"q"`
	Price  string `msgpack:"p"`
	Value  string `msgpack:"v"`

	Unpriced bool `msgpack:"u,omitempty"`
}

// EncodeBreakdown serializes a snapshot breakdown for a BLOB/BYTEA column
func EncodeBreakdown(values []domain.SymbolValue) ([]byte, error) {
	rows := make([]breakdownRow, 0, len(values))
	for _, v := range values {
		rows = append(rows, breakdownRow{
			Symbol: v.Symbol,
			Shares: v.Shares.String(),
			Price:  v.Price.String(),
			Value:  v.Value.String(),

			Unpriced: v.Unpriced,
		})
	}
	b, err := msgpack.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode breakdown: %w", err)
	}
	return b, nil
}

// DecodeBreakdown is the inverse of EncodeBreakdown. Empty input decodes to nil.
func DecodeBreakdown(b []byte) ([]domain.SymbolValue, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var rows []breakdownRow
	if err := msgpack.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown: %w", err)
	}

	var out []domain.SymbolValue
	for _, r := range rows {
		v := domain.SymbolValue{Symbol: r.Symbol, Unpriced: r.Unpriced}
		var err error
		if v.Shares, err = Decimal("breakdown shares", r.Shares); err != nil {
			return nil, err
		}
		if v.Price, err = Decimal("breakdown price", r.Price); err != nil {
			return nil, err
		}
		if v.Value, err = Decimal("breakdown value", r.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Decimal parses a DECIMAL/TEXT column, naming the column on failure
func Decimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}

// Decimals parses several columns at once. dst and src pair up by index.
func Decimals(columns []string, src []string, dst ...*decimal.Decimal) error {
	for i := range dst {
		d, err := Decimal(columns[i], src[i])
		if err != nil {
			return err
		}
		*dst[i] = d
	}
	return nil
}
