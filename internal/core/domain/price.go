package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPriceTable is returned when seed rows cannot form a price table.
var ErrInvalidPriceTable = errors.New("domain: invalid price table")

// MarketPriceEntry is one commodity row of the mandi price table.
type MarketPriceEntry struct {
	Commodity    string          `json:"commodity"`
	Price        decimal.Decimal `json:"price"`
	Unit         string          `json:"unit"`
	SourceMarket string          `json:"market"`
}

// PriceTable is an ordered, read-only set of commodity prices.
// The zero value is an empty table.
type PriceTable struct {
	entries []MarketPriceEntry
	index   map[string]int
}

// NewPriceTable validates the rows and freezes them in the given order.
// Commodity keys are lowercased; duplicates and non-positive prices are rejected.
func NewPriceTable(rows []MarketPriceEntry) (*PriceTable, error) {
	t := &PriceTable{
		entries: make([]MarketPriceEntry, 0, len(rows)),
		index:   make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.Commodity))
		if key == "" {
			return nil, fmt.Errorf("%w: row %d has no commodity", ErrInvalidPriceTable, i)
		}
		if !row.Price.IsPositive() {
			return nil, fmt.Errorf("%w: %s price must be positive", ErrInvalidPriceTable, key)
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate commodity %s", ErrInvalidPriceTable, key)
		}
		row.Commodity = key
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, row)
	}
	return t, nil
}

// Entries returns a copy of the rows in table order.
func (t *PriceTable) Entries() []MarketPriceEntry {
	if t == nil {
		return nil
	}
	out := make([]MarketPriceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup finds a commodity by its lowercase key.
func (t *PriceTable) Lookup(commodity string) (MarketPriceEntry, bool) {
	if t == nil {
		return MarketPriceEntry{}, false
	}
	i, ok := t.index[strings.ToLower(commodity)]
	if !ok {
		return MarketPriceEntry{}, false
	}
	return t.entries[i], true
}

// Len reports the number of commodities.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// DefaultPriceRows is the demo mandi table shipped with the service.
func DefaultPriceRows() []MarketPriceEntry {
	return []MarketPriceEntry{
		{Commodity: "wheat", Price: decimal.NewFromInt(2350), Unit: "quintal", SourceMarket: "Punjab"},
		{Commodity: "rice", Price: decimal.NewFromInt(3200), Unit: "quintal", SourceMarket: "Haryana"},
		{Commodity: "maize", Price: decimal.NewFromInt(2100), Unit: "quintal", SourceMarket: "UP"},
		{Commodity: "potato", Price: decimal.NewFromInt(1200), Unit: "quintal", SourceMarket: "West Bengal"},
	}
}
