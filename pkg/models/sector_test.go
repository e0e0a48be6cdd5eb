package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValuationMetricLabels(t *testing.T) {
	want := map[ValuationMetric]string{
		MetricPriceBook:     "Price/Book Ratio",
		MetricPriceEarning:  "Price/Earning Ratio",
		MetricPriceSales:    "Price/Sales Ratio",
		MetricPriceCashFlow: "Price/Cash Flow Ratio",
	}
	for m, label := range want {
		if !m.Valid() {
			t.Errorf("%s: Valid() = false", m)
		}
		if got := m.Label(); got != label {
			t.Errorf("%s: Label() = %q, want %q", m, got, label)
		}
	}
	if len(ValuationMetrics) != len(want) {
		t.Errorf("ValuationMetrics has %d entries, want %d", len(ValuationMetrics), len(want))
	}

	bad := ValuationMetric("ev_ebitda")
	if bad.Valid() || bad.Label() != "" {
		t.Errorf("unknown metric should be invalid with empty label")
	}
}

func TestValuationRowValue(t *testing.T) {
	r := ValuationRow{Sector: "banks", Year: 2023, PriceBookRatio: 1, PriceEarningRatio: 2, PriceSalesRatio: 3, PriceCashFlowRatio: 4}
	for i, m := range ValuationMetrics {
		if got := r.Value(m); got != float64(i+1) {
			t.Errorf("Value(%s) = %v, want %d", m, got, i+1)
		}
	}
	if got := r.Value("nope"); got != 0 {
		t.Errorf("Value(unknown) = %v, want 0", got)
	}
}

func TestRowJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(MarketCapChangeRow{Sector: "banks", Date: "2024-01-31", MarketCapChange: 0.01, MarketCapChangePercent: 1})
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	for _, key := range []string{`"sector"`, `"date"`, `"market_cap_change"`, `"market_cap_change_percent"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("missing key %s in %s", key, data)
		}
	}
}
