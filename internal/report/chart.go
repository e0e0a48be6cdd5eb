// Package report renders shaped sector tables: Vega-Lite chart specs for the
// dashboard, the dashboard page itself and XLSX workbooks for export.
package report

import (
	"strings"

	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/pkg/models"
)

// Color schemes.
const (
	SchemeShare  = "reds"
	SchemeSeries = "lightgreyred"
)

// ════════════════════════════════════════════════════════════════════
// Market Cap
// ════════════════════════════════════════════════════════════════════

// MarketCapCharts is the chart set of the Market Cap section.
type MarketCapCharts struct {
	Share      Spec `json:"share"`
	Historical Spec `json:"historical"`
	Change     Spec `json:"change"`
}

// BuildMarketCapCharts returns the share arc chart, the quarterly line chart
// and the monthly change line chart.
func BuildMarketCapCharts(t models.MarketCapTables) MarketCapCharts {
	share := Spec{
		Schema: VegaLiteSchema,
		Title:  "% Market Cap of Each Sector of the Total IDX Market Cap",
		Width:  400,
		Data:   Data{Values: MarketCapTable(t.MarketCap).Records()},
		Mark:   Mark{Type: "arc"},
		Encoding: Encoding{
			Theta: quant(ColPercentMarketCap),
			Color: &Channel{
				Field: ColSector,
				Type:  Nominal,
				Scale: &Scale{Scheme: SchemeShare},
				Sort:  SortField{Field: ColPercentMarketCap, Order: "ascending"},
			},
			Tooltip: []Channel{
				tip(ColSector, Nominal, ""),
				tip(ColPercentMarketCap, Quantitative, ".2f"),
				tip(ColMarketCapTrillion, Quantitative, ",.2f"),
			},
		},
	}

	historical := Spec{
		Schema: VegaLiteSchema,
		Title:  "Historical Market Cap Across Sectors",
		Width:  500,
		Data:   Data{Values: HistoricalMarketCapTable(t.Historical).Records()},
		Mark:   Mark{Type: "line", Point: true},
		Encoding: Encoding{
			X:     &Channel{Field: ColQuarter, Type: Nominal, Axis: &Axis{LabelAngle: 0}},
			Y:     quant(ColMarketCapTrillion),
			Color: sectorColor(SchemeSeries),
			Tooltip: []Channel{
				tip(ColSector, Nominal, ""),
				tip(ColQuarter, Nominal, ""),
				tip(ColMarketCapTrillion, Quantitative, ".2f"),
			},
		},
	}

	change := Spec{
		Schema: VegaLiteSchema,
		Title:  "Historical Market Cap Change Across Sectors",
		Width:  900,
		Data:   Data{Values: MarketCapChangeTable(t.Change).Records()},
		Mark:   Mark{Type: "line", Point: true},
		Encoding: Encoding{
			X:     &Channel{Field: ColDate, Type: Temporal},
			Y:     quant(ColMarketCapChangePct),
			Color: sectorColor(SchemeSeries),
			Tooltip: []Channel{
				tip(ColSector, Nominal, ""),
				tip(ColDate, Temporal, ""),
				tip(ColMarketCapChangePct, Quantitative, ".2f"),
			},
		},
	}

	return MarketCapCharts{Share: share, Historical: historical, Change: change}
}

// ════════════════════════════════════════════════════════════════════
// Valuation
// ════════════════════════════════════════════════════════════════════

// ParseMetric accepts a metric key ("price_book") or its display label
// ("Price/Book Ratio"). An empty string selects the first metric.
func ParseMetric(s string) (models.ValuationMetric, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.ValuationMetrics[0], nil
	}
	for _, m := range models.ValuationMetrics {
		if string(m) == s || strings.EqualFold(m.Label(), s) {
			return m, nil
		}
	}
	labels := make([]string, 0, len(models.ValuationMetrics))
	for _, m := range models.ValuationMetrics {
		labels = append(labels, string(m))
	}
	return "", &sectors.ValidationError{
		Field:  "metric",
		Value:  s,
		Reason: "must be one of " + strings.Join(labels, ", "),
	}
}

// BuildValuationChart returns the line chart of one valuation metric over years.
func BuildValuationChart(rows []models.ValuationRow, metric models.ValuationMetric) (Spec, error) {
	if !metric.Valid() {
		_, err := ParseMetric(string(metric))
		return Spec{}, err
	}
	label := metric.Label()

	return Spec{
		Schema: VegaLiteSchema,
		Title:  label + " Across Sectors",
		Width:  900,
		Data:   Data{Values: ValuationTable(rows).Records()},
		Mark:   Mark{Type: "line", Point: true},
		Encoding: Encoding{
			X:     &Channel{Field: ColYear, Type: Nominal, Axis: &Axis{LabelAngle: 0}},
			Y:     quant(label),
			Color: sectorColor(SchemeSeries),
			Tooltip: []Channel{
				tip(ColSector, Nominal, ""),
				tip(ColYear, Nominal, ""),
				tip(label, Quantitative, ".2f"),
			},
		},
	}, nil
}

// ════════════════════════════════════════════════════════════════════
// Top Companies
// ════════════════════════════════════════════════════════════════════

// TopCompanyCharts is the chart set of the Top Companies tabs.
type TopCompanyCharts struct {
	MarketCap Spec `json:"market_cap"`
	Growth    Spec `json:"growth"`
	Profit    Spec `json:"profit"`
	Revenue   Spec `json:"revenue"`
}

// BuildTopCompanyCharts returns one horizontal bar chart per ranking, bars
// sorted by value descending.
func BuildTopCompanyCharts(t models.TopCompanyTables) TopCompanyCharts {
	return TopCompanyCharts{
		MarketCap: rankingBar("Top Companies based on Market Cap Across Sectors",
			TopMarketCapTable(t.MarketCap), ColMarketCapTrillion, ".2f"),
		Growth: rankingBar("Top Companies based on Revenue Growth Across Sectors",
			TopGrowthTable(t.Growth), ColRevenueGrowthPct, ",.2f"),
		Profit: rankingBar("Top Companies based on Profit Across Sectors",
			TopProfitTable(t.Profit), ColProfitBillion, ",.2f"),
		Revenue: rankingBar("Top Companies based on Revenue Across Sectors",
			TopRevenueTable(t.Revenue), ColRevenueTrillion, ",.2f"),
	}
}

func rankingBar(title string, t Table, valueCol, format string) Spec {
	return Spec{
		Schema: VegaLiteSchema,
		Title:  title,
		Width:  900,
		Height: 500,
		Data:   Data{Values: t.Records()},
		Mark:   Mark{Type: "bar"},
		Encoding: Encoding{
			X:     quant(valueCol),
			Y:     &Channel{Field: ColSymbol, Type: Nominal, Sort: "-x"},
			Color: sectorColor(SchemeSeries),
			Tooltip: []Channel{
				tip(ColSector, Nominal, ""),
				tip(ColSymbol, Nominal, ""),
				tip(valueCol, Quantitative, format),
			},
		},
	}
}
