// Package models defines the flat row tables derived from Sectors API reports.
package models

// OthersSector labels the synthetic market-cap row holding the rest of the exchange.
const OthersSector = "Others"

// MarketCapRow is one slice of the market-cap pie.
type MarketCapRow struct {
	Sector               string  `json:"sector"`
	TotalMarketCap       float64 `json:"total_market_cap"` // IDR
	PercentOfTotal       float64 `json:"percent_of_total"` // 0..100
	MarketCapTrillionIDR float64 `json:"market_cap_trillion_idr"`
}

// HistoricalMarketCapRow is one quarter of a sector's trailing market cap.
type HistoricalMarketCapRow struct {
	Sector               string  `json:"sector"`
	Quarter              string  `json:"quarter"`    // e.g. "2023-Q4"
	MarketCap            float64 `json:"market_cap"` // IDR
	MarketCapTrillionIDR float64 `json:"market_cap_trillion_idr"`
}

// MarketCapChangeRow is one month of a sector's market-cap performance.
type MarketCapChangeRow struct {
	Sector                 string  `json:"sector"`
	Date                   string  `json:"date"`              // YYYY-MM-DD
	MarketCapChange        float64 `json:"market_cap_change"` // fraction, 0.01 = 1%
	MarketCapChangePercent float64 `json:"market_cap_change_percent"`
}

// ValuationRow is one year of a sector's valuation ratios.
type ValuationRow struct {
	Sector             string  `json:"sector"`
	Year               int     `json:"year"`
	PriceBookRatio     float64 `json:"price_book_ratio"`
	PriceEarningRatio  float64 `json:"price_earning_ratio"`
	PriceSalesRatio    float64 `json:"price_sales_ratio"`
	PriceCashFlowRatio float64 `json:"price_cash_flow_ratio"`
}

// ValuationMetric selects one ratio column of ValuationRow.
type ValuationMetric string

const (
	MetricPriceBook     ValuationMetric = "price_book"
	MetricPriceEarning  ValuationMetric = "price_earning"
	MetricPriceSales    ValuationMetric = "price_sales"
	MetricPriceCashFlow ValuationMetric = "price_cash_flow"
)

// ValuationMetrics lists the metrics in display order.
var ValuationMetrics = []ValuationMetric{
	MetricPriceBook, MetricPriceEarning, MetricPriceSales, MetricPriceCashFlow,
}

var metricLabels = map[ValuationMetric]string{
	MetricPriceBook:     "Price/Book Ratio",
	MetricPriceEarning:  "Price/Earning Ratio",
	MetricPriceSales:    "Price/Sales Ratio",
	MetricPriceCashFlow: "Price/Cash Flow Ratio",
}

// Label returns the display label, or "" for an unknown metric.
func (m ValuationMetric) Label() string { return metricLabels[m] }

// Valid reports whether m is one of ValuationMetrics.
func (m ValuationMetric) Valid() bool {
	_, ok := metricLabels[m]
	return ok
}

// Value returns the ratio of r selected by m.
func (r ValuationRow) Value(m ValuationMetric) float64 {
	switch m {
	case MetricPriceBook:
		return r.PriceBookRatio
	case MetricPriceEarning:
		return r.PriceEarningRatio
	case MetricPriceSales:
		return r.PriceSalesRatio
	case MetricPriceCashFlow:
		return r.PriceCashFlowRatio
	}
	return 0
}

// TopMarketCapRow is one company in a sector's top market-cap list.
type TopMarketCapRow struct {
	Symbol               string  `json:"symbol"`
	Sector               string  `json:"sector"`
	MarketCap            float64 `json:"market_cap"`
	MarketCapTrillionIDR float64 `json:"market_cap_trillion_idr"`
}

// TopGrowthRow is one company in a sector's top revenue-growth list.
type TopGrowthRow struct {
	Symbol               string  `json:"symbol"`
	Sector               string  `json:"sector"`
	RevenueGrowth        float64 `json:"revenue_growth"` // fraction
	RevenueGrowthPercent float64 `json:"revenue_growth_percent"`
}

// TopProfitRow is one company in a sector's top profit list.
type TopProfitRow struct {
	Symbol           string  `json:"symbol"`
	Sector           string  `json:"sector"`
	Profit           float64 `json:"profit"`
	ProfitBillionIDR float64 `json:"profit_billion_idr"`
}

// TopRevenueRow is one company in a sector's top revenue list.
type TopRevenueRow struct {
	Symbol             string  `json:"symbol"`
	Sector             string  `json:"sector"`
	Revenue            float64 `json:"revenue"`
	RevenueTrillionIDR float64 `json:"revenue_trillion_idr"`
}

// MarketCapTables groups the outputs of one market-cap shaping pass.
type MarketCapTables struct {
	MarketCap  []MarketCapRow           `json:"market_cap"`
	Historical []HistoricalMarketCapRow `json:"historical"`
	Change     []MarketCapChangeRow     `json:"change"`
}

// TopCompanyTables groups the four ranked company lists of one shaping pass.
type TopCompanyTables struct {
	MarketCap []TopMarketCapRow `json:"top_market_cap"`
	Growth    []TopGrowthRow    `json:"top_growth"`
	Profit    []TopProfitRow    `json:"top_profit"`
	Revenue   []TopRevenueRow   `json:"top_revenue"`
}

// SectorTables is every table shaped for one sector selection.
type SectorTables struct {
	Sectors      []string         `json:"sectors"`
	MarketCap    MarketCapTables  `json:"market_cap"`
	Valuation    []ValuationRow   `json:"valuation"`
	TopCompanies TopCompanyTables `json:"top_companies"`
}
