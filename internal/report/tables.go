package report

import (
	"github.com/supertypeai/sectors-kb/pkg/models"
)

// Display column labels shared by the charts and the workbook.
const (
	ColSector             = "Sector"
	ColSymbol             = "Symbol"
	ColTotalMarketCap     = "Total Market Cap"
	ColPercentMarketCap   = "% Market Cap"
	ColMarketCap          = "Market Cap"
	ColMarketCapTrillion  = "Market Cap (Trillion IDR)"
	ColQuarter            = "Quarter"
	ColDate               = "Date"
	ColMarketCapChange    = "Market Cap Change"
	ColMarketCapChangePct = "Market Cap Change (%)"
	ColYear               = "Year"
	ColRevenueGrowth      = "Revenue Growth"
	ColRevenueGrowthPct   = "Revenue Growth (%)"
	ColProfit             = "Profit"
	ColProfitBillion      = "Profit (Billion IDR)"
	ColRevenue            = "Revenue"
	ColRevenueTrillion    = "Revenue (Trillion IDR)"
)

// Table is a named grid of cells with display column labels.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Records returns the rows keyed by column label.
func (t Table) Records() []Record {
	out := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(Record, len(t.Columns))
		for i, col := range t.Columns {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// MarketCapTable is the per-sector share table, Others row included.
func MarketCapTable(rows []models.MarketCapRow) Table {
	t := Table{Name: "Market Cap", Columns: []string{ColSector, ColTotalMarketCap, ColPercentMarketCap, ColMarketCapTrillion}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Sector, r.TotalMarketCap, r.PercentOfTotal, r.MarketCapTrillionIDR})
	}
	return t
}

// HistoricalMarketCapTable is the quarterly market cap series.
func HistoricalMarketCapTable(rows []models.HistoricalMarketCapRow) Table {
	t := Table{Name: "Historical Market Cap", Columns: []string{ColSector, ColQuarter, ColMarketCap, ColMarketCapTrillion}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Sector, r.Quarter, r.MarketCap, r.MarketCapTrillionIDR})
	}
	return t
}

// MarketCapChangeTable is the monthly market cap change series.
func MarketCapChangeTable(rows []models.MarketCapChangeRow) Table {
	t := Table{Name: "Market Cap Change", Columns: []string{ColSector, ColDate, ColMarketCapChange, ColMarketCapChangePct}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Sector, r.Date, r.MarketCapChange, r.MarketCapChangePercent})
	}
	return t
}

// ValuationTable carries every ratio column, labelled as in the metric selector.
func ValuationTable(rows []models.ValuationRow) Table {
	cols := make([]string, 0, len(models.ValuationMetrics)+2)
	for _, m := range models.ValuationMetrics {
		cols = append(cols, m.Label())
	}
	cols = append(cols, ColYear, ColSector)

	t := Table{Name: "Valuation", Columns: cols}
	for _, r := range rows {
		row := make([]any, 0, len(cols))
		for _, m := range models.ValuationMetrics {
			row = append(row, r.Value(m))
		}
		t.Rows = append(t.Rows, append(row, r.Year, r.Sector))
	}
	return t
}

// TopMarketCapTable ranks companies by market cap.
func TopMarketCapTable(rows []models.TopMarketCapRow) Table {
	t := Table{Name: "Top Market Cap", Columns: []string{ColSymbol, ColMarketCap, ColSector, ColMarketCapTrillion}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Symbol, r.MarketCap, r.Sector, r.MarketCapTrillionIDR})
	}
	return t
}

// TopGrowthTable ranks companies by revenue growth.
func TopGrowthTable(rows []models.TopGrowthRow) Table {
	t := Table{Name: "Top Growth", Columns: []string{ColSymbol, ColRevenueGrowth, ColSector, ColRevenueGrowthPct}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Symbol, r.RevenueGrowth, r.Sector, r.RevenueGrowthPercent})
	}
	return t
}

// TopProfitTable ranks companies by profit.
func TopProfitTable(rows []models.TopProfitRow) Table {
	t := Table{Name: "Top Profit", Columns: []string{ColSymbol, ColProfit, ColSector, ColProfitBillion}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Symbol, r.Profit, r.Sector, r.ProfitBillionIDR})
	}
	return t
}

// TopRevenueTable ranks companies by revenue.
func TopRevenueTable(rows []models.TopRevenueRow) Table {
	t := Table{Name: "Top Revenue", Columns: []string{ColSymbol, ColRevenue, ColSector, ColRevenueTrillion}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Symbol, r.Revenue, r.Sector, r.RevenueTrillionIDR})
	}
	return t
}

// AllTables lists every table of a shaping pass in workbook order.
func AllTables(st *models.SectorTables) []Table {
	return []Table{
		MarketCapTable(st.MarketCap.MarketCap),
		HistoricalMarketCapTable(st.MarketCap.Historical),
		MarketCapChangeTable(st.MarketCap.Change),
		ValuationTable(st.Valuation),
		TopMarketCapTable(st.TopCompanies.MarketCap),
		TopGrowthTable(st.TopCompanies.Growth),
		TopProfitTable(st.TopCompanies.Profit),
		TopRevenueTable(st.TopCompanies.Revenue),
	}
}
