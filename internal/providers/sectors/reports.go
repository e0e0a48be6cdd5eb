package sectors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Point is one key/value pair of an ordered JSON object such as
// {"2023-Q1": 1.2e15, "2023-Q2": 1.3e15}.
type Point struct {
	Key   string
	Value float64
}

// Series is a JSON object of numbers decoded in document order.
type Series []Point

// UnmarshalJSON keeps the upstream key order and rejects null or non-numeric values.
func (s *Series) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected an object, got %v", tok)
	}

	out := Series{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var v *float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if v == nil {
			return fmt.Errorf("%s: null value", key)
		}
		out = append(out, Point{Key: key, Value: *v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// ── Market cap section ──

// MarketCapReport is the market_cap section of a sector report.
type MarketCapReport struct {
	SubSector          string
	TotalMarketCap     float64
	PrevTTM            Series // quarterly_market_cap.prev_ttm_mcap
	CurrentTTM         Series // quarterly_market_cap.current_ttm_mcap
	MonthlyPerformance Series // mcap_summary.monthly_performance, fractions
}

type rawMarketCap struct {
	SubSector *string `json:"sub_sector"`
	MarketCap *struct {
		TotalMarketCap *float64 `json:"total_market_cap"`
		Quarterly      *struct {
			Prev    *Series `json:"prev_ttm_mcap"`
			Current *Series `json:"current_ttm_mcap"`
		} `json:"quarterly_market_cap"`
		Summary *struct {
			Monthly *Series `json:"monthly_performance"`
		} `json:"mcap_summary"`
	} `json:"market_cap"`
}

// DecodeMarketCap parses a market_cap section. sector is the requested slug,
// used only for error messages.
func DecodeMarketCap(sector string, body []byte) (*MarketCapReport, error) {
	var raw rawMarketCap
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed(sector, SectionMarketCap, "", err.Error())
	}
	name, err := subSector(sector, SectionMarketCap, raw.SubSector)
	if err != nil {
		return nil, err
	}
	mc := raw.MarketCap
	switch {
	case mc == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap")
	case mc.TotalMarketCap == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap.total_market_cap")
	case mc.Quarterly == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap.quarterly_market_cap")
	case mc.Quarterly.Prev == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap.quarterly_market_cap.prev_ttm_mcap")
	case mc.Quarterly.Current == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap.quarterly_market_cap.current_ttm_mcap")
	case mc.Summary == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap.mcap_summary")
	case mc.Summary.Monthly == nil:
		return nil, missing(sector, SectionMarketCap, "market_cap.mcap_summary.monthly_performance")
	}
	return &MarketCapReport{
		SubSector:          name,
		TotalMarketCap:     *mc.TotalMarketCap,
		PrevTTM:            *mc.Quarterly.Prev,
		CurrentTTM:         *mc.Quarterly.Current,
		MonthlyPerformance: *mc.Summary.Monthly,
	}, nil
}

// ── IDX section ──

// IndexReport is the idx section of a sector report.
type IndexReport struct {
	SubSector string
	IndexCap  float64 // idx.idx_cap, total market cap of the exchange
}

// DecodeIndex parses an idx section.
func DecodeIndex(sector string, body []byte) (*IndexReport, error) {
	var raw struct {
		SubSector *string `json:"sub_sector"`
		Idx       *struct {
			IdxCap *float64 `json:"idx_cap"`
		} `json:"idx"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed(sector, SectionIndex, "", err.Error())
	}
	name, err := subSector(sector, SectionIndex, raw.SubSector)
	if err != nil {
		return nil, err
	}
	if raw.Idx == nil {
		return nil, missing(sector, SectionIndex, "idx")
	}
	if raw.Idx.IdxCap == nil {
		return nil, missing(sector, SectionIndex, "idx.idx_cap")
	}
	return &IndexReport{SubSector: name, IndexCap: *raw.Idx.IdxCap}, nil
}

// ── Valuation section ──

// ValuationPoint is one year of a sector's valuation history.
type ValuationPoint struct {
	Year int
	PB   float64
	PE   float64
	PS   float64
	PCF  float64
}

// ValuationReport is the valuation section of a sector report.
type ValuationReport struct {
	SubSector string
	History   []ValuationPoint
}

// ValuationRankColumns are dropped when present.
var ValuationRankColumns = []string{"pb_rank", "pe_rank", "ps_rank", "pcf_rank"}

// DecodeValuation parses a valuation section. Columns are matched by name;
// rank columns are optional and ignored.
func DecodeValuation(sector string, body []byte) (*ValuationReport, error) {
	var raw struct {
		SubSector *string `json:"sub_sector"`
		Valuation *struct {
			History *[]map[string]json.RawMessage `json:"historical_valuation"`
		} `json:"valuation"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed(sector, SectionValuation, "", err.Error())
	}
	name, err := subSector(sector, SectionValuation, raw.SubSector)
	if err != nil {
		return nil, err
	}
	if raw.Valuation == nil {
		return nil, missing(sector, SectionValuation, "valuation")
	}
	if raw.Valuation.History == nil {
		return nil, missing(sector, SectionValuation, "valuation.historical_valuation")
	}

	rows := *raw.Valuation.History
	report := &ValuationReport{SubSector: name, History: make([]ValuationPoint, 0, len(rows))}
	for i, row := range rows {
		for _, rank := range ValuationRankColumns {
			delete(row, rank)
		}
		field := func(col string) string {
			return fmt.Sprintf("valuation.historical_valuation[%d].%s", i, col)
		}

		var p ValuationPoint
		if p.Year, err = yearColumn(row, "year"); err != nil {
			return nil, malformed(sector, SectionValuation, field("year"), err.Error())
		}
		for col, dst := range map[string]*float64{"pb": &p.PB, "pe": &p.PE, "ps": &p.PS, "pcf": &p.PCF} {
			if *dst, err = numberColumn(row, col); err != nil {
				return nil, malformed(sector, SectionValuation, field(col), err.Error())
			}
		}
		report.History = append(report.History, p)
	}
	return report, nil
}

// ── Companies section ──

// RankedCompany is one entry of a top-companies list.
type RankedCompany struct {
	Symbol string
	Value  float64
}

// Top-company categories with the list key and the metric column of each entry.
const (
	TopMarketCap = "top_mcap"
	TopGrowth    = "top_growth"
	TopProfit    = "top_profit"
	TopRevenue   = "top_revenue"
)

// TopCompanyMetric maps a category to the metric column its entries carry.
var TopCompanyMetric = map[string]string{
	TopMarketCap: "market_cap",
	TopGrowth:    "revenue_growth",
	TopProfit:    "profit",
	TopRevenue:   "revenue",
}

// TopCompanyCategories lists the categories in display order.
var TopCompanyCategories = []string{TopMarketCap, TopGrowth, TopProfit, TopRevenue}

// CompaniesReport is the companies section of a sector report.
type CompaniesReport struct {
	SubSector string
	Top       map[string][]RankedCompany // keyed by category
}

// DecodeCompanies parses a companies section. All four categories must be present.
func DecodeCompanies(sector string, body []byte) (*CompaniesReport, error) {
	var raw struct {
		SubSector *string `json:"sub_sector"`
		Companies *struct {
			Top map[string]*[]map[string]json.RawMessage `json:"top_companies"`
		} `json:"companies"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed(sector, SectionCompanies, "", err.Error())
	}
	name, err := subSector(sector, SectionCompanies, raw.SubSector)
	if err != nil {
		return nil, err
	}
	if raw.Companies == nil {
		return nil, missing(sector, SectionCompanies, "companies")
	}
	if raw.Companies.Top == nil {
		return nil, missing(sector, SectionCompanies, "companies.top_companies")
	}

	report := &CompaniesReport{SubSector: name, Top: make(map[string][]RankedCompany, len(TopCompanyCategories))}
	for _, cat := range TopCompanyCategories {
		list := raw.Companies.Top[cat]
		if list == nil {
			return nil, missing(sector, SectionCompanies, "companies.top_companies."+cat)
		}
		metric := TopCompanyMetric[cat]
		ranked := make([]RankedCompany, 0, len(*list))
		for i, entry := range *list {
			field := fmt.Sprintf("companies.top_companies.%s[%d]", cat, i)
			symbol, err := stringColumn(entry, "symbol")
			if err != nil {
				return nil, malformed(sector, SectionCompanies, field+".symbol", err.Error())
			}
			value, err := numberColumn(entry, metric)
			if err != nil {
				return nil, malformed(sector, SectionCompanies, field+"."+metric, err.Error())
			}
			ranked = append(ranked, RankedCompany{Symbol: symbol, Value: value})
		}
		report.Top[cat] = ranked
	}
	return report, nil
}

// ── helpers ──

func malformed(sector, section, field, detail string) *MalformedReportError {
	return &MalformedReportError{Sector: sector, Section: section, Field: field, Detail: detail}
}

func missing(sector, section, field string) *MalformedReportError {
	return malformed(sector, section, field, "missing")
}

func subSector(sector, section string, v *string) (string, error) {
	if v == nil || *v == "" {
		return "", missing(sector, section, "sub_sector")
	}
	return *v, nil
}

func numberColumn(row map[string]json.RawMessage, col string) (float64, error) {
	raw, ok := row[col]
	if !ok {
		return 0, fmt.Errorf("missing")
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	if v == nil {
		return 0, fmt.Errorf("null value")
	}
	return *v, nil
}

func stringColumn(row map[string]json.RawMessage, col string) (string, error) {
	raw, ok := row[col]
	if !ok {
		return "", fmt.Errorf("missing")
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil || v == "" {
		return "", fmt.Errorf("not a non-empty string: %s", raw)
	}
	return v, nil
}

// yearColumn accepts 2023 as well as "2023".
func yearColumn(row map[string]json.RawMessage, col string) (int, error) {
	raw, ok := row[col]
	if !ok {
		return 0, fmt.Errorf("missing")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("not a year: %s", raw)
}
