package sectors

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// Sector report sections.
const (
	SectionMarketCap = "market_cap"
	SectionIndex     = "idx"
	SectionValuation = "valuation"
	SectionCompanies = "companies"
)

// CompanySections lists the sections accepted by the company report endpoint.
var CompanySections = []string{
	"overview", "valuation", "future", "peers",
	"financials", "dividend", "management", "ownership",
}

// DateLayout is the date format the API expects for start/end parameters.
const DateLayout = utils.DateLayout

// ValidateCompanySection returns a *ValidationError unless section is one of CompanySections.
func ValidateCompanySection(section string) error {
	for _, s := range CompanySections {
		if s == section {
			return nil
		}
	}
	return &ValidationError{
		Field:  "section",
		Value:  section,
		Reason: "must be one of " + strings.Join(CompanySections, ", "),
	}
}

// ValidateSymbol rejects an empty stock symbol.
func ValidateSymbol(symbol string) error {
	if utils.NormalizeSymbol(symbol) == "" {
		return &ValidationError{Field: "stock", Value: symbol, Reason: "must not be empty"}
	}
	return nil
}

// ValidateDateRange checks that start and end are YYYY-MM-DD and start <= end.
func ValidateDateRange(start, end string) error {
	s, err := utils.ParseDateWIB(start)
	if err != nil {
		return &ValidationError{Field: "start_date", Value: start, Reason: "must be YYYY-MM-DD"}
	}
	e, err := utils.ParseDateWIB(end)
	if err != nil {
		return &ValidationError{Field: "end_date", Value: end, Reason: "must be YYYY-MM-DD"}
	}
	if e.Before(s) {
		return &ValidationError{Field: "end_date", Value: end, Reason: "must not be before start_date " + start}
	}
	return nil
}

// ── URL builders ──

func (c *Client) endpoint(query url.Values, segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	b.WriteByte('/')
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// SubsectorsURL returns the URL listing all sub-sectors.
func (c *Client) SubsectorsURL() string {
	return c.endpoint(nil, "subsectors")
}

// SectorReportURL returns the URL of one section of a sector report.
func (c *Client) SectorReportURL(sector, section string) string {
	return c.endpoint(url.Values{"sections": {section}}, "sector", "report", sector)
}

// CompanyReportURL returns the URL of one section of a company report.
func (c *Client) CompanyReportURL(symbol, section string) string {
	return c.endpoint(url.Values{"sections": {section}}, "company", "report", symbol)
}

// MostTradedURL returns the URL of the most-traded ranking.
func (c *Client) MostTradedURL(start, end string, n int) string {
	return c.endpoint(url.Values{
		"start":   {start},
		"end":     {end},
		"n_stock": {strconv.Itoa(n)},
	}, "most-traded")
}

// DailyURL returns the URL of daily transactions for a symbol.
func (c *Client) DailyURL(symbol, start, end string) string {
	return c.endpoint(url.Values{"start": {start}, "end": {end}}, "daily", symbol)
}

// ── Endpoint calls ──

// Subsectors returns the sorted list of sub-sector slugs.
func (c *Client) Subsectors(ctx context.Context) ([]string, error) {
	body, err := c.Fetch(ctx, c.SubsectorsURL())
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &MalformedReportError{Section: "subsectors", Detail: "expected a list of sub-sector names: " + err.Error()}
	}
	sort.Strings(list)
	return list, nil
}

// SectorReport returns the raw JSON of one section of a sector report.
func (c *Client) SectorReport(ctx context.Context, sector, section string) (json.RawMessage, error) {
	return c.Fetch(ctx, c.SectorReportURL(sector, section))
}

// CompanyReport returns the raw JSON of one section of a company report.
// The section is validated before any request is made.
func (c *Client) CompanyReport(ctx context.Context, symbol, section string) (json.RawMessage, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if err := ValidateCompanySection(section); err != nil {
		return nil, err
	}
	return c.Fetch(ctx, c.CompanyReportURL(utils.NormalizeSymbol(symbol), section))
}

// MostTraded returns the raw JSON of the top n companies by transaction volume.
func (c *Client) MostTraded(ctx context.Context, start, end string, n int) (json.RawMessage, error) {
	if err := ValidateDateRange(start, end); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, &ValidationError{Field: "top_n", Value: strconv.Itoa(n), Reason: "must be at least 1"}
	}
	return c.Fetch(ctx, c.MostTradedURL(start, end, n))
}

// DailyTransactions returns the raw JSON of daily transactions for symbol.
func (c *Client) DailyTransactions(ctx context.Context, symbol, start, end string) (json.RawMessage, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if err := ValidateDateRange(start, end); err != nil {
		return nil, err
	}
	return c.Fetch(ctx, c.DailyURL(utils.NormalizeSymbol(symbol), start, end))
}
