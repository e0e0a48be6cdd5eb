package shaper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/pkg/models"
)

// fakeSource serves canned bodies keyed by "sector/section" and records calls.
type fakeSource struct {
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func (f *fakeSource) SectorReport(_ context.Context, sector, section string) (json.RawMessage, error) {
	key := sector + "/" + section
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	body, ok := f.bodies[key]
	if !ok {
		return nil, &sectors.RemoteRequestError{URL: key, StatusCode: 404}
	}
	return json.RawMessage(body), nil
}

func marketCapJSON(sector string, total float64, prev, current, monthly string) string {
	return fmt.Sprintf(`{"sub_sector":%q,"market_cap":{"total_market_cap":%g,
	  "quarterly_market_cap":{"prev_ttm_mcap":%s,"current_ttm_mcap":%s},
	  "mcap_summary":{"monthly_performance":%s}}}`, sector, total, prev, current, monthly)
}

func idxJSON(sector string, cap float64) string {
	return fmt.Sprintf(`{"sub_sector":%q,"idx":{"idx_cap":%g}}`, sector, cap)
}

func twoSectorSource() *fakeSource {
	return &fakeSource{bodies: map[string]string{
		"banks/market_cap": marketCapJSON("banks", 100,
			`{"2023-Q3":1.0e12,"2023-Q4":1.5e12}`, `{"2024-Q1":2.0e12}`, `{"2024-01-31":0.0125}`),
		"tobacco/market_cap": marketCapJSON("tobacco", 100,
			`{"2023-Q4":5.0e11}`, `{"2024-Q1":6.0e11}`, `{"2024-01-31":-0.02,"2024-02-29":0.01}`),
		"banks/idx":   idxJSON("banks", 300),
		"tobacco/idx": idxJSON("tobacco", 999),
	}}
}

// ── MarketCap ──

func TestMarketCapTwoSectors(t *testing.T) {
	src := twoSectorSource()
	out, err := New(src).MarketCap(context.Background(), []string{"banks", "tobacco"})
	require.NoError(t, err)

	require.Len(t, out.MarketCap, 3)
	assert.Equal(t, []string{"banks", "tobacco", models.OthersSector},
		[]string{out.MarketCap[0].Sector, out.MarketCap[1].Sector, out.MarketCap[2].Sector})
	for _, row := range out.MarketCap {
		assert.Equal(t, 100.0, row.TotalMarketCap)
		assert.InDelta(t, 33.333333, row.PercentOfTotal, 1e-4)
	}
}

func TestMarketCapIndexFromFirstSectorOnly(t *testing.T) {
	src := twoSectorSource()
	_, err := New(src).MarketCap(context.Background(), []string{"banks", "tobacco"})
	require.NoError(t, err)

	assert.Equal(t, []string{"banks/market_cap", "tobacco/market_cap", "banks/idx"}, src.calls)
}

func TestMarketCapPercentagesSumTo100(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"a/market_cap": marketCapJSON("a", 1.234e15, `{}`, `{}`, `{}`),
		"b/market_cap": marketCapJSON("b", 7.77e14, `{}`, `{}`, `{}`),
		"c/market_cap": marketCapJSON("c", 3.3e13, `{}`, `{}`, `{}`),
		"a/idx":        idxJSON("a", 1.2e16),
	}}
	out, err := New(src).MarketCap(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	var sumPct, sumSelected float64
	for _, row := range out.MarketCap {
		sumPct += row.PercentOfTotal
		if row.Sector != models.OthersSector {
			sumSelected += row.TotalMarketCap
		}
		assert.False(t, math.IsNaN(row.PercentOfTotal) || math.IsInf(row.PercentOfTotal, 0))
	}
	assert.InDelta(t, 100, sumPct, 1e-6)

	others := out.MarketCap[len(out.MarketCap)-1]
	assert.Equal(t, models.OthersSector, others.Sector)
	assert.InDelta(t, 1.2e16-sumSelected, others.TotalMarketCap, 1)
}

func TestMarketCapUnitConversions(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/market_cap": marketCapJSON("banks", 2.5e15, `{}`, `{}`, `{}`),
		"banks/idx":        idxJSON("banks", 1.0e16),
	}}
	out, err := New(src).MarketCap(context.Background(), []string{"banks"})
	require.NoError(t, err)

	assert.Equal(t, 2500.0, out.MarketCap[0].MarketCapTrillionIDR)
	assert.Equal(t, 25.0, out.MarketCap[0].PercentOfTotal)
	assert.Equal(t, 7500.0, out.MarketCap[1].MarketCapTrillionIDR)
}

func TestMarketCapHistoricalAndChangeOrder(t *testing.T) {
	src := twoSectorSource()
	out, err := New(src).MarketCap(context.Background(), []string{"banks", "tobacco"})
	require.NoError(t, err)

	assert.Equal(t, []models.HistoricalMarketCapRow{
		{Sector: "banks", Quarter: "2023-Q3", MarketCap: 1.0e12, MarketCapTrillionIDR: 1},
		{Sector: "banks", Quarter: "2023-Q4", MarketCap: 1.5e12, MarketCapTrillionIDR: 1.5},
		{Sector: "banks", Quarter: "2024-Q1", MarketCap: 2.0e12, MarketCapTrillionIDR: 2},
		{Sector: "tobacco", Quarter: "2023-Q4", MarketCap: 5.0e11, MarketCapTrillionIDR: 0.5},
		{Sector: "tobacco", Quarter: "2024-Q1", MarketCap: 6.0e11, MarketCapTrillionIDR: 0.6},
	}, out.Historical)

	require.Len(t, out.Change, 3)
	assert.Equal(t, "banks", out.Change[0].Sector)
	assert.Equal(t, 0.0125, out.Change[0].MarketCapChange)
	assert.InDelta(t, 1.25, out.Change[0].MarketCapChangePercent, 1e-12)
	assert.Equal(t, "2024-01-31", out.Change[1].Date)
	assert.InDelta(t, -2.0, out.Change[1].MarketCapChangePercent, 1e-12)
	assert.Equal(t, "2024-02-29", out.Change[2].Date)
}

func TestMarketCapNegativeOthersAllowed(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/market_cap": marketCapJSON("banks", 500, `{}`, `{}`, `{}`),
		"banks/idx":        idxJSON("banks", 400),
	}}
	out, err := New(src).MarketCap(context.Background(), []string{"banks"})
	require.NoError(t, err)
	assert.Equal(t, -100.0, out.MarketCap[1].TotalMarketCap)
	assert.InDelta(t, 100, out.MarketCap[0].PercentOfTotal+out.MarketCap[1].PercentOfTotal, 1e-9)
}

func TestMarketCapZeroTotalIsMalformed(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/market_cap": marketCapJSON("banks", 0, `{}`, `{}`, `{}`),
		"banks/idx":        idxJSON("banks", 0),
	}}
	_, err := New(src).MarketCap(context.Background(), []string{"banks"})
	assert.True(t, sectors.IsMalformed(err))
}

func TestMarketCapMissingSubObject(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/market_cap": `{"sub_sector":"banks","market_cap":{"total_market_cap":1}}`,
	}}
	out, err := New(src).MarketCap(context.Background(), []string{"banks"})
	assert.Nil(t, out)
	var me *sectors.MalformedReportError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "market_cap.quarterly_market_cap", me.Field)
}

func TestMarketCapRemoteErrorAborts(t *testing.T) {
	src := twoSectorSource()
	src.errs = map[string]error{"banks/market_cap": &sectors.RemoteRequestError{URL: "x", StatusCode: 500}}

	out, err := New(src).MarketCap(context.Background(), []string{"banks", "tobacco"})
	assert.Nil(t, out)
	assert.True(t, sectors.IsRemote(err))
	assert.Equal(t, []string{"banks/market_cap"}, src.calls, "no further fetches after the first failure")
}

func TestEmptySelectionIsValidationError(t *testing.T) {
	src := twoSectorSource()
	s := New(src)
	ctx := context.Background()

	_, err := s.MarketCap(ctx, nil)
	assert.True(t, sectors.IsValidation(err))
	_, err = s.Valuation(ctx, []string{})
	assert.True(t, sectors.IsValidation(err))
	_, err = s.TopCompanies(ctx, []string{" "})
	assert.True(t, sectors.IsValidation(err))
	_, err = s.All(ctx, nil)
	assert.True(t, sectors.IsValidation(err))

	assert.Empty(t, src.calls)
}

// ── Valuation ──

func TestValuationWithAndWithoutRankColumns(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/valuation": `{"sub_sector":"banks","valuation":{"historical_valuation":[
		  {"pb":1.1,"pe":10,"ps":2,"pcf":5,"year":2022,"pb_rank":1,"pe_rank":2,"ps_rank":3,"pcf_rank":4},
		  {"pb":1.3,"pe":12,"ps":2.4,"pcf":6,"year":2023,"pb_rank":1,"pe_rank":2,"ps_rank":3,"pcf_rank":4}]}}`,
		"tobacco/valuation": `{"sub_sector":"tobacco","valuation":{"historical_valuation":[
		  {"year":2023,"pb":2,"pe":15,"ps":1,"pcf":8}]}}`,
	}}
	rows, err := New(src).Valuation(context.Background(), []string{"banks", "tobacco"})
	require.NoError(t, err)

	assert.Equal(t, []models.ValuationRow{
		{Sector: "banks", Year: 2022, PriceBookRatio: 1.1, PriceEarningRatio: 10, PriceSalesRatio: 2, PriceCashFlowRatio: 5},
		{Sector: "banks", Year: 2023, PriceBookRatio: 1.3, PriceEarningRatio: 12, PriceSalesRatio: 2.4, PriceCashFlowRatio: 6},
		{Sector: "tobacco", Year: 2023, PriceBookRatio: 2, PriceEarningRatio: 15, PriceSalesRatio: 1, PriceCashFlowRatio: 8},
	}, rows)
}

func TestValuationMissingColumn(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/valuation": `{"sub_sector":"banks","valuation":{"historical_valuation":[{"pb":1,"pe":2,"year":2023}]}}`,
	}}
	rows, err := New(src).Valuation(context.Background(), []string{"banks"})
	assert.Nil(t, rows)
	assert.True(t, sectors.IsMalformed(err))
}

// ── TopCompanies ──

func companiesJSON(sector string) string {
	return fmt.Sprintf(`{"sub_sector":%q,"companies":{"top_companies":{
	  "top_mcap":[{"symbol":"A.JK","market_cap":2.5e12}],
	  "top_growth":[{"symbol":"B.JK","revenue_growth":0.42}],
	  "top_profit":[{"symbol":"C.JK","profit":3.5e9}],
	  "top_revenue":[{"symbol":"D.JK","revenue":4.0e12}]}}}`, sector)
}

func TestTopCompaniesConversions(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{"tobacco/companies": companiesJSON("tobacco")}}
	out, err := New(src).TopCompanies(context.Background(), []string{"tobacco"})
	require.NoError(t, err)

	assert.Equal(t, []models.TopMarketCapRow{{Symbol: "A.JK", Sector: "tobacco", MarketCap: 2.5e12, MarketCapTrillionIDR: 2.5}}, out.MarketCap)
	assert.Equal(t, "B.JK", out.Growth[0].Symbol)
	assert.InDelta(t, 42.0, out.Growth[0].RevenueGrowthPercent, 1e-9)
	assert.Equal(t, 3.5, out.Profit[0].ProfitBillionIDR)
	assert.Equal(t, 4.0, out.Revenue[0].RevenueTrillionIDR)
}

func TestTopCompaniesSectorAttribution(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{
		"banks/companies":   companiesJSON("banks"),
		"tobacco/companies": companiesJSON("tobacco"),
	}}
	out, err := New(src).TopCompanies(context.Background(), []string{"banks", "tobacco"})
	require.NoError(t, err)

	require.Len(t, out.Revenue, 2)
	assert.Equal(t, "banks", out.Revenue[0].Sector)
	assert.Equal(t, "tobacco", out.Revenue[1].Sector)
	for _, r := range out.Profit {
		assert.NotEmpty(t, r.Sector)
	}
}

func TestSectorLabelComesFromReport(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{"bank/companies": companiesJSON("banks")}}
	out, err := New(src).TopCompanies(context.Background(), []string{"bank"})
	require.NoError(t, err)
	assert.Equal(t, "banks", out.MarketCap[0].Sector)
}

// ── All ──

func TestAll(t *testing.T) {
	src := twoSectorSource()
	src.bodies["banks/valuation"] = `{"sub_sector":"banks","valuation":{"historical_valuation":[{"pb":1,"pe":2,"ps":3,"pcf":4,"year":2023}]}}`
	src.bodies["banks/companies"] = companiesJSON("banks")

	tables, err := New(src).All(context.Background(), []string{"banks"})
	require.NoError(t, err)

	assert.Equal(t, []string{"banks"}, tables.Sectors)
	assert.Len(t, tables.MarketCap.MarketCap, 2)
	assert.Len(t, tables.Valuation, 1)
	assert.Len(t, tables.TopCompanies.Growth, 1)
}

func TestAllWrapsSectionErrors(t *testing.T) {
	src := twoSectorSource()
	_, err := New(src).All(context.Background(), []string{"banks"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valuation")
	assert.True(t, sectors.IsRemote(err))
}
