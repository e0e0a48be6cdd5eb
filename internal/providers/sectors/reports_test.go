package sectors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketCapBody = `{
  "sub_sector": "banks",
  "market_cap": {
    "total_market_cap": 100,
    "quarterly_market_cap": {
      "prev_ttm_mcap":    {"2023-Q3": 2.0e12, "2023-Q1": 1.0e12, "2023-Q2": 1.5e12},
      "current_ttm_mcap": {"2024-Q1": 3.0e12}
    },
    "mcap_summary": {
      "monthly_performance": {"2024-01-31": 0.0125, "2024-02-29": -0.03}
    }
  }
}`

func TestSeriesKeepsDocumentOrder(t *testing.T) {
	r, err := DecodeMarketCap("banks", []byte(marketCapBody))
	require.NoError(t, err)

	assert.Equal(t, "banks", r.SubSector)
	assert.Equal(t, 100.0, r.TotalMarketCap)
	assert.Equal(t, Series{{"2023-Q3", 2.0e12}, {"2023-Q1", 1.0e12}, {"2023-Q2", 1.5e12}}, r.PrevTTM)
	assert.Equal(t, Series{{"2024-Q1", 3.0e12}}, r.CurrentTTM)
	assert.Equal(t, Series{{"2024-01-31", 0.0125}, {"2024-02-29", -0.03}}, r.MonthlyPerformance)
}

func TestSeriesRejectsNull(t *testing.T) {
	var s Series
	err := s.UnmarshalJSON([]byte(`{"2024-01-31": 0.1, "2024-02-29": null}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-02-29")

	assert.Error(t, s.UnmarshalJSON([]byte(`[1,2]`)))
	assert.Error(t, s.UnmarshalJSON([]byte(`{"a":"x"}`)))
}

func TestSeriesEmptyObject(t *testing.T) {
	var s Series
	require.NoError(t, s.UnmarshalJSON([]byte(`{}`)))
	assert.NotNil(t, s)
	assert.Empty(t, s)
}

func TestDecodeMarketCapMissingParts(t *testing.T) {
	tests := []struct {
		name, body, field string
	}{
		{"no sub_sector", `{"market_cap":{}}`, "sub_sector"},
		{"no market_cap", `{"sub_sector":"banks"}`, "market_cap"},
		{"no total", `{"sub_sector":"banks","market_cap":{"quarterly_market_cap":{}}}`, "market_cap.total_market_cap"},
		{"no quarterly", `{"sub_sector":"banks","market_cap":{"total_market_cap":1}}`, "market_cap.quarterly_market_cap"},
		{"null prev", `{"sub_sector":"banks","market_cap":{"total_market_cap":1,"quarterly_market_cap":{"prev_ttm_mcap":null,"current_ttm_mcap":{}}}}`,
			"market_cap.quarterly_market_cap.prev_ttm_mcap"},
		{"no summary", `{"sub_sector":"banks","market_cap":{"total_market_cap":1,"quarterly_market_cap":{"prev_ttm_mcap":{},"current_ttm_mcap":{}}}}`,
			"market_cap.mcap_summary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMarketCap("banks", []byte(tt.body))
			var me *MalformedReportError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, tt.field, me.Field)
			assert.Equal(t, SectionMarketCap, me.Section)
			assert.Equal(t, "banks", me.Sector)
		})
	}
}

func TestDecodeMarketCapNullValueInSeries(t *testing.T) {
	body := `{"sub_sector":"banks","market_cap":{"total_market_cap":1,
	  "quarterly_market_cap":{"prev_ttm_mcap":{"2023-Q1":null},"current_ttm_mcap":{}},
	  "mcap_summary":{"monthly_performance":{}}}}`
	_, err := DecodeMarketCap("banks", []byte(body))
	assert.True(t, IsMalformed(err))
}

func TestDecodeIndex(t *testing.T) {
	r, err := DecodeIndex("banks", []byte(`{"sub_sector":"banks","idx":{"idx_cap":300}}`))
	require.NoError(t, err)
	assert.Equal(t, 300.0, r.IndexCap)

	_, err = DecodeIndex("banks", []byte(`{"sub_sector":"banks","idx":{}}`))
	assert.True(t, IsMalformed(err))
	_, err = DecodeIndex("banks", []byte(`{"sub_sector":"banks"}`))
	assert.True(t, IsMalformed(err))
}

func TestDecodeValuationDropsRankColumns(t *testing.T) {
	body := `{"sub_sector":"banks","valuation":{"historical_valuation":[
	  {"pb":1.1,"pe":10.5,"ps":2.2,"pcf":6.0,"year":2022,"pb_rank":3,"pe_rank":5,"ps_rank":1,"pcf_rank":2},
	  {"year":"2023","pcf":7.0,"ps":2.5,"pe":11.0,"pb":1.2}
	]}}`
	r, err := DecodeValuation("banks", []byte(body))
	require.NoError(t, err)

	require.Len(t, r.History, 2)
	assert.Equal(t, ValuationPoint{Year: 2022, PB: 1.1, PE: 10.5, PS: 2.2, PCF: 6.0}, r.History[0])
	assert.Equal(t, ValuationPoint{Year: 2023, PB: 1.2, PE: 11.0, PS: 2.5, PCF: 7.0}, r.History[1])
}

func TestDecodeValuationIgnoresUnknownColumns(t *testing.T) {
	body := `{"sub_sector":"banks","valuation":{"historical_valuation":[
	  {"pb":1,"pe":2,"ps":3,"pcf":4,"year":2021,"ev_ebitda":9}
	]}}`
	r, err := DecodeValuation("banks", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, ValuationPoint{Year: 2021, PB: 1, PE: 2, PS: 3, PCF: 4}, r.History[0])
}

func TestDecodeValuationMissingColumn(t *testing.T) {
	body := `{"sub_sector":"banks","valuation":{"historical_valuation":[
	  {"pb":1,"pe":2,"ps":3,"year":2021}
	]}}`
	_, err := DecodeValuation("banks", []byte(body))
	var me *MalformedReportError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "valuation.historical_valuation[0].pcf", me.Field)
	assert.Equal(t, "missing", me.Detail)
}

func TestDecodeValuationBadYear(t *testing.T) {
	body := `{"sub_sector":"banks","valuation":{"historical_valuation":[
	  {"pb":1,"pe":2,"ps":3,"pcf":4,"year":"last"}
	]}}`
	_, err := DecodeValuation("banks", []byte(body))
	assert.True(t, IsMalformed(err))
}

func TestDecodeValuationEmptyHistory(t *testing.T) {
	r, err := DecodeValuation("banks", []byte(`{"sub_sector":"banks","valuation":{"historical_valuation":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, r.History)

	_, err = DecodeValuation("banks", []byte(`{"sub_sector":"banks","valuation":{}}`))
	assert.True(t, IsMalformed(err))
}

func TestDecodeCompanies(t *testing.T) {
	body := `{"sub_sector":"tobacco","companies":{"top_companies":{
	  "top_mcap":    [{"symbol":"HMSP.JK","market_cap":9.0e13},{"symbol":"GGRM.JK","market_cap":4.0e13}],
	  "top_growth":  [{"symbol":"WIIM.JK","revenue_growth":0.35}],
	  "top_profit":  [{"symbol":"HMSP.JK","profit":8.1e12}],
	  "top_revenue": [{"symbol":"GGRM.JK","revenue":1.1e14}]
	}}}`
	r, err := DecodeCompanies("tobacco", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "tobacco", r.SubSector)
	assert.Equal(t, []RankedCompany{{"HMSP.JK", 9.0e13}, {"GGRM.JK", 4.0e13}}, r.Top[TopMarketCap])
	assert.Equal(t, []RankedCompany{{"WIIM.JK", 0.35}}, r.Top[TopGrowth])
	assert.Equal(t, []RankedCompany{{"HMSP.JK", 8.1e12}}, r.Top[TopProfit])
	assert.Equal(t, []RankedCompany{{"GGRM.JK", 1.1e14}}, r.Top[TopRevenue])
}

func TestDecodeCompaniesMissingCategory(t *testing.T) {
	body := `{"sub_sector":"tobacco","companies":{"top_companies":{
	  "top_mcap":[],"top_growth":[],"top_profit":[]
	}}}`
	_, err := DecodeCompanies("tobacco", []byte(body))
	var me *MalformedReportError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "companies.top_companies.top_revenue", me.Field)
}

func TestDecodeCompaniesWrongMetric(t *testing.T) {
	body := `{"sub_sector":"tobacco","companies":{"top_companies":{
	  "top_mcap":[{"symbol":"HMSP.JK","revenue":1}],"top_growth":[],"top_profit":[],"top_revenue":[]
	}}}`
	_, err := DecodeCompanies("tobacco", []byte(body))
	var me *MalformedReportError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "companies.top_companies.top_mcap[0].market_cap", me.Field)
}

func TestDecodeNotAnObject(t *testing.T) {
	_, err := DecodeCompanies("tobacco", []byte(`[1,2,3]`))
	assert.True(t, IsMalformed(err))
	_, err = DecodeIndex("tobacco", []byte(`"x"`))
	assert.True(t, IsMalformed(err))
}

func TestMalformedErrorMessage(t *testing.T) {
	err := &MalformedReportError{Sector: "banks", Section: "idx", Field: "idx.idx_cap", Detail: "missing"}
	assert.Equal(t, "sectors: malformed banks/idx report: idx.idx_cap: missing", err.Error())
}
