package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sectors-kb/internal/config"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/internal/report"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type fakeBackend struct {
	mu         sync.Mutex
	subsectors []string
	listErr    error
	errs       map[string]error // keyed by section, applies to every sector
	calls      []string
}

func (f *fakeBackend) Subsectors(ctx context.Context) ([]string, error) {
	return f.subsectors, f.listErr
}

func (f *fakeBackend) SectorReport(ctx context.Context, sector, section string) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sector+"/"+section)
	f.mu.Unlock()
	if err := f.errs[section]; err != nil {
		return nil, err
	}
	var body string
	switch section {
	case sectors.SectionMarketCap:
		body = fmt.Sprintf(`{"sub_sector":%q,"market_cap":{"total_market_cap":1e14,
		  "quarterly_market_cap":{"prev_ttm_mcap":{"2023-Q4":1e12},"current_ttm_mcap":{"2024-Q1":2e12}},
		  "mcap_summary":{"monthly_performance":{"2024-01-31":0.01}}}}`, sector)
	case sectors.SectionIndex:
		body = fmt.Sprintf(`{"sub_sector":%q,"idx":{"idx_cap":1e15}}`, sector)
	case sectors.SectionValuation:
		body = fmt.Sprintf(`{"sub_sector":%q,"valuation":{"historical_valuation":[{"pb":1,"pe":2,"ps":3,"pcf":4,"year":2023}]}}`, sector)
	case sectors.SectionCompanies:
		body = fmt.Sprintf(`{"sub_sector":%q,"companies":{"top_companies":{
		  "top_mcap":[{"symbol":"A.JK","market_cap":2.5e12}],
		  "top_growth":[{"symbol":"B.JK","revenue_growth":0.42}],
		  "top_profit":[{"symbol":"C.JK","profit":3.5e9}],
		  "top_revenue":[{"symbol":"D.JK","revenue":4.0e12}]}}}`, sector)
	}
	return json.RawMessage(body), nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		subsectors: []string{"banks", "basic-materials", "oil-gas-coal", "tobacco", "telecommunication", "utilities", "transportation"},
		errs:       map[string]error{},
	}
}

func testServer(t *testing.T, b *fakeBackend) *Server {
	t.Helper()
	return NewServer(config.DashboardConfig{DefaultSectors: 3, MaxSectors: 5}, b, "test")
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func page(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func selectedSectors(doc *goquery.Document) []string {
	var out []string
	doc.Find("#sectors option[selected]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("value")
		out = append(out, v)
	})
	return out
}

// ════════════════════════════════════════════════════════════════════
// JSON Endpoints
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t, newFakeBackend())
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "test", resp.Data.(map[string]any)["version"])
	}
}

func TestSectorsEndpoint(t *testing.T) {
	rec := get(t, testServer(t, newFakeBackend()), "/api/v1/sectors")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	list := resp.Data.([]any)
	require.Len(t, list, 7)
	assert.Equal(t, map[string]any{"value": "oil-gas-coal", "label": "Oil Gas Coal"}, list[2])
}

func TestMarketCapEndpoint(t *testing.T) {
	b := newFakeBackend()
	rec := get(t, testServer(t, b), "/api/v1/market-cap?sectors=banks,tobacco")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, b.calls, "banks/idx")
	assert.NotContains(t, b.calls, "tobacco/idx")
}

func TestJSONEndpointStatuses(t *testing.T) {
	cases := []struct {
		name   string
		target string
		errs   map[string]error
		want   int
	}{
		{"no sectors", "/api/v1/valuation", nil, http.StatusBadRequest},
		{"blank sectors", "/api/v1/valuation?sectors=,%20", nil, http.StatusBadRequest},
		{"too many", "/api/v1/top-companies?sectors=a,b,c,d,e,f", nil, http.StatusBadRequest},
		{"remote", "/api/v1/valuation?sectors=banks",
			map[string]error{sectors.SectionValuation: &sectors.RemoteRequestError{URL: "u", StatusCode: 500}}, http.StatusBadGateway},
		{"malformed", "/api/v1/market-cap?sectors=banks",
			map[string]error{sectors.SectionIndex: &sectors.MalformedReportError{Section: "idx", Detail: "x"}}, http.StatusBadGateway},
		{"ok", "/api/v1/top-companies?sectors=banks&sectors=tobacco", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newFakeBackend()
			for k, v := range tc.errs {
				b.errs[k] = v
			}
			rec := get(t, testServer(t, b), tc.target)
			assert.Equal(t, tc.want, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, tc.want == http.StatusOK, resp.Success)
			if tc.want == http.StatusBadRequest {
				assert.Empty(t, b.calls, "validation must precede fetching")
			}
		})
	}
}

func TestSectorsEndpointUpstreamFailure(t *testing.T) {
	b := newFakeBackend()
	b.listErr = &sectors.RemoteRequestError{URL: "u", StatusCode: 403}
	rec := get(t, testServer(t, b), "/api/v1/sectors")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// ════════════════════════════════════════════════════════════════════
// Dashboard Page
// ════════════════════════════════════════════════════════════════════

func TestDashboardDefaults(t *testing.T) {
	doc := page(t, get(t, testServer(t, newFakeBackend()), "/"))

	assert.Equal(t, PageTitle, doc.Find("h1").Text())
	assert.Equal(t, []string{"banks", "basic-materials", "oil-gas-coal"}, selectedSectors(doc))
	assert.Equal(t, "Basic Materials", doc.Find(`#sectors option[value="basic-materials"]`).Text())

	for _, id := range []string{"mc-share", "mc-historical", "mc-change", "valuation-chart", "top-mcap", "top-growth", "top-profit", "top-revenue"} {
		raw, ok := doc.Find("#" + id).Attr("data-spec")
		require.True(t, ok, id)
		var spec map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &spec), id)
		assert.Equal(t, report.VegaLiteSchema, spec["$schema"])
	}
	assert.Equal(t, 0, doc.Find(".error").Length())
	assert.Contains(t, doc.Find("#summary").Text(), "Rp ")

	var tabs []string
	doc.Find("#top-companies .tabs button").Each(func(_ int, s *goquery.Selection) { tabs = append(tabs, s.Text()) })
	assert.Equal(t, []string{"Market Cap", "Growth", "Profit", "Revenue"}, tabs)

	metric, _ := doc.Find("#metric option[selected]").Attr("value")
	assert.Equal(t, "price_book", metric)
}

func TestDashboardNoSelection(t *testing.T) {
	b := newFakeBackend()
	doc := page(t, get(t, testServer(t, b), "/?submitted=1"))

	assert.Equal(t, "Please select at least one sector!", strings.TrimSpace(doc.Find("#no-selection").Text()))
	assert.Equal(t, 0, doc.Find(".chart").Length())
	assert.Empty(t, selectedSectors(doc))
	assert.Empty(t, b.calls)
}

func TestDashboardTrimsSelection(t *testing.T) {
	q := "/?submitted=1&sectors=banks,basic-materials,oil-gas-coal,tobacco,telecommunication,utilities"
	doc := page(t, get(t, testServer(t, newFakeBackend()), q))

	assert.Len(t, selectedSectors(doc), 5)
	assert.Contains(t, doc.Find(".warning").Text(), "Only the first 5 sectors")
}

func TestDashboardIgnoresUnknownSector(t *testing.T) {
	doc := page(t, get(t, testServer(t, newFakeBackend()), "/?sectors=banks&sectors=nope"))
	assert.Equal(t, []string{"banks"}, selectedSectors(doc))
	assert.Contains(t, doc.Find(".warning").Text(), `"nope"`)
}

func TestDashboardMetricSelection(t *testing.T) {
	doc := page(t, get(t, testServer(t, newFakeBackend()), "/?sectors=banks&metric=price_sales"))
	raw, _ := doc.Find("#valuation-chart").Attr("data-spec")
	assert.Contains(t, raw, "Price/Sales Ratio Across Sectors")

	doc = page(t, get(t, testServer(t, newFakeBackend()), "/?sectors=banks&metric=ev_ebitda"))
	metric, _ := doc.Find("#metric option[selected]").Attr("value")
	assert.Equal(t, "price_book", metric)
	assert.Contains(t, doc.Find(".warning").Text(), "metric")
}

func TestDashboardSectionFailureIsIsolated(t *testing.T) {
	b := newFakeBackend()
	b.errs[sectors.SectionValuation] = &sectors.RemoteRequestError{URL: "u", StatusCode: 500}
	doc := page(t, get(t, testServer(t, b), "/?sectors=banks"))

	assert.Equal(t, report.ErrorBanner, strings.TrimSpace(doc.Find("#valuation .error").Text()))
	assert.Equal(t, 0, doc.Find("#market-cap .error").Length())
	assert.Equal(t, 3, doc.Find("#market-cap .chart").Length())
	assert.Equal(t, 4, doc.Find("#top-companies .chart").Length())
}

func TestDashboardSubsectorFailure(t *testing.T) {
	b := newFakeBackend()
	b.listErr = &sectors.RemoteRequestError{URL: "u", StatusCode: 401}
	doc := page(t, get(t, testServer(t, b), "/"))
	assert.Equal(t, 3, doc.Find(".error").Length())
	assert.Empty(t, b.calls)
}

func TestParseSectors(t *testing.T) {
	got := parseSectors([]string{"banks, tobacco", "", "banks", " oil-gas-coal "})
	assert.Equal(t, []string{"banks", "tobacco", "oil-gas-coal"}, got)
	assert.Empty(t, parseSectors(nil))
}
