package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/internal/report"
	"github.com/supertypeai/sectors-kb/pkg/models"
	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// PageTitle is the dashboard heading.
const PageTitle = "SectorScan"

// Top Companies tab labels.
var topCompanyTabs = [4]string{"Market Cap", "Growth", "Profit", "Revenue"}

// handleDashboard renders the SectorScan page. A failing section shows the
// error banner and the remaining sections still render.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	q := r.URL.Query()

	data := report.PageData{
		Title:         PageTitle,
		MaxSelections: s.cfg.MaxSectors,
	}

	available, err := s.backend.Subsectors(ctx)
	if err != nil {
		log.Error().Err(err).Msg("listing sub-sectors")
		data.MarketCap = &report.SectionView{Failed: true}
		data.Valuation = &report.SectionView{Failed: true}
		data.TopCompanies = &report.SectionView{Failed: true}
		s.writePage(w, data)
		return
	}

	selected, notices := s.pageSelection(q, available)
	metric, err := report.ParseMetric(q.Get("metric"))
	if err != nil {
		notices = append(notices, err.Error())
		metric = models.ValuationMetrics[0]
	}

	data.Options = options(available, selected)
	data.Metrics = metricOptions(metric)
	data.Notice = strings.Join(notices, " ")

	if len(selected) == 0 {
		data.NoSelection = true
		s.writePage(w, data)
		return
	}

	data.MarketCap, data.Summary = s.marketCapSection(ctx, selected)
	data.Valuation = s.valuationSection(ctx, selected, metric)
	data.TopCompanies = s.topCompaniesSection(ctx, selected)
	s.writePage(w, data)
}

// pageSelection applies the page rules: no "submitted" flag means first
// visit and gets the default sectors; unknown slugs are dropped; the
// selection is capped at MaxSectors.
func (s *Server) pageSelection(q url.Values, available []string) ([]string, []string) {
	var notices []string
	if q.Get("submitted") == "" && len(q["sectors"]) == 0 {
		n := min(s.cfg.DefaultSectors, len(available))
		return append([]string(nil), available[:n]...), nil
	}

	known := make(map[string]bool, len(available))
	for _, a := range available {
		known[a] = true
	}
	var selected []string
	for _, v := range parseSectors(q["sectors"]) {
		if !known[v] {
			notices = append(notices, fmt.Sprintf("Unknown sector %q ignored.", v))
			continue
		}
		selected = append(selected, v)
	}
	if len(selected) > s.cfg.MaxSectors {
		selected = selected[:s.cfg.MaxSectors]
		notices = append(notices, fmt.Sprintf("Only the first %d sectors are shown.", s.cfg.MaxSectors))
	}
	return selected, notices
}

func (s *Server) marketCapSection(ctx context.Context, selected []string) (*report.SectionView, string) {
	tables, err := s.shaper.MarketCap(ctx, selected)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("market cap section")
		return &report.SectionView{Failed: true}, ""
	}
	charts := report.BuildMarketCapCharts(*tables)
	views, err := chartViews(
		namedSpec{"mc-share", "Share", charts.Share},
		namedSpec{"mc-historical", "Historical", charts.Historical},
		namedSpec{"mc-change", "Change", charts.Change},
	)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("market cap charts")
		return &report.SectionView{Failed: true}, ""
	}
	return &report.SectionView{Charts: views}, summary(tables.MarketCap)
}

func (s *Server) valuationSection(ctx context.Context, selected []string, metric models.ValuationMetric) *report.SectionView {
	rows, err := s.shaper.Valuation(ctx, selected)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("valuation section")
		return &report.SectionView{Failed: true}
	}
	spec, err := report.BuildValuationChart(rows, metric)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("valuation chart")
		return &report.SectionView{Failed: true}
	}
	views, err := chartViews(namedSpec{"valuation-chart", metric.Label(), spec})
	if err != nil {
		return &report.SectionView{Failed: true}
	}
	return &report.SectionView{Charts: views}
}

func (s *Server) topCompaniesSection(ctx context.Context, selected []string) *report.SectionView {
	tables, err := s.shaper.TopCompanies(ctx, selected)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("top companies section")
		return &report.SectionView{Failed: true}
	}
	charts := report.BuildTopCompanyCharts(*tables)
	views, err := chartViews(
		namedSpec{"top-mcap", topCompanyTabs[0], charts.MarketCap},
		namedSpec{"top-growth", topCompanyTabs[1], charts.Growth},
		namedSpec{"top-profit", topCompanyTabs[2], charts.Profit},
		namedSpec{"top-revenue", topCompanyTabs[3], charts.Revenue},
	)
	if err != nil {
		return &report.SectionView{Failed: true}
	}
	return &report.SectionView{Charts: views}
}

func (s *Server) writePage(w http.ResponseWriter, data report.PageData) {
	var buf bytes.Buffer
	if err := report.RenderDashboard(&buf, data); err != nil {
		logger.L().Error().Err(err).Msg("rendering dashboard")
		http.Error(w, report.ErrorBanner, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type namedSpec struct {
	id, label string
	spec      report.Spec
}

func chartViews(specs ...namedSpec) ([]report.ChartView, error) {
	views := make([]report.ChartView, 0, len(specs))
	for _, n := range specs {
		v, err := report.NewChartView(n.id, n.label, n.spec)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func options(available, selected []string) []report.Option {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	out := make([]report.Option, 0, len(available))
	for _, a := range available {
		out = append(out, report.Option{Value: a, Label: utils.FormatSectorLabel(a), Selected: chosen[a]})
	}
	return out
}

func metricOptions(current models.ValuationMetric) []report.Option {
	out := make([]report.Option, 0, len(models.ValuationMetrics))
	for _, m := range models.ValuationMetrics {
		out = append(out, report.Option{Value: string(m), Label: m.Label(), Selected: m == current})
	}
	return out
}

// summary describes the IDX total and the share held by the selected sectors.
func summary(rows []models.MarketCapRow) string {
	var total, share float64
	for _, row := range rows {
		total += row.TotalMarketCap
		if row.Sector != models.OthersSector {
			share += row.PercentOfTotal
		}
	}
	return fmt.Sprintf("Total IDX market cap %s. Selected sectors hold %.2f%%.",
		utils.FormatIDRCompact(total), share)
}

// parseSectors accepts repeated and comma-separated values, trimming blanks
// and duplicates while keeping order.
func parseSectors(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}
