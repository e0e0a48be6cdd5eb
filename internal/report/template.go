package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/supertypeai/sectors-kb/web"
)

// Dashboard messages.
const (
	ErrorBanner    = "Error: Something went wrong. Please reload the app."
	NoSectorNotice = "Please select at least one sector!"
)

// Option is one entry of a select element.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// ChartView is one embedded chart.
type ChartView struct {
	ID    string
	Label string
	Spec  string // Vega-Lite JSON
}

// SectionView is one dashboard section. A failed section renders the error
// banner in place of its charts.
type SectionView struct {
	Failed bool
	Charts []ChartView
}

// PageData feeds the dashboard template.
type PageData struct {
	Title         string
	Options       []Option
	MaxSelections int
	Notice        string // shown when the selection was trimmed
	NoSelection   bool
	Summary       string

	MarketCap    *SectionView
	Metrics      []Option
	Valuation    *SectionView
	TopCompanies *SectionView
}

// NewChartView serializes spec for embedding.
func NewChartView(id, label string, spec Spec) (ChartView, error) {
	b, err := json.Marshal(spec)
	if err != nil {
		return ChartView{}, fmt.Errorf("encoding chart %s: %w", id, err)
	}
	return ChartView{ID: id, Label: label, Spec: string(b)}, nil
}

// dashboardTmpl is the SectorScan page. Charts are drawn client-side by
// vega-embed from the data-spec attribute of each .chart element.
var dashboardTmpl = template.Must(template.New(web.DashboardFile).Funcs(template.FuncMap{
	"errorBanner":    func() string { return ErrorBanner },
	"noSectorNotice": func() string { return NoSectorNotice },
}).ParseFS(web.Templates(), web.DashboardFile))

// RenderDashboard executes the dashboard template with data.
func RenderDashboard(w io.Writer, data PageData) error {
	if err := dashboardTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	return nil
}
