package report

// VegaLiteSchema is the schema URL stamped on every chart spec.
const VegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// Spec is a single-view Vega-Lite chart with inline data.
type Spec struct {
	Schema   string   `json:"$schema"`
	Title    string   `json:"title,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Data     Data     `json:"data"`
	Mark     Mark     `json:"mark"`
	Encoding Encoding `json:"encoding"`
}

// Data holds the inline records of a chart.
type Data struct {
	Values []Record `json:"values"`
}

// Record is one data row keyed by display column label.
type Record map[string]any

// Mark is the graphical mark of a chart.
type Mark struct {
	Type  string `json:"type"` // arc, line, bar
	Point bool   `json:"point,omitempty"`
}

// Encoding maps data fields to visual channels.
type Encoding struct {
	X       *Channel  `json:"x,omitempty"`
	Y       *Channel  `json:"y,omitempty"`
	Theta   *Channel  `json:"theta,omitempty"`
	Color   *Channel  `json:"color,omitempty"`
	Tooltip []Channel `json:"tooltip,omitempty"`
}

// Channel is one encoding channel definition.
type Channel struct {
	Field  string `json:"field"`
	Type   string `json:"type"` // quantitative, nominal, temporal
	Format string `json:"format,omitempty"`
	Scale  *Scale `json:"scale,omitempty"`
	Sort   any    `json:"sort,omitempty"` // "-x" or SortField
	Axis   *Axis  `json:"axis,omitempty"`
}

// Scale selects a named color scheme.
type Scale struct {
	Scheme string `json:"scheme"`
}

// Axis configures axis labels.
type Axis struct {
	LabelAngle int `json:"labelAngle"`
}

// SortField orders a channel by a data field.
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Vega-Lite field types.
const (
	Quantitative = "quantitative"
	Nominal      = "nominal"
	Temporal     = "temporal"
)

func quant(field string) *Channel { return &Channel{Field: field, Type: Quantitative} }

func tip(field, typ, format string) Channel {
	return Channel{Field: field, Type: typ, Format: format}
}

// sectorColor colors by sector name in ascending order.
func sectorColor(scheme string) *Channel {
	return &Channel{
		Field: ColSector,
		Type:  Nominal,
		Scale: &Scale{Scheme: scheme},
		Sort:  SortField{Field: ColSector, Order: "ascending"},
	}
}
