// Package tools exposes Sectors API lookups as tools a chat model can call.
// Each handler validates its arguments, fetches one endpoint and returns the
// response body unchanged.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/supertypeai/sectors-kb/internal/llm"
	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
)

// Tool names.
const (
	CompanyOverview  = "get_company_overview"
	TopByVolume      = "get_top_companies_by_tx_volume"
	DailyTransaction = "get_daily_tx"
)

// DefaultTopN is the ranking size used when top_n is omitted.
const DefaultTopN = 5

// Source is the subset of the Sectors client the tools need.
type Source interface {
	CompanyReport(ctx context.Context, symbol, section string) (json.RawMessage, error)
	MostTraded(ctx context.Context, start, end string, n int) (json.RawMessage, error)
	DailyTransactions(ctx context.Context, symbol, start, end string) (json.RawMessage, error)
}

// Set binds the tool handlers to a Source.
type Set struct {
	src Source
}

// New returns the tool set backed by src.
func New(src Source) *Set {
	return &Set{src: src}
}

// Tools returns the three tool definitions.
func (s *Set) Tools() []llm.Tool {
	return []llm.Tool{
		{
			Name: CompanyOverview,
			Description: "Get company overview from stock symbol. Returns company name, industry, " +
				"sector and sub sector, market cap, last close price, latest close date, " +
				"daily close change and other overview fields.",
			Parameters: llm.ObjectSchema("Company overview parameters",
				map[string]*llm.JSONSchema{
					"stock": llm.StringProp("IDX stock symbol, e.g. BBCA or BBCA.JK"),
				},
				"stock",
			),
			Handler: s.companyOverview,
		},
		{
			Name:        TopByVolume,
			Description: "Get top companies by transaction volume between two dates",
			Parameters: llm.ObjectSchema("Most traded parameters",
				map[string]*llm.JSONSchema{
					"start_date": llm.DateProp("Start date, YYYY-MM-DD"),
					"end_date":   llm.DateProp("End date, YYYY-MM-DD"),
					"top_n":      llm.IntProp("Number of companies to return", DefaultTopN),
				},
				"start_date", "end_date",
			),
			Handler: s.topByVolume,
		},
		{
			Name:        DailyTransaction,
			Description: "Get daily transaction for a stock",
			Parameters: llm.ObjectSchema("Daily transaction parameters",
				map[string]*llm.JSONSchema{
					"stock":      llm.StringProp("IDX stock symbol, e.g. BREN"),
					"start_date": llm.DateProp("Start date, YYYY-MM-DD"),
					"end_date":   llm.DateProp("End date, YYYY-MM-DD"),
				},
				"stock", "start_date", "end_date",
			),
			Handler: s.dailyTx,
		},
	}
}

// Register adds every tool to reg in a fixed order.
func (s *Set) Register(reg *llm.ToolRegistry) {
	for _, t := range s.Tools() {
		reg.Register(t)
	}
}

// NewRegistry returns a registry holding the tools of a Set backed by src.
func NewRegistry(src Source) *llm.ToolRegistry {
	reg := llm.NewToolRegistry()
	New(src).Register(reg)
	return reg
}

// ── Handlers ──

func (s *Set) companyOverview(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Stock string `json:"stock"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if err := sectors.ValidateSymbol(params.Stock); err != nil {
		return "", err
	}
	logger.L().Debug().Str("tool", CompanyOverview).Str("stock", params.Stock).Msg("tool call")

	body, err := s.src.CompanyReport(ctx, params.Stock, "overview")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *Set) topByVolume(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		StartDate string  `json:"start_date"`
		EndDate   string  `json:"end_date"`
		TopN      *intArg `json:"top_n"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	n := DefaultTopN
	if params.TopN != nil {
		n = int(*params.TopN)
	}
	if err := sectors.ValidateDateRange(params.StartDate, params.EndDate); err != nil {
		return "", err
	}
	if n < 1 {
		return "", &sectors.ValidationError{Field: "top_n", Value: strconv.Itoa(n), Reason: "must be at least 1"}
	}
	logger.L().Debug().Str("tool", TopByVolume).
		Str("start", params.StartDate).Str("end", params.EndDate).Int("n", n).
		Msg("tool call")

	body, err := s.src.MostTraded(ctx, params.StartDate, params.EndDate, n)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *Set) dailyTx(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Stock     string `json:"stock"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if err := sectors.ValidateSymbol(params.Stock); err != nil {
		return "", err
	}
	if err := sectors.ValidateDateRange(params.StartDate, params.EndDate); err != nil {
		return "", err
	}
	logger.L().Debug().Str("tool", DailyTransaction).Str("stock", params.Stock).
		Str("start", params.StartDate).Str("end", params.EndDate).
		Msg("tool call")

	body, err := s.src.DailyTransactions(ctx, params.Stock, params.StartDate, params.EndDate)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(strings.TrimSpace(string(args))) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &sectors.ValidationError{Field: "arguments", Value: string(args), Reason: fmt.Sprintf("not a valid JSON object: %v", err)}
	}
	return nil
}

// intArg accepts 3, "3" and 3.0; models are inconsistent about number
// formatting. Fractional values are rejected.
type intArg int

func (n *intArg) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("top_n must be an integer, got %s", data)
	}
	*n = intArg(f)
	return nil
}
