// Package shaper turns Sectors API sector reports into the flat row tables
// consumed by the dashboard, the charts and the workbook export.
//
// Sectors are fetched one after another. The first failure aborts the whole
// aggregation; no partial tables are returned.
package shaper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/pkg/models"
)

// Source returns the raw JSON of one section of a sector report.
// *sectors.Client satisfies it.
type Source interface {
	SectorReport(ctx context.Context, sector, section string) (json.RawMessage, error)
}

// Shaper builds row tables from a Source.
type Shaper struct {
	src Source
}

// New creates a Shaper reading from src.
func New(src Source) *Shaper {
	return &Shaper{src: src}
}

// All runs the market-cap, valuation and top-company shapers in that order.
func (s *Shaper) All(ctx context.Context, selected []string) (*models.SectorTables, error) {
	mc, err := s.MarketCap(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("market cap: %w", err)
	}
	val, err := s.Valuation(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("valuation: %w", err)
	}
	top, err := s.TopCompanies(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("top companies: %w", err)
	}
	return &models.SectorTables{
		Sectors:      append([]string(nil), selected...),
		MarketCap:    *mc,
		Valuation:    val,
		TopCompanies: *top,
	}, nil
}

// checkSelection rejects an empty selection or a blank sector name.
func checkSelection(selected []string) error {
	if len(selected) == 0 {
		return &sectors.ValidationError{Field: "sectors", Value: "", Reason: "select at least one sector"}
	}
	for _, name := range selected {
		if strings.TrimSpace(name) == "" {
			return &sectors.ValidationError{Field: "sectors", Value: strings.Join(selected, ","), Reason: "sector names must not be blank"}
		}
	}
	return nil
}

func (s *Shaper) fetch(ctx context.Context, sector, section string) (json.RawMessage, error) {
	logger.L().Debug().Str("sector", sector).Str("section", section).Msg("fetching sector report")
	body, err := s.src.SectorReport(ctx, sector, section)
	if err != nil {
		return nil, fmt.Errorf("sector %s: %w", sector, err)
	}
	return body, nil
}
