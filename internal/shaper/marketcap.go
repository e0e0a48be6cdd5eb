package shaper

import (
	"context"

	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/pkg/models"
	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// MarketCap builds the pie, quarterly and monthly tables for the selected
// sectors. The exchange-wide total is read from the first sector's idx
// section and the remainder becomes the synthetic Others row.
func (s *Shaper) MarketCap(ctx context.Context, selected []string) (*models.MarketCapTables, error) {
	if err := checkSelection(selected); err != nil {
		return nil, err
	}

	out := &models.MarketCapTables{
		MarketCap:  make([]models.MarketCapRow, 0, len(selected)+1),
		Historical: []models.HistoricalMarketCapRow{},
		Change:     []models.MarketCapChangeRow{},
	}
	var selectedTotal float64

	for _, name := range selected {
		body, err := s.fetch(ctx, name, sectors.SectionMarketCap)
		if err != nil {
			return nil, err
		}
		r, err := sectors.DecodeMarketCap(name, body)
		if err != nil {
			return nil, err
		}

		selectedTotal += r.TotalMarketCap
		out.MarketCap = append(out.MarketCap, models.MarketCapRow{
			Sector:         r.SubSector,
			TotalMarketCap: r.TotalMarketCap,
		})

		for _, series := range []sectors.Series{r.PrevTTM, r.CurrentTTM} {
			for _, p := range series {
				out.Historical = append(out.Historical, models.HistoricalMarketCapRow{
					Sector:               r.SubSector,
					Quarter:              p.Key,
					MarketCap:            p.Value,
					MarketCapTrillionIDR: utils.ToTrillion(p.Value),
				})
			}
		}
		for _, p := range r.MonthlyPerformance {
			out.Change = append(out.Change, models.MarketCapChangeRow{
				Sector:                 r.SubSector,
				Date:                   p.Key,
				MarketCapChange:        p.Value,
				MarketCapChangePercent: utils.ToPercent(p.Value),
			})
		}
	}

	first := selected[0]
	body, err := s.fetch(ctx, first, sectors.SectionIndex)
	if err != nil {
		return nil, err
	}
	idx, err := sectors.DecodeIndex(first, body)
	if err != nil {
		return nil, err
	}

	others := idx.IndexCap - selectedTotal
	if others < 0 {
		logger.L().Warn().
			Float64("idx_cap", idx.IndexCap).
			Float64("selected_total", selectedTotal).
			Msg("selected sectors exceed the exchange total")
	}
	out.MarketCap = append(out.MarketCap, models.MarketCapRow{
		Sector:         models.OthersSector,
		TotalMarketCap: others,
	})

	var grand float64
	for _, row := range out.MarketCap {
		grand += row.TotalMarketCap
	}
	if grand == 0 {
		return nil, &sectors.MalformedReportError{
			Sector:  first,
			Section: sectors.SectionIndex,
			Field:   "idx.idx_cap",
			Detail:  "market cap total is zero",
		}
	}
	for i := range out.MarketCap {
		row := &out.MarketCap[i]
		row.PercentOfTotal = row.TotalMarketCap / grand * 100
		row.MarketCapTrillionIDR = utils.ToTrillion(row.TotalMarketCap)
	}
	return out, nil
}
