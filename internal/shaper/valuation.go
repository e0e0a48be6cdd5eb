package shaper

import (
	"context"

	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/pkg/models"
)

// Valuation concatenates each sector's valuation history.
func (s *Shaper) Valuation(ctx context.Context, selected []string) ([]models.ValuationRow, error) {
	if err := checkSelection(selected); err != nil {
		return nil, err
	}

	rows := []models.ValuationRow{}
	for _, name := range selected {
		body, err := s.fetch(ctx, name, sectors.SectionValuation)
		if err != nil {
			return nil, err
		}
		r, err := sectors.DecodeValuation(name, body)
		if err != nil {
			return nil, err
		}
		for _, p := range r.History {
			rows = append(rows, models.ValuationRow{
				Sector:             r.SubSector,
				Year:               p.Year,
				PriceBookRatio:     p.PB,
				PriceEarningRatio:  p.PE,
				PriceSalesRatio:    p.PS,
				PriceCashFlowRatio: p.PCF,
			})
		}
	}
	return rows, nil
}
