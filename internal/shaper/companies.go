package shaper

import (
	"context"

	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
	"github.com/supertypeai/sectors-kb/pkg/models"
	"github.com/supertypeai/sectors-kb/pkg/utils"
)

// TopCompanies builds the four ranked company tables, each row labelled
// with its sector.
func (s *Shaper) TopCompanies(ctx context.Context, selected []string) (*models.TopCompanyTables, error) {
	if err := checkSelection(selected); err != nil {
		return nil, err
	}

	out := &models.TopCompanyTables{
		MarketCap: []models.TopMarketCapRow{},
		Growth:    []models.TopGrowthRow{},
		Profit:    []models.TopProfitRow{},
		Revenue:   []models.TopRevenueRow{},
	}
	for _, name := range selected {
		body, err := s.fetch(ctx, name, sectors.SectionCompanies)
		if err != nil {
			return nil, err
		}
		r, err := sectors.DecodeCompanies(name, body)
		if err != nil {
			return nil, err
		}
		sector := r.SubSector

		for _, c := range r.Top[sectors.TopMarketCap] {
			out.MarketCap = append(out.MarketCap, models.TopMarketCapRow{
				Symbol: c.Symbol, Sector: sector,
				MarketCap: c.Value, MarketCapTrillionIDR: utils.ToTrillion(c.Value),
			})
		}
		for _, c := range r.Top[sectors.TopGrowth] {
			out.Growth = append(out.Growth, models.TopGrowthRow{
				Symbol: c.Symbol, Sector: sector,
				RevenueGrowth: c.Value, RevenueGrowthPercent: utils.ToPercent(c.Value),
			})
		}
		for _, c := range r.Top[sectors.TopProfit] {
			out.Profit = append(out.Profit, models.TopProfitRow{
				Symbol: c.Symbol, Sector: sector,
				Profit: c.Value, ProfitBillionIDR: utils.ToBillion(c.Value),
			})
		}
		for _, c := range r.Top[sectors.TopRevenue] {
			out.Revenue = append(out.Revenue, models.TopRevenueRow{
				Symbol: c.Symbol, Sector: sector,
				Revenue: c.Value, RevenueTrillionIDR: utils.ToTrillion(c.Value),
			})
		}
	}
	return out, nil
}
