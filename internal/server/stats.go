package server

import (
	"sort"
	"time"

	"orderscraper/internal/models"
)

// YearTotal is the spend of one calendar year.
type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// Stats are the headline numbers shown on the dashboard.
type Stats struct {
	ScrapedAt     time.Time    `json:"scraped_at"`
	Partial       bool         `json:"partial"`
	OrderCount    int          `json:"order_count"`
	GrandTotal    float64      `json:"grand_total"`
	DigitalTotal  float64      `json:"digital_total"`
	FlaggedOrders int          `json:"flagged_orders"`
	Currency      string       `json:"currency"`
	MostExpensive *models.Order `json:"most_expensive,omitempty"`
	TotalsByYear  []YearTotal  `json:"totals_by_year"`
}

// ComputeStats aggregates a loaded collection. Orders with an unparseable
// date fall out of the per-year totals but still count everywhere else.
func ComputeStats(c *models.Collection) Stats {
	stats := Stats{
		ScrapedAt:  c.ScrapedAt,
		Partial:    c.Partial,
		OrderCount: len(c.Orders),
	}

	byYear := make(map[int]float64)
	var maxIdx = -1
	for i, o := range c.Orders {
		stats.GrandTotal += o.Total
		if o.Digital() {
			stats.DigitalTotal += o.Total
		}
		if len(o.Flags) > 0 {
			stats.FlaggedOrders++
		}
		if stats.Currency == "" && o.Currency != "" {
			stats.Currency = o.Currency
		}
		if year := o.Year(); year != 0 {
			byYear[year] += o.Total
		}
		if maxIdx == -1 || o.Total > c.Orders[maxIdx].Total {
			maxIdx = i
		}
	}
	if maxIdx >= 0 {
		order := c.Orders[maxIdx]
		stats.MostExpensive = &order
	}

	for year, total := range byYear {
		stats.TotalsByYear = append(stats.TotalsByYear, YearTotal{Year: year, Total: total})
	}
	sort.Slice(stats.TotalsByYear, func(i, j int) bool {
		return stats.TotalsByYear[i].Year < stats.TotalsByYear[j].Year
	})

	return stats
}

// maxYearTotal is used by the template to scale the bar chart.
func (s Stats) maxYearTotal() float64 {
	max := 0.0
	for _, yt := range s.TotalsByYear {
		if yt.Total > max {
			max = yt.Total
		}
	}
	return max
}

// BarWidth returns the relative width (0-100) of one year's bar.
func (s Stats) BarWidth(total float64) int {
	max := s.maxYearTotal()
	if max <= 0 {
		return 0
	}
	return int(total / max * 100)
}
