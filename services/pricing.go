// Package services implements the estimate pipeline: text extraction,
// intervention detection, catalog matching, pricing and report output.
package services

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricedItem is a matched intervention with its adjusted rate and totals.
// Money fields are rounded to two decimals.
type PricedItem struct {
	MatchedItem
	Region         string          `json:"region"`
	PriceYear      int             `json:"price_year"`
	LocationFactor float64         `json:"location_factor"`
	TimeFactor     float64         `json:"time_factor"`
	AdjustedRate   decimal.Decimal `json:"adjusted_rate"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	GSTAmount      decimal.Decimal `json:"gst_amount"`
	TotalWithGST   decimal.Decimal `json:"total_with_gst"`
}

// Calculator applies regional, time and tax adjustments to matched items.
type Calculator struct {
	inflationRate float64
	gstRate       decimal.Decimal
	now           func() time.Time
}

// NewCalculator returns a calculator using the tunables' rates and the wall
// clock for the current year.
func NewCalculator(t Tunables) *Calculator {
	return &Calculator{
		inflationRate: t.InflationRate,
		gstRate:       decimal.NewFromFloat(t.GSTRate),
		now:           time.Now,
	}
}

// WithClock returns a copy of c that reads the current year from now.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	cp := *c
	cp.now = now
	return &cp
}

// GSTRate returns the tax rate as a decimal fraction.
func (c *Calculator) GSTRate() decimal.Decimal { return c.gstRate }

// TimeFactor returns (1 + r)^(currentYear - refYear).
func (c *Calculator) TimeFactor(refYear int) float64 {
	years := c.now().Year() - refYear
	return math.Pow(1+c.inflationRate, float64(years))
}

// AdjustedRate applies both multipliers to a base rate without rounding.
func AdjustedRate(base decimal.Decimal, locationFactor, timeFactor float64) decimal.Decimal {
	return base.Mul(decimal.NewFromFloat(locationFactor)).Mul(decimal.NewFromFloat(timeFactor))
}

// Price converts matched items into priced items for one region and
// reference year. The input slice is not modified.
func (c *Calculator) Price(items []MatchedItem, region string, refYear int) []PricedItem {
	locFactor, _ := LocationFactor(region)
	timeFactor := c.TimeFactor(refYear)

	priced := make([]PricedItem, 0, len(items))
	for _, item := range items {
		rate := AdjustedRate(item.StandardRate, locFactor, timeFactor)
		total := rate.Mul(decimal.NewFromFloat(item.Quantity)).Round(2)
		gst := total.Mul(c.gstRate).Round(2)

		priced = append(priced, PricedItem{
			MatchedItem:    item,
			Region:         region,
			PriceYear:      refYear,
			LocationFactor: locFactor,
			TimeFactor:     timeFactor,
			AdjustedRate:   rate.Round(2),
			TotalCost:      total,
			GSTAmount:      gst,
			TotalWithGST:   total.Add(gst),
		})
	}
	return priced
}

// CategoryCost aggregates the priced items of one category.
type CategoryCost struct {
	Category     string          `json:"category"`
	Count        int             `json:"count"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	GSTAmount    decimal.Decimal `json:"gst_amount"`
	TotalWithGST decimal.Decimal `json:"total_with_gst"`
}

// PriceSummary holds the totals shown on the results page and the report.
type PriceSummary struct {
	TotalItems   int             `json:"total_items"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalGST     decimal.Decimal `json:"total_gst"`
	TotalWithGST decimal.Decimal `json:"total_with_gst"`
	AverageCost  decimal.Decimal `json:"average_cost"`
	Categories   []CategoryCost  `json:"categories"`
}

// Summarize reduces a priced item list. It is recomputed on every call.
func Summarize(items []PricedItem) PriceSummary {
	s := PriceSummary{
		TotalItems:   len(items),
		TotalCost:    decimal.Zero,
		TotalGST:     decimal.Zero,
		TotalWithGST: decimal.Zero,
	}
	for _, item := range items {
		s.TotalCost = s.TotalCost.Add(item.TotalCost)
		s.TotalGST = s.TotalGST.Add(item.GSTAmount)
		s.TotalWithGST = s.TotalWithGST.Add(item.TotalWithGST)
	}
	s.AverageCost = AverageCost(items)
	s.Categories = CategoryCosts(items)
	return s
}

// AverageCost is the mean TotalCost, or zero for an empty list.
func AverageCost(items []PricedItem) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalCost)
	}
	return sum.Div(decimal.NewFromInt(int64(len(items)))).Round(2)
}

// CategoryCosts groups items by category, sorted by category name.
func CategoryCosts(items []PricedItem) []CategoryCost {
	byName := make(map[string]*CategoryCost)
	for _, item := range items {
		cc, ok := byName[item.Category]
		if !ok {
			cc = &CategoryCost{
				Category:     item.Category,
				TotalCost:    decimal.Zero,
				GSTAmount:    decimal.Zero,
				TotalWithGST: decimal.Zero,
			}
			byName[item.Category] = cc
		}
		cc.Count++
		cc.TotalCost = cc.TotalCost.Add(item.TotalCost)
		cc.GSTAmount = cc.GSTAmount.Add(item.GSTAmount)
		cc.TotalWithGST = cc.TotalWithGST.Add(item.TotalWithGST)
	}

	out := make([]CategoryCost, 0, len(byName))
	for _, cc := range byName {
		out = append(out, *cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
