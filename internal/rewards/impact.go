package rewards

import "github.com/shopspring/decimal"

// co2PerUnit is the CO2 offset credited per unit of collected waste.
var co2PerUnit = decimal.NewFromFloat(0.5)

type Impact struct {
	WasteCollected   decimal.Decimal `json:"waste_collected"`
	ReportsSubmitted int             `json:"reports_submitted"`
	TokensEarned     int64           `json:"tokens_earned"`
	CO2Offset        decimal.Decimal `json:"co2_offset"`
}

// Summarize aggregates task amounts and reward points. Figures are rounded
// to one decimal place.
func Summarize(amounts []string, points []int) Impact {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(Quantity(a))
	}

	var tokens int64
	for _, p := range points {
		tokens += int64(p)
	}

	return Impact{
		WasteCollected:   total.Round(1),
		ReportsSubmitted: len(amounts),
		TokensEarned:     tokens,
		CO2Offset:        total.Mul(co2PerUnit).Round(1),
	}
}
