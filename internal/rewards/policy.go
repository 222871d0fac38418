// Package rewards computes the points a verified collection earns and the
// aggregate impact figures shown on the dashboard.
package rewards

import (
	"math"
	"regexp"

	"github.com/shopspring/decimal"
)

var quantityPattern = regexp.MustCompile(`\d+(\.\d+)?`)

type Policy struct {
	BasePoints    int
	PointsPerUnit int
}

// Quantity returns the first number in a free-text amount such as
// "12.5 kg", or zero when there is none.
func Quantity(amount string) decimal.Decimal {
	match := quantityPattern.FindString(amount)
	if match == "" {
		return decimal.Zero
	}
	q, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero
	}
	return q
}

// MaxPoints caps a single reward.
const MaxPoints = math.MaxInt32

// Points is the reward for one verified task, between 0 and MaxPoints.
func (p Policy) Points(amount string) int {
	points := decimal.NewFromInt(int64(p.PointsPerUnit)).
		Mul(Quantity(amount).Floor()).
		Add(decimal.NewFromInt(int64(p.BasePoints)))

	switch {
	case points.IsNegative():
		return 0
	case points.GreaterThan(decimal.NewFromInt(MaxPoints)):
		return MaxPoints
	}
	return int(points.IntPart())
}
