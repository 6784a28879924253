package pricing

import (
	"math"

	"resale-market/internal/domain/inventory"
)

// Resale price formula: original price x condition multiplier x category
// multiplier, rounded to the nearest whole unit.

var conditionMultipliers = map[inventory.Condition]float64{
	inventory.ConditionNew:     0.7,
	inventory.ConditionLikeNew: 0.6,
	inventory.ConditionGood:    0.5,
	inventory.ConditionFair:    0.35,
}

var categoryMultipliers = map[string]float64{
	"Outerwear":   1.1,
	"Jackets":     1.05,
	"Dresses":     1.0,
	"Shoes":       0.95,
	"Knitwear":    0.9,
	"Bottoms":     0.85,
	"Tops":        0.8,
	"Activewear":  0.8,
	"Accessories": 0.75,
}

const (
	defaultConditionMultiplier = 0.5
	defaultCategoryMultiplier  = 0.85
)

func ResalePrice(originalPrice int64, condition inventory.Condition, category string) int64 {
	condMult, ok := conditionMultipliers[condition]
	if !ok {
		condMult = defaultConditionMultiplier
	}
	catMult, ok := categoryMultipliers[category]
	if !ok {
		catMult = defaultCategoryMultiplier
	}
	return int64(math.Round(float64(originalPrice) * condMult * catMult))
}
