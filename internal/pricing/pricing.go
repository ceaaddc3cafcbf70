// Package pricing holds the price-adjustment heuristic. It is a pure
// function of the product's current signals; all side effects (history,
// mirror, notification) are orchestrated by the caller.
package pricing

import "math"

const (
	// First match wins, evaluated top to bottom.
	surgeFactor    = 1.10 // high rating and scarce inventory
	markdownFactor = 0.90 // poor reception
	driftFactor    = 1.02 // mild drift toward demand

	surgeRating    = 4.5
	surgeInventory = 10
	markdownRating = 3
)

// Adjust returns the new price for the given signals, rounded to cents and
// floored at zero.
func Adjust(price, avgRating float64, inventory int64) float64 {
	factor := driftFactor
	switch {
	case avgRating > surgeRating && inventory < surgeInventory:
		factor = surgeFactor
	case avgRating < markdownRating:
		factor = markdownFactor
	}

	newPrice := math.Round(price*factor*100) / 100
	if newPrice < 0 {
		newPrice = 0
	}
	return newPrice
}
