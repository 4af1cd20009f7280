// Package rating reduces individual star ratings into the values stored on and
// displayed for a station.
package rating

import "math"

// AverageOf returns the mean of ratings rounded to one decimal place, rounding
// half away from zero. An empty input yields 0. Values are not range-checked.
func AverageOf(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var total float64
	for _, r := range ratings {
		total += r
	}
	return roundTo(total/float64(len(ratings)), 1)
}

// IncrementalAverage folds newRating into a running average over prevCount
// ratings. The result keeps two decimals; display rounding is applied later
// with Display.
func IncrementalAverage(prevAvg float64, prevCount int64, newRating float64) float64 {
	if prevCount < 0 {
		panic("rating: negative previous count")
	}
	if prevCount == 0 {
		return newRating
	}
	n := float64(prevCount)
	return roundTo((prevAvg*n+newRating)/(n+1), 2)
}

// Display rounds a stored average to the precision shown to users.
func Display(avg float64) float64 {
	return roundTo(avg, 1)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
