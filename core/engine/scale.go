package engine

import "math"

// Scale is a chart y-axis: max is always a multiple of step and at
// least the observed maximum.
type Scale struct {
	Max  int `json:"max"`
	Step int `json:"step"`
}

// NiceScale computes a readable y-axis for a maximum observed value.
// Small ranges get a fixed unit axis; larger ranges round the raw
// step up to a clean magnitude.
func NiceScale(maxValue int) Scale {
	if maxValue <= 0 {
		maxValue = 1
	}
	if maxValue <= 5 {
		max := maxValue
		if max < 5 {
			max = 5
		}
		return Scale{Max: max, Step: 1}
	}
	rough := float64(maxValue) / 5
	magnitude := math.Pow(10, math.Floor(math.Log10(rough)))
	step := int(math.Ceil(rough/magnitude) * magnitude)
	max := int(math.Ceil(float64(maxValue)/float64(step))) * step
	return Scale{Max: max, Step: step}
}
