// SPDX-License-Identifier: AGPL-3.0-only
package metrics

import (
	"math"
	"sort"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/seed"
)

type weighted struct {
	label  string
	weight float64
}

var (
	ageBands = []weighted{
		{"18-24", 25}, {"25-34", 35}, {"35-44", 22}, {"45-54", 12}, {"55+", 6},
	}
	genders = []weighted{
		{"Female", 58}, {"Male", 40}, {"Other", 2},
	}
	locations = []weighted{
		{"United States", 45}, {"Canada", 18}, {"United Kingdom", 15}, {"Australia", 12}, {"Other", 10},
	}
)

// synthesizeDemographics perturbs the baseline splits per user. Every
// category sums to exactly 100.
func synthesizeDemographics(s seed.Seed) Demographics {
	age := splitPercent(s, "age", ageBands)
	gender := splitPercent(s, "gender", genders)
	loc := splitPercent(s, "location", locations)

	d := Demographics{
		Age:       make([]AgeShare, len(ageBands)),
		Gender:    make([]GenderShare, len(genders)),
		Locations: make([]LocationShare, len(locations)),
	}
	for i, b := range ageBands {
		d.Age[i] = AgeShare{Range: b.label, Percentage: age[i]}
	}
	for i, g := range genders {
		d.Gender[i] = GenderShare{Type: g.label, Percentage: gender[i]}
	}
	for i, l := range locations {
		d.Locations[i] = LocationShare{Country: l.label, Percentage: loc[i]}
	}
	return d
}

func splitPercent(s seed.Seed, prefix string, base []weighted) []int {
	weights := make([]float64, len(base))
	for i, b := range base {
		weights[i] = b.weight * s.Float(prefix+"_"+b.label, 0.6, 1.4)
	}
	return largestRemainder(weights, 100)
}

// largestRemainder apportions total across weights so the parts sum to total.
// Ties go to the earlier index.
func largestRemainder(weights []float64, total int) []int {
	var sum float64
	for _, w := range weights {
		sum += w
	}

	parts := make([]int, len(weights))
	if sum <= 0 || len(weights) == 0 {
		return parts
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(weights))
	assigned := 0
	for i, w := range weights {
		exact := w / sum * float64(total)
		parts[i] = int(math.Floor(exact))
		assigned += parts[i]
		rems[i] = rem{idx: i, frac: exact - float64(parts[i])}
	}

	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < total; i++ {
		parts[rems[i%len(rems)].idx]++
		assigned++
	}
	return parts
}
