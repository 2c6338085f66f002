package game

import (
	"fmt"
	"strings"

	"github.com/user/furusato-strategy/internal/types"
)

// happinessFactors fixes the display and evaluation order of the five
// factors. DescribeEffect and defeat reasons both iterate this slice, so
// output stays byte-identical across callers.
var happinessFactors = []struct {
	Label string
	Get   func(types.HappinessFactors) int
	Set   func(*types.HappinessFactors, int)
}{
	{"Connection", func(h types.HappinessFactors) int { return h.Connection }, func(h *types.HappinessFactors, v int) { h.Connection = v }},
	{"Culture", func(h types.HappinessFactors) int { return h.Culture }, func(h *types.HappinessFactors, v int) { h.Culture = v }},
	{"Safety", func(h types.HappinessFactors) int { return h.Safety }, func(h *types.HappinessFactors, v int) { h.Safety = v }},
	{"Health", func(h types.HappinessFactors) int { return h.Health }, func(h *types.HappinessFactors, v int) { h.Health = v }},
	{"Environment", func(h types.HappinessFactors) int { return h.Environment }, func(h *types.HappinessFactors, v int) { h.Environment = v }},
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyHappiness adds delta to current factor by factor, clamping each
// result into [min, max]. Zero deltas leave a factor untouched.
func ApplyHappiness(current, delta types.HappinessFactors, min, max int) types.HappinessFactors {
	result := current
	for _, f := range happinessFactors {
		f.Set(&result, clamp(f.Get(current)+f.Get(delta), min, max))
	}
	return result
}

// DescribeEffect renders a card effect as a deterministic, human-readable
// summary: happiness factors in fixed order, then population, related
// population, and budget. Zero deltas are omitted; positive deltas carry
// an explicit sign. The same string is used for log entries and client
// display, so there is exactly one formatter.
func DescribeEffect(effect types.CardEffect) string {
	var parts []string
	for _, f := range happinessFactors {
		if v := f.Get(effect.Happiness); v != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", f.Label, v))
		}
	}
	if effect.Population != 0 {
		parts = append(parts, fmt.Sprintf("Population %+d", effect.Population))
	}
	if effect.RelatedPopulation != 0 {
		parts = append(parts, fmt.Sprintf("Related population %+d", effect.RelatedPopulation))
	}
	if effect.Budget != 0 {
		parts = append(parts, fmt.Sprintf("Budget %+d", effect.Budget))
	}
	return strings.Join(parts, ", ")
}
