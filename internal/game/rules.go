package game

import (
	"fmt"
	"strings"

	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/types"
)

// DefeatResult carries the defeat verdict and, when defeated, the
// human-readable reason.
type DefeatResult struct {
	Defeated bool
	Reason   string
}

// CheckVictory holds when the victory year has been reached and every
// happiness factor is at or above the victory minimum. Both conditions
// are necessary.
func CheckVictory(year int, state *types.GameState, cfg config.GameConfig) bool {
	if year < cfg.VictoryYear {
		return false
	}
	for _, f := range happinessFactors {
		if f.Get(state.Happiness) < cfg.VictoryHappinessMin {
			return false
		}
	}
	return true
}

// CheckDefeat holds when any happiness factor is at or below the defeat
// threshold, or the settled population is at or below the floor.
// Happiness is checked first; a happiness defeat names every factor that
// is low, not just the first.
func CheckDefeat(state *types.GameState, cfg config.GameConfig) DefeatResult {
	var low []string
	for _, f := range happinessFactors {
		if f.Get(state.Happiness) <= cfg.DefeatHappinessThreshold {
			low = append(low, f.Label)
		}
	}
	if len(low) > 0 {
		return DefeatResult{
			Defeated: true,
			Reason:   fmt.Sprintf("%s fell below the critical level", strings.Join(low, ", ")),
		}
	}

	if state.Population <= cfg.DefeatPopulationThreshold {
		return DefeatResult{
			Defeated: true,
			Reason:   "The population fell below the critical level",
		}
	}

	return DefeatResult{}
}
