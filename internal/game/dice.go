package game

import (
	"math/rand"
	"time"
)

// DiceRoller handles dice rolling for the game
type DiceRoller struct {
	rng *rand.Rand
}

// NewDiceRoller creates a new dice roller with a seeded random number generator
func NewDiceRoller() *DiceRoller {
	return NewDiceRollerWithSeed(time.Now().UnixNano())
}

// NewDiceRollerWithSeed creates a dice roller with a fixed seed, for
// deterministic sequences in tests.
func NewDiceRollerWithSeed(seed int64) *DiceRoller {
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Roll rolls a dice with the specified number of sides
func (dr *DiceRoller) Roll(sides int) int {
	return dr.rng.Intn(sides) + 1
}
