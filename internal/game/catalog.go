package game

import "github.com/user/furusato-strategy/internal/types"

// Catalog is the fixed set of action and event cards. It is loaded once
// and never mutated; card counts are data, not structural constants.
type Catalog struct {
	actions []types.Card
	events  []types.Card
	byID    map[string]types.Card
}

// NewCatalog builds a catalog from the given card lists.
func NewCatalog(actions, events []types.Card) *Catalog {
	c := &Catalog{
		actions: actions,
		events:  events,
		byID:    make(map[string]types.Card, len(actions)+len(events)),
	}
	for _, card := range actions {
		c.byID[card.ID] = card
	}
	for _, card := range events {
		c.byID[card.ID] = card
	}
	return c
}

// ByID looks up any card by its ID.
func (c *Catalog) ByID(id string) (types.Card, bool) {
	card, ok := c.byID[id]
	return card, ok
}

// RandomAction draws a uniformly random action card.
func (c *Catalog) RandomAction(dice *DiceRoller) types.Card {
	return c.actions[dice.Roll(len(c.actions))-1]
}

// RandomEvent draws a uniformly random event card.
func (c *Catalog) RandomEvent(dice *DiceRoller) types.Card {
	return c.events[dice.Roll(len(c.events))-1]
}

// Actions returns a copy of the action card list.
func (c *Catalog) Actions() []types.Card {
	out := make([]types.Card, len(c.actions))
	copy(out, c.actions)
	return out
}

// Events returns a copy of the event card list.
func (c *Catalog) Events() []types.Card {
	out := make([]types.Card, len(c.events))
	copy(out, c.events)
	return out
}

// ActionCount returns the number of action cards.
func (c *Catalog) ActionCount() int { return len(c.actions) }

// EventCount returns the number of event cards.
func (c *Catalog) EventCount() int { return len(c.events) }

// DefaultCatalog returns the reference card set: six action cards and
// four event cards.
func DefaultCatalog() *Catalog {
	actions := []types.Card{
		{
			ID:       "action-001",
			Name:     "Shopping Street Revival",
			Type:     types.CardAction,
			Category: types.CategoryEconomic,
			Cost:     100,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Connection: 10, Culture: 5},
			},
			Description: "Host an event to liven up the local shopping street. Connection +10, Culture +5.",
		},
		{
			ID:       "action-002",
			Name:     "Remote Work Hub",
			Type:     types.CardAction,
			Category: types.CategoryEconomic,
			Cost:     200,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Connection: 15},
			},
			RequiredPlayers: 2,
			Description:     "Set up a remote work hub in the area. Connection +15 (needs 2 cooperating players).",
		},
		{
			ID:       "action-003",
			Name:     "Intergenerational Meetup",
			Type:     types.CardAction,
			Category: types.CategorySocial,
			Cost:     50,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Connection: 15, Culture: 10, Health: 5},
			},
			Description: "Bring young and old residents together. Connection +15, Culture +10, Health +5.",
		},
		{
			ID:       "action-004",
			Name:     "Community Disaster Drill",
			Type:     types.CardAction,
			Category: types.CategorySocial,
			Cost:     80,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Safety: 20, Connection: 10},
			},
			RequiredPlayers: 3,
			Description:     "Run a disaster drill for the whole community. Safety +20, Connection +10 (needs 3 cooperating players).",
		},
		{
			ID:       "action-005",
			Name:     "Woodland Conservation",
			Type:     types.CardAction,
			Category: types.CategoryEnvironment,
			Cost:     30,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Environment: 15, Health: 5},
			},
			Description: "Maintain the village woodland. Environment +15, Health +5.",
		},
		{
			ID:       "action-006",
			Name:     "Waste Reduction Campaign",
			Type:     types.CardAction,
			Category: types.CategoryEnvironment,
			Cost:     60,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Environment: 20},
			},
			RequiredPlayers: 2,
			Description:     "Cut down waste across the area. Environment +20 (needs 2 cooperating players).",
		},
	}
	events := []types.Card{
		{
			ID:      "event-001",
			Name:    "Local Specialty Fair",
			Type:    types.CardEvent,
			Subtype: types.SubtypeSpecialty,
			Effect: types.CardEffect{
				Happiness:         types.HappinessFactors{Culture: 10},
				RelatedPopulation: 30,
			},
			Description: "A fair of local specialties is held. Culture +10, Related population +30.",
		},
		{
			ID:      "event-002",
			Name:    "Traditional Festival",
			Type:    types.CardEvent,
			Subtype: types.SubtypeFestival,
			Effect: types.CardEffect{
				Happiness:         types.HappinessFactors{Culture: 15, Connection: 10},
				RelatedPopulation: 50,
			},
			Description: "The traditional festival takes place. Culture +15, Connection +10, Related population +50.",
		},
		{
			ID:      "event-003",
			Name:    "Heavy Snow",
			Type:    types.CardEvent,
			Subtype: types.SubtypeClimate,
			Effect: types.CardEffect{
				Happiness: types.HappinessFactors{Safety: -10, Health: -5},
			},
			Description: "Heavy snow hits the area. Safety -10, Health -5.",
		},
		{
			ID:      "event-004",
			Name:    "Tourism Feature",
			Type:    types.CardEvent,
			Subtype: types.SubtypeTourism,
			Effect: types.CardEffect{
				Happiness:         types.HappinessFactors{Culture: 5},
				RelatedPopulation: 100,
			},
			Description: "The media runs a feature on the area. Culture +5, Related population +100.",
		},
	}
	return NewCatalog(actions, events)
}
