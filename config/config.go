package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" env:"FURUSATO_PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" env:"FURUSATO_LOG_LEVEL"`

	// Public base URL, used when rendering room join QR codes
	PublicURL string `json:"public_url" env:"FURUSATO_PUBLIC_URL"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (memory or sqlite)
	Driver string `json:"driver" env:"FURUSATO_DB_DRIVER"`

	// Database connection string (file path for sqlite)
	DSN string `json:"dsn" env:"FURUSATO_DB_DSN"`
}

// GameConfig holds the tunable game rules. The defaults are the
// reference configuration.
type GameConfig struct {
	// Minimum players required to start a room
	MinPlayers int `json:"min_players" env:"FURUSATO_MIN_PLAYERS"`

	// Maximum players a room accepts
	MaxPlayers int `json:"max_players" env:"FURUSATO_MAX_PLAYERS"`

	// Starting budget per player
	InitialBudget int `json:"initial_budget"`

	// Starting settled population
	InitialPopulation int `json:"initial_population"`

	// Starting related (visiting) population
	InitialRelatedPopulation int `json:"initial_related_population"`

	// Starting value of every happiness factor
	InitialHappiness int `json:"initial_happiness"`

	// Happiness bounds; every effect application clamps into this range
	HappinessMin int `json:"happiness_min"`
	HappinessMax int `json:"happiness_max"`

	// Victory: year reached and every factor at or above the minimum
	VictoryYear         int `json:"victory_year"`
	VictoryHappinessMin int `json:"victory_happiness_min"`

	// Defeat: any factor at or below the threshold, or population at or
	// below the floor
	DefeatHappinessThreshold  int `json:"defeat_happiness_threshold"`
	DefeatPopulationThreshold int `json:"defeat_population_threshold"`

	// Applied once per yearly rollover
	YearlyPopulationDecay int `json:"yearly_population_decay"`
	YearlyBudgetGrant     int `json:"yearly_budget_grant"`

	// Special cell bonuses
	SubsidyAmount           int `json:"subsidy_amount"`
	ExchangePopulationBonus int `json:"exchange_population_bonus"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:      "8080",
			LogLevel:  "info",
			PublicURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver: "memory",
			DSN:    "./furusato.db",
		},
		Game: GameConfig{
			MinPlayers:                2,
			MaxPlayers:                4,
			InitialBudget:             500,
			InitialPopulation:         10000,
			InitialRelatedPopulation:  0,
			InitialHappiness:          50,
			HappinessMin:              0,
			HappinessMax:              100,
			VictoryYear:               5,
			VictoryHappinessMin:       40,
			DefeatHappinessThreshold:  20,
			DefeatPopulationThreshold: 5000,
			YearlyPopulationDecay:     -200,
			YearlyBudgetGrant:         100,
			SubsidyAmount:             100,
			ExchangePopulationBonus:   50,
		},
	}
}

// LoadConfig loads configuration from a file, creating it with defaults
// when missing, then applies environment variable overrides.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
	} else {
		file, err := os.Open(path)
		if err != nil {
			return config, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return config, err
		}
	}

	// Environment overrides win over the file
	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
