package core

import (
	"github.com/google/uuid"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerComputer
)

// Difficulty selects the bot tier
type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyNormal     Difficulty = "normal"
	DifficultyHard       Difficulty = "hard"
	DifficultyVeryHard   Difficulty = "very_hard"
	DifficultyImpossible Difficulty = "impossible"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyVeryHard, DifficultyImpossible:
		return true
	}
	return false
}

// ParseDifficulty maps user input to a tier, empty input yields normal
func ParseDifficulty(s string) (Difficulty, bool) {
	if s == "" {
		return DifficultyNormal, true
	}
	d := Difficulty(s)
	return d, d.Valid()
}

// Player is the complete game entity with all state
type Player struct {
	ID         string     `json:"id"`
	Color      Color      `json:"color"`
	Type       PlayerType `json:"type"`
	Difficulty Difficulty `json:"difficulty,omitempty"` // Only for computer
	ThinkTime  int        `json:"thinkTime,omitempty"`  // Only for computer, milliseconds
}

// PlayerConfig for API requests and configuration
type PlayerConfig struct {
	Type       PlayerType `json:"type" validate:"required,oneof=1 2"`
	Difficulty Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=easy normal hard very_hard impossible"`
	ThinkTime  int        `json:"thinkTime,omitempty" validate:"omitempty,min=0,max=10000"`
}

// PlayersResponse for API responses
type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

// NewPlayer creates a Player from PlayerConfig
func NewPlayer(config PlayerConfig, color Color) *Player {
	player := &Player{
		ID:    uuid.New().String(),
		Color: color,
		Type:  config.Type,
	}

	if config.Type == PlayerComputer {
		player.Difficulty = config.Difficulty
		if player.Difficulty == "" {
			player.Difficulty = DifficultyNormal
		}
		player.ThinkTime = config.ThinkTime
	}

	return player
}
