package core

import "encoding/json"

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
	FEN   string       `json:"fen,omitempty" validate:"omitempty,max=100"`
	// RandomColors lets the server decide which config plays white
	RandomColors bool `json:"randomColors,omitempty"`
}

type ImportGameRequest struct {
	White PlayerConfig    `json:"white" validate:"required"`
	Black PlayerConfig    `json:"black" validate:"required"`
	FEN   string          `json:"fen,omitempty" validate:"omitempty,max=100"`
	Moves json.RawMessage `json:"moves" validate:"required"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

type MoveRequest struct {
	From      string `json:"from" validate:"required,len=2"`
	To        string `json:"to" validate:"required,len=2"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=queen rook bishop knight q r b n"`
	// Ply is the move count the submitter saw, a mismatch rejects the move
	Ply *int `json:"ply,omitempty" validate:"omitempty,min=0"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"` // Max based on longest games in history (272), theoretical max 5949
}

// Response types

type GameResponse struct {
	GameID         string          `json:"gameId"`
	FEN            string          `json:"fen"`
	Turn           string          `json:"turn"`  // "white" or "black"
	State          string          `json:"state"` // "ongoing", "white_wins", etc
	Ply            int             `json:"ply"`
	Moves          []string        `json:"moves"`
	Check          bool            `json:"check"`
	Checkmate      bool            `json:"checkmate"`
	Stalemate      bool            `json:"stalemate"`
	Draw           bool            `json:"draw"`
	HalfMoveClock  int             `json:"halfMoveClock"`
	FullMoveNumber int             `json:"fullMoveNumber"`
	Players        PlayersResponse `json:"players"`
	LastMove       *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string `json:"move"`
	PlayerColor string `json:"playerColor"`
	Score       int    `json:"score,omitempty"`
	Depth       int    `json:"depth,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type LegalMovesResponse struct {
	Square  string   `json:"square"`
	Targets []string `json:"targets"`
}

type MoveListResponse struct {
	GameID     string          `json:"gameId"`
	InitialFEN string          `json:"initialFen"`
	Ply        int             `json:"ply"`
	Moves      json.RawMessage `json:"moves"`
}

type PGNResponse struct {
	GameID  string `json:"gameId"`
	PGN     string `json:"pgn"`
	Outcome string `json:"outcome"`
}
