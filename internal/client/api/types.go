package api

import (
	"strconv"

	"chessarena/internal/server/core"
)

// Wire types shared with the server
type (
	PlayerConfig            = core.PlayerConfig
	CreateGameRequest       = core.CreateGameRequest
	ImportGameRequest       = core.ImportGameRequest
	ConfigurePlayersRequest = core.ConfigurePlayersRequest
	MoveRequest             = core.MoveRequest
	UndoRequest             = core.UndoRequest
	GameResponse            = core.GameResponse
	BoardResponse           = core.BoardResponse
	LegalMovesResponse      = core.LegalMovesResponse
	MoveListResponse        = core.MoveListResponse
	PGNResponse             = core.PGNResponse
	ErrorResponse           = core.ErrorResponse
)

const (
	PlayerHuman    = core.PlayerHuman
	PlayerComputer = core.PlayerComputer
)

type HealthResponse struct {
	Status        string `json:"status"`
	Time          int64  `json:"time"`
	Storage       string `json:"storage,omitempty"`
	ComputerGames int    `json:"computerGames"`
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Response   *ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Response != nil && e.Response.Code != "" {
		return e.Response.Code + ": " + e.Response.Error
	}
	return "request failed with status " + strconv.Itoa(e.StatusCode)
}
