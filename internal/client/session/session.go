// Package session holds the state of one interactive client.
package session

import (
	"io"
	"os"

	"chessarena/internal/client/api"
	"chessarena/internal/client/local"
)

type Session struct {
	APIBaseURL       string
	Client           *api.Client
	Match            *local.Match // Set in offline mode
	Verbose          bool
	CurrentGame      string
	CurrentGameState *api.GameResponse
	PlayerColor      string
	LastMoveCount    int
	Output           io.Writer
}

func (s *Session) GetAPIBaseURL() string { return s.APIBaseURL }
func (s *Session) SetAPIBaseURL(url string) { s.APIBaseURL = url }
func (s *Session) GetCurrentGame() string { return s.CurrentGame }
func (s *Session) GetLastMoveCount() int { return s.LastMoveCount }
func (s *Session) SetLastMoveCount(n int) { s.LastMoveCount = n }
func (s *Session) GetClient() *api.Client { return s.Client }
func (s *Session) GetMatch() *local.Match { return s.Match }
func (s *Session) IsVerbose() bool { return s.Verbose }
func (s *Session) GetPlayerColor() string { return s.PlayerColor }
func (s *Session) SetPlayerColor(color string) { s.PlayerColor = color }

// SetCurrentGame switches games and forgets the cached state of the previous one
func (s *Session) SetCurrentGame(gameID string) {
	if gameID != s.CurrentGame {
		s.CurrentGameState = nil
		s.PlayerColor = ""
	}
	s.CurrentGame = gameID
}

func (s *Session) GetGameState() *api.GameResponse {
	return s.CurrentGameState
}

func (s *Session) SetGameState(state *api.GameResponse) {
	s.CurrentGameState = state
	if state != nil {
		s.LastMoveCount = state.Ply
	}
}

func (s *Session) Out() io.Writer {
	if s.Output == nil {
		return os.Stdout
	}
	return s.Output
}
