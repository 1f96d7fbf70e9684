package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/game"
	"chessarena/internal/server/rules"
	"chessarena/internal/server/storage"

	"github.com/google/uuid"
)

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// CreateGame registers a new game starting from start
func (s *Service) CreateGame(id string, whitePlayer, blackPlayer *core.Player, start rules.GameState) (*game.Game, error) {
	return s.addGame(id, game.New(start, whitePlayer, blackPlayer), nil)
}

// ImportGame registers a game rebuilt from a recorded move list
func (s *Service) ImportGame(id string, whitePlayer, blackPlayer *core.Player, start rules.GameState, moves []rules.SerializedMove) (*game.Game, error) {
	g, err := game.Restore(start, moves, whitePlayer, blackPlayer)
	if err != nil {
		return nil, err
	}
	return s.addGame(id, g, moves)
}

func (s *Service) addGame(id string, g *game.Game, moves []rules.SerializedMove) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrGameExists, id)
	}
	s.games[id] = g

	white, black := g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack)
	if hasComputer(white, black) {
		s.computerGames.Add(1)
	}

	if s.store != nil {
		s.store.RecordNewGame(gameRecord(id, g.InitialFEN(), white, black))
		for i, m := range moves {
			s.persistMove(id, i, m)
		}
	}
	return g, nil
}

func gameRecord(id, initialFEN string, white, black *core.Player) storage.GameRecord {
	return storage.GameRecord{
		GameID:          id,
		InitialFEN:      initialFEN,
		WhitePlayerID:   white.ID,
		WhiteType:       int(white.Type),
		WhiteDifficulty: string(white.Difficulty),
		WhiteThinkTime:  white.ThinkTime,
		BlackPlayerID:   black.ID,
		BlackType:       int(black.Type),
		BlackDifficulty: string(black.Difficulty),
		BlackThinkTime:  black.ThinkTime,
		StartTimeUTC:    time.Now().UTC(),
	}
}

func (s *Service) persistMove(gameID string, ply int, m rules.SerializedMove) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("Failed to encode move %d of game %s: %v", ply, gameID, err)
		return
	}
	s.store.RecordMove(storage.MoveRecord{
		GameID:      gameID,
		Ply:         ply,
		MoveJSON:    string(data),
		MoveUCI:     m.UCI(),
		PlayerColor: m.Piece.Color.Short(),
		MoveTimeUTC: time.Now().UTC(),
	})
}

// GetGame returns a game, reloading it from storage when it is not in memory
func (s *Service) GetGame(gameID string) (*game.Game, error) {
	s.mu.RLock()
	g, ok := s.games[gameID]
	s.mu.RUnlock()
	if ok {
		return g, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return s.restoreGame(gameID)
}

// restoreGame replays a stored game into memory
func (s *Service) restoreGame(gameID string) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.games[gameID]; ok {
		return g, nil
	}

	record, err := s.store.LoadGame(gameID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	start, err := rules.FromFEN(record.InitialFEN)
	if err != nil {
		return nil, fmt.Errorf("stored game %s has a bad start position: %w", gameID, err)
	}

	rows, err := s.store.LoadMoves(gameID)
	if err != nil {
		return nil, fmt.Errorf("load moves %s: %w", gameID, err)
	}
	moves := make([]rules.SerializedMove, 0, len(rows))
	for i, row := range rows {
		m, err := rules.DecodeMove([]byte(row.MoveJSON))
		if err != nil {
			return nil, &rules.DecodeError{Index: i, Err: err}
		}
		moves = append(moves, m)
	}

	white := playerFromRecord(record.WhitePlayerID, core.ColorWhite, record.WhiteType, record.WhiteDifficulty, record.WhiteThinkTime)
	black := playerFromRecord(record.BlackPlayerID, core.ColorBlack, record.BlackType, record.BlackDifficulty, record.BlackThinkTime)

	g, err := game.Restore(start, moves, white, black)
	if err != nil {
		return nil, fmt.Errorf("replay stored game %s: %w", gameID, err)
	}
	s.games[gameID] = g
	if hasComputer(white, black) {
		s.computerGames.Add(1)
	}
	log.Printf("Restored game %s from storage at ply %d", gameID, len(moves))
	return g, nil
}

func playerFromRecord(id string, color core.Color, playerType int, difficulty string, thinkTime int) *core.Player {
	return &core.Player{
		ID:         id,
		Color:      color,
		Type:       core.PlayerType(playerType),
		Difficulty: core.Difficulty(difficulty),
		ThinkTime:  thinkTime,
	}
}

// UpdatePlayers replaces players in an existing game
func (s *Service) UpdatePlayers(gameID string, whitePlayer, blackPlayer *core.Player) error {
	g, err := s.GetGame(gameID)
	if err != nil {
		return err
	}

	before := hasComputer(g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack))
	after := hasComputer(whitePlayer, blackPlayer)
	if !before && after {
		if !s.CanCreateComputerGame() {
			return fmt.Errorf("computer game limit reached (%d)", MaxComputerGames)
		}
		s.computerGames.Add(1)
	} else if before && !after {
		s.computerGames.Add(-1)
	}

	g.UpdatePlayers(whitePlayer, blackPlayer)
	if s.store != nil {
		s.store.UpdatePlayers(gameRecord(gameID, g.InitialFEN(), whitePlayer, blackPlayer))
	}
	s.notify(gameID)
	return nil
}

// ApplyMove plays a human move. A non-nil expectedPly must equal the game's
// move count or the move is rejected with game.ErrOutOfTurn.
func (s *Service) ApplyMove(gameID string, in rules.MoveInput, expectedPly *int) (*game.MoveResult, error) {
	g, err := s.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if g.NextPlayer().Type != core.PlayerHuman {
		return nil, ErrNotHumanTurn
	}

	ply := -1
	if expectedPly != nil {
		ply = *expectedPly
	}
	s.writeMu.Lock()
	result, err := g.ExecuteMoveAt(in, ply)
	if err == nil {
		s.persistMove(gameID, result.Ply-1, result.Record)
	}
	s.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(gameID)
	return result, nil
}

// BeginComputerMove marks the game pending and returns the position to search
func (s *Service) BeginComputerMove(gameID string) (uint64, rules.GameState, *core.Player, error) {
	g, err := s.GetGame(gameID)
	if err != nil {
		return 0, rules.GameState{}, nil, err
	}
	player := g.NextPlayer()
	if player.Type != core.PlayerComputer {
		return 0, rules.GameState{}, nil, ErrNotComputer
	}
	gen, err := g.BeginComputerMove()
	if err != nil {
		return 0, rules.GameState{}, nil, err
	}
	s.notify(gameID)
	return gen, g.Current(), player, nil
}

// CompleteComputerMove applies a bot result if the game is unchanged since BeginComputerMove
func (s *Service) CompleteComputerMove(gameID string, gen uint64, in rules.MoveInput, score, depth int) (*game.MoveResult, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	result, err := g.CompleteComputerMove(gen, in, score, depth)
	if err == nil {
		s.persistMove(gameID, result.Ply-1, result.Record)
	}
	s.writeMu.Unlock()
	if err != nil {
		// a rejected bot move leaves the game stuck, stale results change nothing
		if !errors.Is(err, game.ErrStaleResult) && !errors.Is(err, game.ErrNotPending) {
			s.notify(gameID)
		}
		return nil, err
	}

	s.notify(gameID)
	return result, nil
}

// CancelComputerMove drops a pending computer move that was never scheduled
func (s *Service) CancelComputerMove(gameID string) {
	if g, err := s.lookup(gameID); err == nil {
		g.CancelPending()
		s.notify(gameID)
	}
}

// FailComputerMove marks a pending game stuck
func (s *Service) FailComputerMove(gameID string, gen uint64) {
	g, err := s.lookup(gameID)
	if err != nil {
		return
	}
	if g.FailComputerMove(gen) {
		s.notify(gameID)
	}
}

// lookup reads only the in-memory map, results for unloaded games are dropped
func (s *Service) lookup(gameID string) (*game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// UndoMoves removes the last count moves, discarding any pending computer move
func (s *Service) UndoMoves(gameID string, count int) error {
	g, err := s.GetGame(gameID)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	err = g.UndoMoves(count)
	if err == nil && s.store != nil {
		s.store.DeleteUndoneMoves(gameID, g.Ply())
	}
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	s.notify(gameID)
	return nil
}

// DeleteGame removes a game from memory and storage
func (s *Service) DeleteGame(gameID string) error {
	if _, err := s.GetGame(gameID); err != nil {
		return err
	}

	s.mu.Lock()
	g, ok := s.games[gameID]
	delete(s.games, gameID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	g.CancelPending()
	if hasComputer(g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack)) {
		s.computerGames.Add(-1)
	}

	s.waiter.RemoveGame(gameID)
	if box, ok := s.broadcaster.Load().(broadcasterBox); ok && box.b != nil {
		box.b.GameRemoved(gameID)
	}
	if s.store != nil {
		s.store.DeleteGame(gameID)
	}
	return nil
}
