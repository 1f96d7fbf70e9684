package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

const gameColumns = `game_id, initial_fen,
	white_player_id, white_type, white_difficulty, white_think_time,
	black_player_id, black_type, black_difficulty, black_think_time,
	start_time_utc`

// RecordNewGame asynchronously records a new game
func (s *Store) RecordNewGame(record GameRecord) error {
	return s.enqueue("game record", func(tx *sql.Tx) error {
		query := `INSERT INTO games (` + gameColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query,
			record.GameID, record.InitialFEN,
			record.WhitePlayerID, record.WhiteType, record.WhiteDifficulty, record.WhiteThinkTime,
			record.BlackPlayerID, record.BlackType, record.BlackDifficulty, record.BlackThinkTime,
			record.StartTimeUTC,
		)
		return err
	})
}

// UpdatePlayers asynchronously replaces the player configuration of a game
func (s *Store) UpdatePlayers(record GameRecord) error {
	return s.enqueue("player update", func(tx *sql.Tx) error {
		query := `UPDATE games SET
			white_player_id = ?, white_type = ?, white_difficulty = ?, white_think_time = ?,
			black_player_id = ?, black_type = ?, black_difficulty = ?, black_think_time = ?
		WHERE game_id = ?`
		_, err := tx.Exec(query,
			record.WhitePlayerID, record.WhiteType, record.WhiteDifficulty, record.WhiteThinkTime,
			record.BlackPlayerID, record.BlackType, record.BlackDifficulty, record.BlackThinkTime,
			record.GameID,
		)
		return err
	})
}

// RecordMove asynchronously appends a move to a game's list
func (s *Store) RecordMove(record MoveRecord) error {
	return s.enqueue("move record", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			game_id, ply, move_json, move_uci, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query,
			record.GameID, record.Ply, record.MoveJSON,
			record.MoveUCI, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// DeleteUndoneMoves asynchronously truncates a move list to its first keep moves
func (s *Store) DeleteUndoneMoves(gameID string, keep int) error {
	return s.enqueue("undo", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE game_id = ? AND ply >= ?`, gameID, keep)
		return err
	})
}

// DeleteGame asynchronously removes a game and, by cascade, its moves
func (s *Store) DeleteGame(gameID string) error {
	return s.enqueue("game delete", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM games WHERE game_id = ?`, gameID)
		return err
	})
}

// QueryGames retrieves games with optional filtering, "*" or "" match everything
func (s *Store) QueryGames(gameID, playerID string) ([]GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE 1=1`
	var args []interface{}

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	if playerID != "" && playerID != "*" {
		query += " AND (white_player_id = ? OR black_player_id = ?)"
		args = append(args, playerID, playerID)
	}
	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row scanner) (GameRecord, error) {
	var g GameRecord
	err := row.Scan(
		&g.GameID, &g.InitialFEN,
		&g.WhitePlayerID, &g.WhiteType, &g.WhiteDifficulty, &g.WhiteThinkTime,
		&g.BlackPlayerID, &g.BlackType, &g.BlackDifficulty, &g.BlackThinkTime,
		&g.StartTimeUTC,
	)
	if err != nil {
		return g, fmt.Errorf("scan failed: %w", err)
	}
	return g, nil
}

// LoadGame reads a single game row
func (s *Store) LoadGame(gameID string) (GameRecord, error) {
	row := s.db.QueryRow(`SELECT `+gameColumns+` FROM games WHERE game_id = ?`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	return g, err
}

// LoadMoves returns a game's move list ordered by ply
func (s *Store) LoadMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT move_id, game_id, ply, move_json, move_uci, player_color, move_time_utc
		FROM moves WHERE game_id = ? ORDER BY ply`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.MoveID, &m.GameID, &m.Ply, &m.MoveJSON, &m.MoveUCI, &m.PlayerColor, &m.MoveTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if m.Ply != len(moves) {
			return nil, fmt.Errorf("game %s: move list has a gap at ply %d", gameID, len(moves))
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}
