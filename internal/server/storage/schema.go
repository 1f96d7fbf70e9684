package storage

import "time"

// GameRecord represents a row in the games table
type GameRecord struct {
	GameID          string    `db:"game_id"`
	InitialFEN      string    `db:"initial_fen"`
	WhitePlayerID   string    `db:"white_player_id"`
	WhiteType       int       `db:"white_type"`
	WhiteDifficulty string    `db:"white_difficulty"`
	WhiteThinkTime  int       `db:"white_think_time"`
	BlackPlayerID   string    `db:"black_player_id"`
	BlackType       int       `db:"black_type"`
	BlackDifficulty string    `db:"black_difficulty"`
	BlackThinkTime  int       `db:"black_think_time"`
	StartTimeUTC    time.Time `db:"start_time_utc"`
}

// MoveRecord represents a row in the moves table. Ply is the zero-based
// index in the game's move list, MoveJSON the serialized move.
type MoveRecord struct {
	MoveID      int64     `db:"move_id"`
	GameID      string    `db:"game_id"`
	Ply         int       `db:"ply"`
	MoveJSON    string    `db:"move_json"`
	MoveUCI     string    `db:"move_uci"`
	PlayerColor string    `db:"player_color"`
	MoveTimeUTC time.Time `db:"move_time_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	initial_fen TEXT NOT NULL,
	white_player_id TEXT NOT NULL,
	white_type INTEGER NOT NULL,
	white_difficulty TEXT NOT NULL DEFAULT '',
	white_think_time INTEGER NOT NULL DEFAULT 0,
	black_player_id TEXT NOT NULL,
	black_type INTEGER NOT NULL,
	black_difficulty TEXT NOT NULL DEFAULT '',
	black_think_time INTEGER NOT NULL DEFAULT 0,
	start_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	ply INTEGER NOT NULL CHECK(ply >= 0),
	move_json TEXT NOT NULL,
	move_uci TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, ply)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_white_player ON games(white_player_id);
CREATE INDEX IF NOT EXISTS idx_games_black_player ON games(black_player_id);
`
