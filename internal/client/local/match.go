// Package local runs a game against the bot in-process, without a server.
package local

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/engine"
	"chessarena/internal/server/game"
	"chessarena/internal/server/rules"
)

var ErrBotTurn = errors.New("it is the computer's turn")

// Config selects the human side and the opponent
type Config struct {
	Human      core.Color
	Difficulty core.Difficulty
	Delay      time.Duration // Pause before the bot starts searching
	FEN        string        // Empty for the standard start position
}

// Match schedules bot replies for a single human player. At most one bot
// computation is in flight, reset and undo discard it.
type Match struct {
	mu       sync.Mutex
	cfg      Config
	game     *game.Game
	timer    *time.Timer
	listener game.Listener

	botMu sync.Mutex
	bot   *engine.Bot
}

func NewMatch(cfg Config, src rand.Source) (*Match, error) {
	if !cfg.Human.Valid() {
		cfg.Human = core.ColorWhite
	}
	if !cfg.Difficulty.Valid() {
		cfg.Difficulty = core.DifficultyNormal
	}
	m := &Match{cfg: cfg, bot: engine.NewBot(src)}
	if err := m.Reset(cfg.FEN); err != nil {
		return nil, err
	}
	return m, nil
}

// SetListener receives the events of the current and every later game.
// Events fire outside the match lock.
func (m *Match) SetListener(l game.Listener) {
	m.mu.Lock()
	m.listener = l
	m.game.SetListener(l)
	m.mu.Unlock()
}

// Game returns the game currently being played
func (m *Match) Game() *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game
}

func (m *Match) Human() core.Color {
	return m.cfg.Human
}

func (m *Match) Difficulty() core.Difficulty {
	return m.cfg.Difficulty
}

// Thinking reports whether a bot move is in flight
func (m *Match) Thinking() bool {
	return m.Game().State() == core.StatePending
}

// Reset abandons the current game and starts a new one from fen
func (m *Match) Reset(fen string) error {
	start := rules.NewGame()
	if fen != "" {
		var err error
		if start, err = rules.FromFEN(fen); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortLocked()

	white := &core.Player{ID: "local-white", Color: core.ColorWhite, Type: core.PlayerHuman}
	black := &core.Player{ID: "local-black", Color: core.ColorBlack, Type: core.PlayerHuman}
	bot := &core.Player{ID: "local-bot", Type: core.PlayerComputer, Difficulty: m.cfg.Difficulty}
	if m.cfg.Human == core.ColorWhite {
		bot.Color = core.ColorBlack
		black = bot
	} else {
		bot.Color = core.ColorWhite
		white = bot
	}

	m.game = game.New(start, white, black)
	m.game.SetListener(m.listener)
	m.scheduleLocked()
	return nil
}

// Play applies a human move and schedules the bot's reply
func (m *Match) Play(in rules.MoveInput) (*game.MoveResult, error) {
	g := m.Game()
	if g.State() == core.StateOngoing && g.NextTurnColor() != m.cfg.Human {
		return nil, ErrBotTurn
	}
	result, err := g.ExecuteMove(in)
	if err != nil {
		return nil, err
	}
	m.schedule(g)
	return result, nil
}

// Undo takes back the last human move together with the bot reply after it,
// a pending bot move is discarded first
func (m *Match) Undo() error {
	m.mu.Lock()
	m.abortLocked()
	g := m.game
	m.mu.Unlock()

	count := 2
	if g.NextTurnColor() != m.cfg.Human {
		count = 1
	}
	if count > g.Ply() {
		count = g.Ply()
	}
	if count == 0 {
		return game.ErrInvalidUndo
	}
	if err := g.UndoMoves(count); err != nil {
		return err
	}
	m.schedule(g)
	return nil
}

// Close discards any pending bot move
func (m *Match) Close() {
	m.mu.Lock()
	m.abortLocked()
	m.mu.Unlock()
}

func (m *Match) abortLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.game != nil {
		m.game.CancelPending()
	}
}

// schedule starts the bot on g unless the match moved on to another game
func (m *Match) schedule(g *game.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.game == g {
		m.scheduleLocked()
	}
}

// scheduleLocked starts a bot move when it is the bot's turn
func (m *Match) scheduleLocked() {
	g := m.game
	if g.State() != core.StateOngoing || g.NextTurnColor() == m.cfg.Human {
		return
	}
	gen, err := g.BeginComputerMove()
	if err != nil {
		return
	}
	m.timer = time.AfterFunc(m.cfg.Delay, func() { m.think(g, gen) })
}

// think runs on the timer goroutine. Results for a replaced game or a
// cancelled generation are dropped by the game itself.
func (m *Match) think(g *game.Game, gen uint64) {
	if g.Generation() != gen || g.State() != core.StatePending {
		return
	}

	m.botMu.Lock()
	result, ok := m.bot.Move(g.Current(), m.cfg.Difficulty)
	m.botMu.Unlock()

	if !ok {
		g.FailComputerMove(gen)
		return
	}
	if _, err := g.CompleteComputerMove(gen, result.Move.Input(), result.Score, result.Depth); err != nil {
		if !errors.Is(err, game.ErrStaleResult) && !errors.Is(err, game.ErrNotPending) {
			log.Printf("Local bot move %s rejected: %v", result.Move.UCI(), err)
		}
	}
}
