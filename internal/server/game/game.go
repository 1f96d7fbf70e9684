package game

import (
	"errors"
	"fmt"
	"sync"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/rules"

	"golang.org/x/exp/slices"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrMovePending = errors.New("computer move in progress")
	ErrStaleResult = errors.New("game changed while the computer was thinking")
	ErrInvalidUndo = errors.New("invalid undo count")
	ErrNotPending  = errors.New("game is not waiting for a computer move")
	ErrOutOfTurn   = errors.New("move was made against a stale ply")
)

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move        string               `json:"move"`
	PlayerColor core.Color           `json:"playerColor"`
	GameState   core.State           `json:"gameState"`
	Score       int                  `json:"score"`
	Depth       int                  `json:"depth"`
	Ply         int                  `json:"ply"` // Move count after this move
	Record      rules.SerializedMove `json:"-"`
}

// Game is one match: a start position, its append-only move list and the
// derived current state. All methods are safe for concurrent use.
type Game struct {
	mu         sync.RWMutex
	start      rules.GameState
	current    rules.GameState
	moves      []rules.SerializedMove
	players    map[core.Color]*core.Player
	state      core.State
	lastResult *MoveResult
	selected   *board.Square
	generation uint64
	listener   Listener
}

// Snapshot is a consistent read of everything a response needs
type Snapshot struct {
	InitialFEN string
	State      rules.GameState
	Status     core.State
	Moves      []string
	White      *core.Player
	Black      *core.Player
	LastResult *MoveResult
}

func New(start rules.GameState, whitePlayer, blackPlayer *core.Player) *Game {
	return &Game{
		start:   start,
		current: start,
		players: map[core.Color]*core.Player{
			core.ColorWhite: whitePlayer,
			core.ColorBlack: blackPlayer,
		},
		state: start.Outcome(),
	}
}

// Restore rebuilds a game by replaying a recorded move list over start
func Restore(start rules.GameState, moves []rules.SerializedMove, whitePlayer, blackPlayer *core.Player) (*Game, error) {
	current, err := rules.ReplayFrom(start, moves)
	if err != nil {
		return nil, err
	}
	g := New(start, whitePlayer, blackPlayer)
	g.current = current
	g.moves = slices.Clone(moves)
	g.state = current.Outcome()
	return g, nil
}

// SetListener installs the UI signal receiver, nil disables events
func (g *Game) SetListener(l Listener) {
	g.mu.Lock()
	g.listener = l
	g.mu.Unlock()
}

func (g *Game) emit(l Listener, events []Event) {
	if l == nil {
		return
	}
	for _, e := range events {
		l(e)
	}
}

func (g *Game) InitialFEN() string {
	return g.start.FEN()
}

func (g *Game) CurrentFEN() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current.FEN()
}

func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	moves := make([]string, len(g.moves))
	for i, m := range g.moves {
		moves[i] = m.UCI()
	}
	return Snapshot{
		InitialFEN: g.start.FEN(),
		State:      g.current,
		Status:     g.state,
		Moves:      moves,
		White:      g.players[core.ColorWhite],
		Black:      g.players[core.ColorBlack],
		LastResult: g.lastResult,
	}
}

// Current returns the latest rules state
func (g *Game) Current() rules.GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Ply is the number of moves played, white moves at even plies of a standard start
func (g *Game) Ply() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.moves)
}

// Generation changes on every move, undo and cancellation
func (g *Game) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

func (g *Game) NextTurnColor() core.Color {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current.Turn
}

func (g *Game) NextPlayer() *core.Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.players[g.current.Turn]
}

func (g *Game) GetPlayer(color core.Color) *core.Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.players[color]
}

func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players[core.ColorWhite] = whitePlayer
	g.players[core.ColorBlack] = blackPlayer
	if g.state == core.StateStuck {
		g.state = core.StateOngoing
	}
}

func (g *Game) State() core.State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Game) LastResult() *MoveResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastResult
}

// Moves returns a copy of the recorded move list
func (g *Game) Moves() []rules.SerializedMove {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.moves)
}

// MoveStrings returns the move list in coordinate notation
func (g *Game) MoveStrings() []string {
	return g.Snapshot().Moves
}

// LegalMoves lists the legal destinations of the piece on sq
func (g *Game) LegalMoves(sq board.Square) []board.Square {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.legalFrom(sq)
}

func (g *Game) legalFrom(sq board.Square) []board.Square {
	if !sq.Valid() || g.current.IsOver() {
		return nil
	}
	p := g.current.Board.At(sq)
	if p.IsEmpty() || p.Color != g.current.Turn {
		return nil
	}
	return rules.LegalMoves(&g.current.Board, sq, g.current.Castling, g.current.EnPassant)
}

// SelectSquare selects the side to move's piece on sq and returns its legal
// destinations. Any other square clears the selection.
func (g *Game) SelectSquare(sq board.Square) []board.Square {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !sq.Valid() || g.current.IsOver() || g.current.Board.At(sq).IsEmpty() || g.current.Board.At(sq).Color != g.current.Turn {
		g.selected = nil
		return nil
	}
	selected := sq
	g.selected = &selected
	return rules.LegalMoves(&g.current.Board, sq, g.current.Castling, g.current.EnPassant)
}

// Selected returns the current selection
func (g *Game) Selected() (board.Square, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.selected == nil {
		return board.Square{}, false
	}
	return *g.selected, true
}

// ExecuteMove applies a human move
func (g *Game) ExecuteMove(in rules.MoveInput) (*MoveResult, error) {
	return g.ExecuteMoveAt(in, -1)
}

// ExecuteMoveAt applies a human move only if the game is still at ply,
// a negative ply skips the check
func (g *Game) ExecuteMoveAt(in rules.MoveInput, ply int) (*MoveResult, error) {
	g.mu.Lock()
	switch {
	case g.state.IsOver():
		g.mu.Unlock()
		return nil, ErrGameOver
	case g.state == core.StatePending:
		g.mu.Unlock()
		return nil, ErrMovePending
	case ply >= 0 && ply != len(g.moves):
		current := len(g.moves)
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: expected %d, game is at %d", ErrOutOfTurn, ply, current)
	}
	result, events, err := g.apply(in, 0, 0)
	l := g.listener
	g.mu.Unlock()

	if err != nil {
		return nil, err
	}
	g.emit(l, events)
	return result, nil
}

// BeginComputerMove marks the game pending and returns the generation the
// eventual result must match
func (g *Game) BeginComputerMove() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.state.IsOver():
		return 0, ErrGameOver
	case g.state == core.StatePending:
		return 0, ErrMovePending
	}
	g.state = core.StatePending
	return g.generation, nil
}

// CompleteComputerMove applies a bot result computed for generation gen
func (g *Game) CompleteComputerMove(gen uint64, in rules.MoveInput, score, depth int) (*MoveResult, error) {
	g.mu.Lock()
	switch {
	case g.state != core.StatePending:
		g.mu.Unlock()
		return nil, ErrNotPending
	case g.generation != gen:
		g.mu.Unlock()
		return nil, ErrStaleResult
	}
	g.state = core.StateOngoing
	result, events, err := g.apply(in, score, depth)
	if err != nil {
		g.state = core.StateStuck
	}
	l := g.listener
	g.mu.Unlock()

	if err != nil {
		return nil, err
	}
	g.emit(l, events)
	return result, nil
}

// FailComputerMove marks a pending game stuck if gen is still current
func (g *Game) FailComputerMove(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != core.StatePending || g.generation != gen {
		return false
	}
	g.state = core.StateStuck
	return true
}

// CancelPending discards an in-flight computer move
func (g *Game) CancelPending() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == core.StatePending {
		g.state = g.current.Outcome()
		g.generation++
	}
}

// apply runs under the write lock
func (g *Game) apply(in rules.MoveInput, score, depth int) (*MoveResult, []Event, error) {
	next, err := rules.ApplyMove(g.current, in)
	if err != nil {
		return nil, nil, err
	}
	move := next.MoveHistory[len(next.MoveHistory)-1]
	record := rules.Serialize(move)

	g.current = next
	g.moves = append(g.moves, record)
	g.state = next.Outcome()
	g.selected = nil
	g.generation++
	g.lastResult = &MoveResult{
		Move:        move.UCI(),
		PlayerColor: move.Piece.Color,
		GameState:   g.state,
		Score:       score,
		Depth:       depth,
		Ply:         len(g.moves),
		Record:      record,
	}
	return g.lastResult, moveEvents(len(g.moves), next.Turn, g.state, next.IsCheck), nil
}

// UndoMoves takes back the last count moves by replaying the remaining prefix
func (g *Game) UndoMoves(count int) error {
	g.mu.Lock()
	if count < 1 || count > len(g.moves) {
		g.mu.Unlock()
		return fmt.Errorf("%w: cannot undo %d of %d moves", ErrInvalidUndo, count, len(g.moves))
	}

	keep := g.moves[:len(g.moves)-count]
	current, err := rules.ReplayFrom(g.start, keep)
	if err != nil {
		g.mu.Unlock()
		return fmt.Errorf("replay after undo: %w", err)
	}
	g.current = current
	g.moves = slices.Clone(keep)
	g.state = current.Outcome()
	g.lastResult = nil
	g.selected = nil
	g.generation++
	l := g.listener
	event := Event{Type: EventTurnChanged, Turn: current.Turn, Ply: len(g.moves), State: g.state}
	g.mu.Unlock()

	g.emit(l, []Event{event})
	return nil
}
