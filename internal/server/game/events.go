package game

import (
	"chessarena/internal/server/core"
)

type EventType int

const (
	EventTurnChanged EventType = iota + 1
	EventCheck
	EventCheckmate
	EventStalemate
	EventDraw
	EventFirstMove
)

func (e EventType) String() string {
	switch e {
	case EventTurnChanged:
		return "turn_changed"
	case EventCheck:
		return "check"
	case EventCheckmate:
		return "checkmate"
	case EventStalemate:
		return "stalemate"
	case EventDraw:
		return "draw"
	case EventFirstMove:
		return "first_move"
	default:
		return "unknown"
	}
}

// Event is a UI signal emitted after a move or an undo
type Event struct {
	Type  EventType
	Turn  core.Color // Side to move after the change
	Ply   int
	State core.State
}

// Listener receives events outside the game lock, it may call back into the game
type Listener func(Event)

// moveEvents lists the signals raised by a position reached after a move
func moveEvents(ply int, turn core.Color, state core.State, check bool) []Event {
	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Type: t, Turn: turn, Ply: ply, State: state})
	}

	if ply == 1 {
		add(EventFirstMove)
	}
	switch state {
	case core.StateWhiteWins, core.StateBlackWins:
		add(EventCheckmate)
	case core.StateStalemate:
		add(EventStalemate)
	case core.StateDraw:
		add(EventDraw)
	default:
		if check {
			add(EventCheck)
		}
		add(EventTurnChanged)
	}
	return events
}
