package rules

import (
	"encoding/json"
	"errors"
	"fmt"

	"chessarena/internal/server/board"
)

// SerializedMove is the wire and storage form of a move
type SerializedMove struct {
	From      board.Square    `json:"from"`
	To        board.Square    `json:"to"`
	Piece     board.Piece     `json:"piece"`
	Promotion board.PieceType `json:"promotion,omitempty"`
	Captured  *board.Piece    `json:"captured,omitempty"`
}

func Serialize(m Move) SerializedMove {
	sm := SerializedMove{
		From:      m.From,
		To:        m.To,
		Piece:     m.Piece,
		Promotion: m.Promotion,
	}
	if m.Captured != nil {
		c := *m.Captured
		sm.Captured = &c
	}
	return sm
}

func SerializeAll(moves []Move) []SerializedMove {
	out := make([]SerializedMove, len(moves))
	for i, m := range moves {
		out[i] = Serialize(m)
	}
	return out
}

// UCI returns coordinate notation of the serialized move
func (sm SerializedMove) UCI() string {
	s := sm.From.String() + sm.To.String()
	if sm.Promotion != board.NoPiece {
		s += string(sm.Promotion.Letter())
	}
	return s
}

// Validate checks the structural constraints, not chess legality
func (sm SerializedMove) Validate() error {
	if !sm.From.Valid() || !sm.To.Valid() {
		return ErrOutOfRange
	}
	if err := validatePiece(sm.Piece); err != nil {
		return err
	}
	if sm.Promotion != board.NoPiece && !sm.Promotion.IsPromotion() {
		return ErrInvalidPromotion
	}
	if sm.Captured != nil {
		if err := validatePiece(*sm.Captured); err != nil {
			return fmt.Errorf("captured: %w", err)
		}
	}
	return nil
}

func validatePiece(p board.Piece) error {
	if p.IsEmpty() {
		return ErrMissingPiece
	}
	if p.Type > board.King {
		return fmt.Errorf("unknown piece type %d", p.Type)
	}
	if !p.Color.Valid() {
		return fmt.Errorf("unknown color %d", p.Color)
	}
	return nil
}

// EncodeMoves renders the ordered move list as JSON
func EncodeMoves(moves []SerializedMove) ([]byte, error) {
	if moves == nil {
		moves = []SerializedMove{}
	}
	return json.Marshal(moves)
}

// DecodeMove parses and validates a single JSON move
func DecodeMove(data []byte) (SerializedMove, error) {
	var sm SerializedMove
	if err := json.Unmarshal(data, &sm); err != nil {
		return sm, err
	}
	return sm, sm.Validate()
}

// DecodeMoves parses a JSON move list and stops at the first malformed entry
func DecodeMoves(data []byte) ([]SerializedMove, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Index: -1, Err: err}
	}

	moves := make([]SerializedMove, 0, len(raw))
	for i, item := range raw {
		sm, err := DecodeMove(item)
		if err != nil {
			return nil, &DecodeError{Index: i, Err: err}
		}
		moves = append(moves, sm)
	}
	return moves, nil
}

// Replay folds the move list over the standard starting state
func Replay(moves []SerializedMove) (GameState, error) {
	return ReplayFrom(NewGame(), moves)
}

// ReplayFrom folds the move list over start, stopping at the first bad entry
func ReplayFrom(start GameState, moves []SerializedMove) (GameState, error) {
	state := start
	for i, sm := range moves {
		if err := sm.Validate(); err != nil {
			return GameState{}, &ReplayError{Index: i, Err: &DecodeError{Index: i, Err: err}}
		}
		if state.Board.At(sm.From) != sm.Piece {
			return GameState{}, &ReplayError{Index: i, Err: ErrPieceMismatch}
		}
		next, err := ApplyMove(state, MoveInput{From: sm.From, To: sm.To, Promotion: sm.Promotion})
		if err != nil {
			return GameState{}, &ReplayError{Index: i, Err: err}
		}
		if !sameCapture(Serialize(next.MoveHistory[len(next.MoveHistory)-1]).Captured, sm.Captured) {
			return GameState{}, &ReplayError{Index: i, Err: ErrCapturedMismatch}
		}
		state = next
	}
	return state, nil
}

func sameCapture(a, b *board.Piece) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsReplayError reports whether err came from a rejected move list
func IsReplayError(err error) bool {
	var re *ReplayError
	var de *DecodeError
	return errors.As(err, &re) || errors.As(err, &de)
}
