package rules

import (
	"errors"
	"fmt"

	"chessarena/internal/server/board"
)

var (
	ErrOutOfRange       = errors.New("square out of range")
	ErrNoPiece          = errors.New("no piece on source square")
	ErrWrongTurn        = errors.New("piece does not belong to the side to move")
	ErrIllegalTarget    = errors.New("destination is not a legal move")
	ErrInvalidPromotion = errors.New("invalid promotion piece")
	ErrGameFinished     = errors.New("game is already finished")
	ErrMissingPiece     = errors.New("missing piece")
	ErrPieceMismatch    = errors.New("recorded piece does not match the board")
	ErrCapturedMismatch = errors.New("recorded capture does not match the board")
)

// InvalidMoveError is returned by ApplyMove for any rejected input
type InvalidMoveError struct {
	From board.Square
	To   board.Square
	Err  error
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move %s-%s: %v", e.From, e.To, e.Err)
}

func (e *InvalidMoveError) Unwrap() error {
	return e.Err
}

// DecodeError reports a malformed serialized move
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("move %d: malformed: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReplayError reports the first move of a list that could not be applied
type ReplayError struct {
	Index int
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay stopped at move %d: %v", e.Index, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}
