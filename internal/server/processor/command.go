package processor

import (
	"chessarena/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdImportGame
	CmdConfigurePlayers
	CmdGetGame
	CmdDeleteGame
	CmdMakeMove
	CmdComputerMove
	CmdUndoMove
	CmdGetBoard
	CmdLegalMoves
	CmdGetMoves
	CmdGetPGN
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // Computer move scheduled
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{Type: CmdCreateGame, Args: req}
}

func NewImportGameCommand(req core.ImportGameRequest) Command {
	return Command{Type: CmdImportGame, Args: req}
}

func NewConfigurePlayersCommand(gameID string, req core.ConfigurePlayersRequest) Command {
	return Command{Type: CmdConfigurePlayers, GameID: gameID, Args: req}
}

func NewGetGameCommand(gameID string) Command {
	return Command{Type: CmdGetGame, GameID: gameID}
}

func NewMakeMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{Type: CmdMakeMove, GameID: gameID, Args: req}
}

func NewComputerMoveCommand(gameID string) Command {
	return Command{Type: CmdComputerMove, GameID: gameID}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{Type: CmdUndoMove, GameID: gameID, Args: req}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{Type: CmdDeleteGame, GameID: gameID}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{Type: CmdGetBoard, GameID: gameID}
}

// NewLegalMovesCommand asks for the destinations of the piece on square ("e2")
func NewLegalMovesCommand(gameID, square string) Command {
	return Command{Type: CmdLegalMoves, GameID: gameID, Args: square}
}

func NewGetMovesCommand(gameID string) Command {
	return Command{Type: CmdGetMoves, GameID: gameID}
}

func NewGetPGNCommand(gameID string) Command {
	return Command{Type: CmdGetPGN, GameID: gameID}
}
