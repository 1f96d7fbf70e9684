package processor

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/game"
	"chessarena/internal/server/pgn"
	"chessarena/internal/server/rules"
	"chessarena/internal/server/service"
)

const (
	defaultWorkers   = 2
	defaultThinkTime = 500 * time.Millisecond
)

// Processor handles command execution and coordinates between service and engine layers
type Processor struct {
	svc   *service.Service
	queue *EngineQueue
}

// New creates a processor with its own bot worker pool
func New(svc *service.Service, workers int, thinkTime time.Duration) *Processor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if thinkTime < 0 {
		thinkTime = defaultThinkTime
	}
	return &Processor{
		svc:   svc,
		queue: NewEngineQueue(workers, thinkTime),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdImportGame:
		return p.handleImportGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdComputerMove:
		return p.handleComputerMove(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdLegalMoves:
		return p.handleLegalMoves(cmd)
	case CmdGetMoves:
		return p.handleGetMoves(cmd)
	case CmdGetPGN:
		return p.handleGetPGN(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// isFENSafe rejects control characters before the FEN reaches the parser
func isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// startState resolves the optional FEN of a create or import request
func startState(fen string) (rules.GameState, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return rules.NewGame(), nil
	}
	if !isFENSafe(fen) {
		return rules.GameState{}, fmt.Errorf("FEN contains control characters")
	}
	return rules.FromFEN(fen)
}

// players builds both players, letting the colour picker swap the configs
func (p *Processor) players(white, black core.PlayerConfig, random bool) (*core.Player, *core.Player) {
	if random && p.svc.PickColor() == core.ColorBlack {
		white, black = black, white
	}
	return core.NewPlayer(white, core.ColorWhite), core.NewPlayer(black, core.ColorBlack)
}

func involvesComputer(white, black core.PlayerConfig) bool {
	return white.Type == core.PlayerComputer || black.Type == core.PlayerComputer
}

// handleCreateGame creates a new game from the standard or a custom start
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if involvesComputer(args.White, args.Black) && !p.svc.CanCreateComputerGame() {
		return p.errorResponse(fmt.Sprintf("computer game limit reached (%d)", service.MaxComputerGames), core.ErrResourceLimit)
	}

	start, err := startState(args.FEN)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("invalid FEN: %v", err), core.ErrInvalidFEN)
	}

	whitePlayer, blackPlayer := p.players(args.White, args.Black, args.RandomColors)

	gameID := p.svc.GenerateGameID()
	g, err := p.svc.CreateGame(gameID, whitePlayer, blackPlayer, start)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(gameID, g),
	}
}

// handleImportGame rebuilds a game from a recorded move list
func (p *Processor) handleImportGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ImportGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if involvesComputer(args.White, args.Black) && !p.svc.CanCreateComputerGame() {
		return p.errorResponse(fmt.Sprintf("computer game limit reached (%d)", service.MaxComputerGames), core.ErrResourceLimit)
	}

	start, err := startState(args.FEN)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("invalid FEN: %v", err), core.ErrInvalidFEN)
	}

	moves, err := rules.DecodeMoves(args.Moves)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidMoveList)
	}

	whitePlayer, blackPlayer := p.players(args.White, args.Black, false)

	gameID := p.svc.GenerateGameID()
	g, err := p.svc.ImportGame(gameID, whitePlayer, blackPlayer, start, moves)
	if err != nil {
		return p.mapError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(gameID, g),
	}
}

// handleConfigurePlayers updates player configuration mid-game
func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	// Block configuration changes during computer move
	if g.State() == core.StatePending {
		return p.errorResponse("cannot change players while computer is calculating", core.ErrInvalidRequest)
	}

	whitePlayer := core.NewPlayer(args.White, core.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, core.ColorBlack)

	if err = p.svc.UpdatePlayers(cmd.GameID, whitePlayer, blackPlayer); err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			return p.mapError(err)
		}
		return p.errorResponse(err.Error(), core.ErrResourceLimit)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleGetGame retrieves game state
func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// parseMoveRequest converts the wire request into a rules input
func parseMoveRequest(args core.MoveRequest) (rules.MoveInput, error) {
	from, err := board.ParseSquare(strings.ToLower(strings.TrimSpace(args.From)))
	if err != nil {
		return rules.MoveInput{}, err
	}
	to, err := board.ParseSquare(strings.ToLower(strings.TrimSpace(args.To)))
	if err != nil {
		return rules.MoveInput{}, err
	}
	promo, err := board.ParsePieceType(strings.ToLower(strings.TrimSpace(args.Promotion)))
	if err != nil {
		return rules.MoveInput{}, err
	}
	if promo != board.NoPiece && !promo.IsPromotion() {
		return rules.MoveInput{}, rules.ErrInvalidPromotion
	}
	return rules.MoveInput{From: from, To: to, Promotion: promo}, nil
}

// handleMakeMove processes human moves
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	in, err := parseMoveRequest(args)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("invalid move format: %v", err), core.ErrInvalidMove)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}
	if g.State() == core.StateStuck {
		return p.errorResponse("game is stuck due to engine error", core.ErrGameOver)
	}

	result, err := p.svc.ApplyMove(cmd.GameID, in, args.Ply)
	if err != nil {
		return p.mapError(err)
	}

	response := p.buildGameResponse(cmd.GameID, g)
	response.LastMove = moveInfo(result)

	return ProcessorResponse{
		Success: true,
		Data:    response,
	}
}

// handleComputerMove marks the game pending and schedules a bot search
func (p *Processor) handleComputerMove(cmd Command) ProcessorResponse {
	gen, state, player, err := p.svc.BeginComputerMove(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	task := EngineTask{
		GameID:     cmd.GameID,
		Generation: gen,
		State:      state,
		Player:     player,
	}
	if err := p.queue.SubmitAsync(task, p.applyEngineResult); err != nil {
		p.svc.CancelComputerMove(cmd.GameID)
		return p.errorResponse(fmt.Sprintf("engine unavailable: %v", err), core.ErrResourceLimit)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}
	response := p.buildGameResponse(cmd.GameID, g)
	response.LastMove = &core.MoveInfo{
		PlayerColor: player.Color.String(),
	}

	return ProcessorResponse{
		Success: true,
		Pending: true,
		Data:    response,
	}
}

// applyEngineResult runs on the queue's callback goroutine
func (p *Processor) applyEngineResult(result EngineResult) {
	if result.Error != nil {
		log.Printf("Engine error for game %s: %v", result.GameID, result.Error)
		p.svc.FailComputerMove(result.GameID, result.Generation)
		return
	}
	if !result.Found {
		// Terminal positions are rejected by BeginComputerMove
		log.Printf("Engine found no move for game %s", result.GameID)
		p.svc.FailComputerMove(result.GameID, result.Generation)
		return
	}

	_, err := p.svc.CompleteComputerMove(result.GameID, result.Generation, result.Move.Input(), result.Score, result.Depth)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrStaleResult), errors.Is(err, game.ErrNotPending), errors.Is(err, service.ErrGameNotFound):
		// Game was undone, reconfigured or deleted while the bot was thinking
	default:
		log.Printf("Engine move %s rejected for game %s: %v", result.Move.UCI(), result.GameID, err)
	}
}

// handleUndoMove reverts the last moves, discarding a pending computer move
func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if cmd.Args != nil {
		if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
			args = req
		}
	}

	if err := p.svc.UndoMoves(cmd.GameID, args.Count); err != nil {
		return p.mapError(err)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    p.buildGameResponse(cmd.GameID, g),
	}
}

// handleDeleteGame removes a game, a pending bot result is dropped on arrival
func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.mapError(err)
	}

	return ProcessorResponse{
		Success: true,
	}
}

// handleGetBoard returns board visualization
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	state := g.Current()
	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			FEN:   state.FEN(),
			Board: state.Board.ToASCII(),
		},
	}
}

// handleLegalMoves lists destinations of the piece on the requested square
func (p *Processor) handleLegalMoves(cmd Command) ProcessorResponse {
	square, ok := cmd.Args.(string)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	sq, err := board.ParseSquare(strings.ToLower(strings.TrimSpace(square)))
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	targets := g.LegalMoves(sq)
	resp := core.LegalMovesResponse{
		Square:  sq.String(),
		Targets: make([]string, len(targets)),
	}
	for i, t := range targets {
		resp.Targets[i] = t.String()
	}

	return ProcessorResponse{
		Success: true,
		Data:    resp,
	}
}

// handleGetMoves returns the serialized move list for client-side replay
func (p *Processor) handleGetMoves(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	moves := g.Moves()
	data, err := rules.EncodeMoves(moves)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to encode moves: %v", err), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.MoveListResponse{
			GameID:     cmd.GameID,
			InitialFEN: g.InitialFEN(),
			Ply:        len(moves),
			Moves:      data,
		},
	}
}

// handleGetPGN renders the game in portable game notation
func (p *Processor) handleGetPGN(cmd Command) ProcessorResponse {
	g, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.mapError(err)
	}

	snap := g.Snapshot()
	tags := map[string]string{
		"Event": "chessarena",
		"Site":  cmd.GameID,
		"White": playerLabel(snap.White),
		"Black": playerLabel(snap.Black),
	}
	export, err := pgn.Render(snap.InitialFEN, g.Moves(), tags)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("failed to render PGN: %v", err), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.PGNResponse{
			GameID:  cmd.GameID,
			PGN:     export.PGN,
			Outcome: export.Outcome,
		},
	}
}

func playerLabel(pl *core.Player) string {
	if pl == nil {
		return "?"
	}
	if pl.Type == core.PlayerComputer {
		return "computer (" + string(pl.Difficulty) + ")"
	}
	return "human"
}

func moveInfo(result *game.MoveResult) *core.MoveInfo {
	if result == nil {
		return nil
	}
	return &core.MoveInfo{
		Move:        result.Move,
		PlayerColor: result.PlayerColor.String(),
		Score:       result.Score,
		Depth:       result.Depth,
	}
}

// buildGameResponse constructs standard game response from one consistent snapshot
func (p *Processor) buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	snap := g.Snapshot()
	return core.GameResponse{
		GameID:         gameID,
		FEN:            snap.State.FEN(),
		Turn:           snap.State.Turn.String(),
		State:          snap.Status.String(),
		Ply:            len(snap.Moves),
		Moves:          snap.Moves,
		Check:          snap.State.IsCheck,
		Checkmate:      snap.State.IsCheckmate,
		Stalemate:      snap.State.IsStalemate,
		Draw:           snap.State.IsDraw,
		HalfMoveClock:  snap.State.HalfMoveClock,
		FullMoveNumber: snap.State.FullMoveNumber,
		Players: core.PlayersResponse{
			White: snap.White,
			Black: snap.Black,
		},
		LastMove: moveInfo(snap.LastResult),
	}
}

// mapError translates service and domain errors into response codes
func (p *Processor) mapError(err error) ProcessorResponse {
	var invalid *rules.InvalidMoveError
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return p.errorResponse("game not found", core.ErrGameNotFound)
	case errors.Is(err, service.ErrNotHumanTurn):
		return p.errorResponse("not human player's turn", core.ErrNotHumanTurn)
	case errors.Is(err, service.ErrNotComputer):
		return p.errorResponse("not computer player's turn", core.ErrNotComputerTurn)
	case errors.Is(err, game.ErrOutOfTurn):
		return p.errorResponse(err.Error(), core.ErrOutOfTurn)
	case errors.Is(err, game.ErrGameOver):
		return p.errorResponse("game is over", core.ErrGameOver)
	case errors.Is(err, game.ErrMovePending):
		return p.errorResponse("computer move in progress", core.ErrInvalidRequest)
	case errors.Is(err, game.ErrInvalidUndo):
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	case errors.As(err, &invalid):
		return p.errorResponse(err.Error(), core.ErrInvalidMove)
	case rules.IsReplayError(err):
		return p.errorResponse(err.Error(), core.ErrInvalidMoveList)
	default:
		return p.errorResponse(err.Error(), core.ErrInternalError)
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close stops the bot workers
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}
