package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/processor"
	"chessarena/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

const rateLimitRate = 10 // req/sec

// Options tunes the API app
type Options struct {
	DevMode   bool
	RateLimit int  // Requests per second per client, 0 uses the default, negative disables
	Hub       *Hub // Websocket subscriptions, nil disables /ws
}

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, opts Options) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	if opts.Hub != nil {
		app.Get("/ws/games/:gameId", opts.Hub.wsUpgrade, websocket.New(opts.Hub.handleConn, websocket.Config{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		}))
	}

	api := app.Group("/api/v1")

	maxReq := opts.RateLimit
	if maxReq == 0 {
		maxReq = rateLimitRate
	}
	if opts.DevMode {
		maxReq *= 2
	}
	if maxReq > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        maxReq,
			Expiration: 1 * time.Second,
			KeyGenerator: func(c *fiber.Ctx) string {
				if xff := c.Get("X-Forwarded-For"); xff != "" {
					if idx := strings.Index(xff, ","); idx != -1 {
						return strings.TrimSpace(xff[:idx])
					}
					return xff
				}
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
					Error:   "rate limit exceeded",
					Code:    core.ErrRateLimitExceeded,
					Details: fmt.Sprintf("%d requests per second allowed", maxReq),
				})
			},
		}))
	}

	// Content-Type validation for POST and PUT requests
	api.Use(contentTypeValidator)

	// Middleware validation for sanitization
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Post("/games/import", h.ImportGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Put("/games/:gameId/players", h.ConfigurePlayers)
	api.Get("/games/:gameId/moves", h.GetMoves)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Post("/games/:gameId/computer", h.ComputerMove)
	api.Post("/games/:gameId/undo", h.UndoMove)
	api.Get("/games/:gameId/board", h.GetBoard)
	api.Get("/games/:gameId/legal", h.GetLegalMoves)
	api.Get("/games/:gameId/pgn", h.GetPGN)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest, fiber.StatusUpgradeRequired, fiber.StatusMethodNotAllowed:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps processor error codes onto HTTP statuses
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrOutOfTurn, core.ErrNotHumanTurn, core.ErrNotComputerTurn, core.ErrGameOver:
		return fiber.StatusConflict
	case core.ErrResourceLimit:
		return fiber.StatusServiceUnavailable
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// respond writes a processor response with the given success status
func respond(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Pending {
		okStatus = fiber.StatusAccepted
	}
	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

// gameID reads and validates the :gameId route parameter
func gameID(c *fiber.Ctx) (string, bool) {
	id := c.Params("gameId")
	return id, isValidUUID(id)
}

func invalidGameID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid game ID format",
		Code:    core.ErrInvalidRequest,
		Details: "game ID must be a valid UUID",
	})
}

// validatedBody returns the request parsed by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) (T, bool) {
	var zero T
	if validated, ok := c.Locals("validated").(bool); !ok || !validated {
		return zero, false
	}
	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return zero, false
	}
	return *body, true
}

func validationMissing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: "validation bypass detected",
		Code:  core.ErrInternalError,
	})
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "healthy",
		"time":          time.Now().Unix(),
		"storage":       h.svc.GetStorageHealth(),
		"computerGames": h.svc.GetComputerGameCount(),
	})
}

// CreateGame creates a new game with specified player types
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, ok := validatedBody[core.CreateGameRequest](c)
	if !ok {
		return validationMissing(c)
	}
	return respond(c, h.proc.Execute(processor.NewCreateGameCommand(req)), fiber.StatusCreated)
}

// ImportGame creates a game from a serialized move list
func (h *HTTPHandler) ImportGame(c *fiber.Ctx) error {
	req, ok := validatedBody[core.ImportGameRequest](c)
	if !ok {
		return validationMissing(c)
	}
	return respond(c, h.proc.Execute(processor.NewImportGameCommand(req)), fiber.StatusCreated)
}

// ConfigurePlayers updates player configuration mid-game
func (h *HTTPHandler) ConfigurePlayers(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req, ok := validatedBody[core.ConfigurePlayersRequest](c)
	if !ok {
		return validationMissing(c)
	}
	return respond(c, h.proc.Execute(processor.NewConfigurePlayersCommand(id, req)), fiber.StatusOK)
}

// GetGame retrieves current game state, with ?wait=true&moveCount=N it
// blocks until the game changes from the caller's view
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	if c.Query("wait", "false") != "true" {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(id)), fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}

	g, err := h.svc.GetGame(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}

	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()

	// Register before comparing so a change in between is not missed
	notify := h.svc.RegisterWait(ctx, id)
	if moveCount != g.Ply() {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(id)), fiber.StatusOK)
	}

	select {
	case <-notify:
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(id)), fiber.StatusOK)
	case <-ctx.Done():
		return nil
	}
}

// MakeMove submits a human move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req, ok := validatedBody[core.MoveRequest](c)
	if !ok {
		return validationMissing(c)
	}
	return respond(c, h.proc.Execute(processor.NewMakeMoveCommand(id, req)), fiber.StatusOK)
}

// ComputerMove asks the bot to play for the side to move
func (h *HTTPHandler) ComputerMove(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	return respond(c, h.proc.Execute(processor.NewComputerMoveCommand(id)), fiber.StatusOK)
}

// UndoMove undoes one or more moves
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req, ok := validatedBody[core.UndoRequest](c)
	if !ok {
		return validationMissing(c)
	}
	return respond(c, h.proc.Execute(processor.NewUndoMoveCommand(id, req)), fiber.StatusOK)
}

// DeleteGame ends and cleans up a game
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	return respond(c, h.proc.Execute(processor.NewDeleteGameCommand(id)), fiber.StatusNoContent)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	return respond(c, h.proc.Execute(processor.NewGetBoardCommand(id)), fiber.StatusOK)
}

// GetLegalMoves lists destinations for ?square=e2
func (h *HTTPHandler) GetLegalMoves(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	square := c.Query("square")
	if square == "" {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error: "square query parameter is required",
			Code:  core.ErrInvalidRequest,
		})
	}
	return respond(c, h.proc.Execute(processor.NewLegalMovesCommand(id, square)), fiber.StatusOK)
}

// GetMoves returns the serialized move list
func (h *HTTPHandler) GetMoves(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	return respond(c, h.proc.Execute(processor.NewGetMovesCommand(id)), fiber.StatusOK)
}

// GetPGN exports the game in portable game notation
func (h *HTTPHandler) GetPGN(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	resp := h.proc.Execute(processor.NewGetPGNCommand(id))
	if resp.Success && c.Query("format") == "text" {
		if out, ok := resp.Data.(core.PGNResponse); ok {
			c.Set(fiber.HeaderContentType, "application/x-chess-pgn")
			return c.SendString(out.PGN)
		}
	}
	return respond(c, resp, fiber.StatusOK)
}
