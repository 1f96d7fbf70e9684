package http

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/processor"
	"chessarena/internal/server/rules"
	"chessarena/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// MessageType is the envelope kind of a websocket message
type MessageType string

const (
	MessageTypeMove    MessageType = "move"    // client: core.MoveRequest, server: MovePayload
	MessageTypeState   MessageType = "state"   // server: core.GameResponse
	MessageTypeRemoved MessageType = "removed" // server: game was deleted
	MessageTypeError   MessageType = "error"   // server: core.ErrorResponse
)

const (
	clientBuffer = 16
	writeTimeout = 10 * time.Second
)

// Message is the websocket envelope in both directions
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload announces one appended entry of the move list
type MovePayload struct {
	Ply  int                  `json:"ply"` // Index of the move in the list
	Move rules.SerializedMove `json:"move"`
}

type wsClient struct {
	send chan []byte
}

// Hub fans game changes out to websocket subscribers and implements service.Broadcaster
type Hub struct {
	proc    *processor.Processor
	svc     *service.Service
	mu      sync.Mutex
	clients map[string]map[*wsClient]struct{}
	sent    map[string]int // Move list length last announced per game
}

func NewHub(proc *processor.Processor, svc *service.Service) *Hub {
	return &Hub{
		proc:    proc,
		svc:     svc,
		clients: make(map[string]map[*wsClient]struct{}),
		sent:    make(map[string]int),
	}
}

func (h *Hub) register(gameID string, ply int) *wsClient {
	c := &wsClient{send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.clients[gameID] == nil {
		h.clients[gameID] = make(map[*wsClient]struct{})
		h.sent[gameID] = ply
	}
	h.clients[gameID][c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(gameID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[gameID][c]; !ok {
		return
	}
	delete(h.clients[gameID], c)
	close(c.send)
	if len(h.clients[gameID]) == 0 {
		delete(h.clients, gameID)
		delete(h.sent, gameID)
	}
}

// broadcast must be called with h.mu held, slow clients are dropped
func (h *Hub) broadcast(gameID string, data []byte) {
	for c := range h.clients[gameID] {
		select {
		case c.send <- data:
		default:
			log.Printf("Websocket client of game %s too slow, dropping", gameID)
			delete(h.clients[gameID], c)
			close(c.send)
		}
	}
}

func encode(t MessageType, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode %s message: %v", t, err)
		return nil
	}
	data, _ := json.Marshal(Message{Type: t, Payload: raw})
	return data
}

// GameChanged sends newly appended moves followed by the full game state
func (h *Hub) GameChanged(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients[gameID]) == 0 {
		return
	}

	g, err := h.svc.GetGame(gameID)
	if err != nil {
		return
	}
	moves := g.Moves()
	for i := h.sent[gameID]; i < len(moves); i++ {
		if data := encode(MessageTypeMove, MovePayload{Ply: i, Move: moves[i]}); data != nil {
			h.broadcast(gameID, data)
		}
	}
	h.sent[gameID] = len(moves)

	resp := h.proc.Execute(processor.NewGetGameCommand(gameID))
	if !resp.Success {
		return
	}
	if data := encode(MessageTypeState, resp.Data); data != nil {
		h.broadcast(gameID, data)
	}
}

// GameRemoved tells subscribers the game is gone and disconnects them
func (h *Hub) GameRemoved(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, _ := json.Marshal(Message{Type: MessageTypeRemoved})
	for c := range h.clients[gameID] {
		select {
		case c.send <- data:
		default:
		}
		close(c.send)
	}
	delete(h.clients, gameID)
	delete(h.sent, gameID)
}

// Count returns the number of connected subscribers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// wsUpgrade rejects non-websocket requests and unknown games before the upgrade
func (h *Hub) wsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
	}
	g, err := h.svc.GetGame(gameID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}
	c.Locals("wsPly", g.Ply())
	return c.Next()
}

// handleConn serves one subscriber until either side closes
func (h *Hub) handleConn(conn *websocket.Conn) {
	gameID := conn.Params("gameId")
	ply, _ := conn.Locals("wsPly").(int)
	client := h.register(gameID, ply)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		for data := range client.send {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Websocket write for game %s: %v", gameID, err)
				return
			}
		}
	}()

	// Initial snapshot
	if resp := h.proc.Execute(processor.NewGetGameCommand(gameID)); resp.Success {
		h.reply(gameID, client, encode(MessageTypeState, resp.Data))
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			h.reply(gameID, client, encode(MessageTypeError, core.ErrorResponse{
				Error: "invalid message",
				Code:  core.ErrInvalidRequest,
			}))
			continue
		}
		if errResp := h.handleMessage(gameID, msg); errResp != nil {
			h.reply(gameID, client, encode(MessageTypeError, errResp))
		}
	}

	h.unregister(gameID, client)
	<-done
}

// handleMessage executes a client envelope, success is announced through GameChanged
func (h *Hub) handleMessage(gameID string, msg Message) *core.ErrorResponse {
	switch msg.Type {
	case MessageTypeMove:
		var req core.MoveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return &core.ErrorResponse{Error: "invalid move payload", Code: core.ErrInvalidRequest, Details: err.Error()}
		}
		if err := validate.Struct(&req); err != nil {
			return &core.ErrorResponse{Error: "validation failed", Code: core.ErrInvalidRequest, Details: err.Error()}
		}
		resp := h.proc.Execute(processor.NewMakeMoveCommand(gameID, req))
		if !resp.Success {
			return resp.Error
		}
		return nil
	default:
		return &core.ErrorResponse{Error: "unknown message type: " + string(msg.Type), Code: core.ErrInvalidRequest}
	}
}

// reply queues a message for one subscriber
func (h *Hub) reply(gameID string, c *wsClient, data []byte) {
	if data == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[gameID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
