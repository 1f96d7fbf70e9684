package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/game"
	"chessarena/internal/server/storage"
)

const (
	MaxComputerGames = 10
	recentColorPicks = 4
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
	ErrNotHumanTurn = errors.New("not a human player's turn")
	ErrNotComputer  = errors.New("not a computer player's turn")
)

// Broadcaster receives game changes for push delivery to connected clients
type Broadcaster interface {
	GameChanged(gameID string)
	GameRemoved(gameID string)
}

// Service coordinates in-memory games, long-poll waiters and storage
type Service struct {
	games         map[string]*game.Game
	mu            sync.RWMutex
	writeMu       sync.Mutex // Orders game mutations with their storage writes
	store         *storage.Store
	waiter        *WaitRegistry
	colors        *ColorPicker
	broadcaster   atomic.Value // holds broadcasterBox
	computerGames atomic.Int32 // Games with at least one computer player
}

type broadcasterBox struct {
	b Broadcaster
}

// New creates a service with optional storage, a nil store keeps games in memory only
func New(store *storage.Store) *Service {
	return &Service{
		games:  make(map[string]*game.Game),
		store:  store,
		waiter: NewWaitRegistry(),
		colors: NewColorPicker(recentColorPicks, rand.NewSource(time.Now().UnixNano())),
	}
}

// SetBroadcaster installs the push hook, nil removes it
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster.Store(broadcasterBox{b: b})
}

func (s *Service) notify(gameID string) {
	s.waiter.NotifyGame(gameID)
	if box, ok := s.broadcaster.Load().(broadcasterBox); ok && box.b != nil {
		box.b.GameChanged(gameID)
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait returns a channel closed on the next change to the game, a
// timeout, client disconnect or shutdown
func (s *Service) RegisterWait(ctx context.Context, gameID string) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID)
}

// PickColor draws the colour for a randomly assigned player
func (s *Service) PickColor() core.Color {
	return s.colors.Pick()
}

// CanCreateComputerGame checks if a new computer game can be created
func (s *Service) CanCreateComputerGame() bool {
	return s.computerGames.Load() < MaxComputerGames
}

// GetComputerGameCount returns current computer game count
func (s *Service) GetComputerGameCount() int32 {
	return s.computerGames.Load()
}

func hasComputer(white, black *core.Player) bool {
	return (white != nil && white.Type == core.PlayerComputer) ||
		(black != nil && black.Type == core.PlayerComputer)
}

// Shutdown releases waiters, drops in-memory games and closes storage
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	for _, g := range s.games {
		g.CancelPending()
	}
	s.games = make(map[string]*game.Game)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}
