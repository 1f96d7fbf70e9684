package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WaitTimeout is the maximum time a client can wait for notifications
const WaitTimeout = 25 * time.Second

// WaitRegistry manages long-polling clients waiting for game state changes.
// A waiter's channel is closed exactly once, by whichever of notify,
// timeout, context cancellation or shutdown happens first.
type WaitRegistry struct {
	mu      sync.Mutex
	waiters map[string]map[*waitRequest]struct{}
	closed  bool
	timeout time.Duration
}

type waitRequest struct {
	gameID string
	notify chan struct{}
	once   sync.Once
	timer  *time.Timer
	stop   func() bool
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters: make(map[string]map[*waitRequest]struct{}),
		timeout: WaitTimeout,
	}
}

// RegisterWait registers a client to wait for the next change of a game
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string) <-chan struct{} {
	req := &waitRequest{
		gameID: gameID,
		notify: make(chan struct{}),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		req.release()
		return req.notify
	}
	if w.waiters[gameID] == nil {
		w.waiters[gameID] = make(map[*waitRequest]struct{})
	}
	w.waiters[gameID][req] = struct{}{}
	req.timer = time.AfterFunc(w.timeout, func() { w.wake(req) })
	req.stop = context.AfterFunc(ctx, func() { w.wake(req) })
	w.mu.Unlock()

	return req.notify
}

func (r *waitRequest) release() {
	r.once.Do(func() {
		if r.timer != nil {
			r.timer.Stop()
		}
		if r.stop != nil {
			r.stop()
		}
		close(r.notify)
	})
}

// wake removes a single waiter and releases it
func (w *WaitRegistry) wake(req *waitRequest) {
	w.mu.Lock()
	if set := w.waiters[req.gameID]; set != nil {
		delete(set, req)
		if len(set) == 0 {
			delete(w.waiters, req.gameID)
		}
	}
	w.mu.Unlock()
	req.release()
}

// NotifyGame releases every client waiting on gameID
func (w *WaitRegistry) NotifyGame(gameID string) {
	w.mu.Lock()
	set := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for req := range set {
		req.release()
	}
}

// RemoveGame releases the waiters of a deleted game
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.NotifyGame(gameID)
}

// Count returns the number of registered waiters
func (w *WaitRegistry) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, set := range w.waiters {
		n += len(set)
	}
	return n
}

// Shutdown releases all waiters and rejects new registrations
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	w.closed = true
	all := w.waiters
	w.waiters = make(map[string]map[*waitRequest]struct{})
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, set := range all {
			for req := range set {
				req.release()
			}
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out")
	}
}
