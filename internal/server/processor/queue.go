package processor

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/engine"
	"chessarena/internal/server/rules"
)

// EngineTask is a bot search request for one game position
type EngineTask struct {
	GameID     string
	Generation uint64 // Game generation the result must be applied to
	State      rules.GameState
	Player     *core.Player
	Response   chan<- EngineResult
}

// EngineResult contains the outcome of a bot search
type EngineResult struct {
	GameID     string
	Generation uint64
	Move       rules.Move
	Found      bool // False when the position has no legal move
	Score      int
	Depth      int
	Error      error
}

// EngineQueue runs bot searches on a fixed worker pool
type EngineQueue struct {
	tasks         chan EngineTask
	workers       int
	thinkTime     time.Duration // Delay before searching when the player sets none
	resultTimeout time.Duration
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewEngineQueue creates a queue with specified worker count
func NewEngineQueue(workerCount int, thinkTime time.Duration) *EngineQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &EngineQueue{
		tasks:         make(chan EngineTask, 100),
		workers:       workerCount,
		thinkTime:     thinkTime,
		resultTimeout: 30 * time.Second,
		ctx:           ctx,
		cancel:        cancel,
	}

	q.start()
	return q
}

func (q *EngineQueue) start() {
	seed := time.Now().UnixNano()
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i, engine.NewBot(rand.NewSource(seed+int64(i))))
	}
}

// worker owns one bot, bots are not shared between goroutines
func (q *EngineQueue) worker(id int, bot *engine.Bot) {
	defer q.wg.Done()

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			result, ok := q.processTask(bot, task)
			if !ok {
				return
			}

			select {
			case task.Response <- result:
			case <-time.After(100 * time.Millisecond):
				log.Printf("Worker %d: result for game %s abandoned", id, task.GameID)
			}

		case <-q.ctx.Done():
			return
		}
	}
}

// processTask waits the think delay and searches. ok is false on shutdown.
func (q *EngineQueue) processTask(bot *engine.Bot, task EngineTask) (EngineResult, bool) {
	result := EngineResult{GameID: task.GameID, Generation: task.Generation}

	delay := q.thinkTime
	if task.Player != nil && task.Player.ThinkTime > 0 {
		delay = time.Duration(task.Player.ThinkTime) * time.Millisecond
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-q.ctx.Done():
			return result, false
		}
	}

	difficulty := core.DifficultyNormal
	if task.Player != nil && task.Player.Difficulty != "" {
		difficulty = task.Player.Difficulty
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Error = fmt.Errorf("bot search panicked: %v", r)
			}
		}()
		search, found := bot.Move(task.State, difficulty)
		result.Found = found
		result.Move = search.Move
		result.Score = search.Score
		result.Depth = search.Depth
	}()
	return result, true
}

// Submit adds a task to the queue
func (q *EngineQueue) Submit(task EngineTask) error {
	select {
	case <-q.ctx.Done():
		return fmt.Errorf("queue is shutting down")
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("queue is full")
	}
}

// SubmitAsync submits a task and hands the result to callback from a background goroutine
func (q *EngineQueue) SubmitAsync(task EngineTask, callback func(EngineResult)) error {
	respChan := make(chan EngineResult, 1)
	task.Response = respChan

	if err := q.Submit(task); err != nil {
		return err
	}

	timeout := q.resultTimeout + q.thinkTime
	if task.Player != nil {
		timeout += time.Duration(task.Player.ThinkTime) * time.Millisecond
	}

	go func() {
		select {
		case result := <-respChan:
			callback(result)
		case <-time.After(timeout):
			callback(EngineResult{
				GameID:     task.GameID,
				Generation: task.Generation,
				Error:      fmt.Errorf("engine timeout"),
			})
		case <-q.ctx.Done():
		}
	}()

	return nil
}

// Shutdown stops the workers, abandoning queued tasks
func (q *EngineQueue) Shutdown(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
