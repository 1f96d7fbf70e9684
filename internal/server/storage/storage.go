package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrQueueFull  = errors.New("storage write queue full")
	ErrStoreClose = errors.New("storage is closed")
	ErrDegraded   = errors.New("storage degraded")
)

// Store persists games and move lists in SQLite. Writes go through a single
// async writer goroutine, reads are synchronous.
type Store struct {
	db           *sql.DB
	path         string
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	closed       atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewStore opens the database and starts the writer
func NewStore(dataSourceName string, devMode bool) (*Store, error) {
	db, err := sql.Open("sqlite3", connectionString(dataSourceName, devMode))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan func(*sql.Tx) error, 1000),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// connectionString sets per-connection pragmas through the driver DSN so every
// pooled connection enforces foreign keys. WAL lets the CLI read while a dev
// server is writing.
func connectionString(path string, devMode bool) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_foreign_keys=on&_busy_timeout=5000"
	if devMode {
		dsn += "&_journal_mode=WAL"
	}
	return dsn
}

// IsHealthy returns false once any async write has failed
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.drain()
			return
		case fn := <-s.writeChan:
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// drain flushes buffered writes on shutdown, bounded by a deadline
func (s *Store) drain() {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case fn := <-s.writeChan:
			if s.healthStatus.Load() {
				s.executeWrite(fn)
			}
		case <-deadline:
			log.Printf("Storage drain deadline reached, %d writes dropped", len(s.writeChan))
			return
		default:
			return
		}
	}
}

func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("Storage degraded: failed to begin transaction: %v", err)
		s.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		log.Printf("Storage degraded: write operation failed: %v", err)
		s.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Storage degraded: failed to commit: %v", err)
		s.healthStatus.Store(false)
	}
}

// enqueue hands a write to the writer without blocking the caller
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) error {
	if s.closed.Load() {
		return ErrStoreClose
	}
	if !s.healthStatus.Load() {
		return nil
	}
	select {
	case s.writeChan <- fn:
		return nil
	default:
		log.Printf("Storage write queue full, dropping %s", what)
		return ErrQueueFull
	}
}

// Flush blocks until every write queued before the call has been executed
func (s *Store) Flush(timeout time.Duration) error {
	done := make(chan struct{})
	barrier := func(*sql.Tx) error {
		close(done)
		return nil
	}
	if s.closed.Load() {
		return ErrStoreClose
	}
	if !s.healthStatus.Load() {
		return ErrDegraded
	}
	select {
	case s.writeChan <- barrier:
	case <-time.After(timeout):
		return fmt.Errorf("flush: %w", ErrQueueFull)
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("flush timed out after %v", timeout)
	}
}

// Close drains pending writes and closes the database
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		log.Printf("Warning: storage writer shutdown timeout, some writes may be lost")
	}

	return s.db.Close()
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return tx.Commit()
}

// DeleteDB closes the store and removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	return nil
}
