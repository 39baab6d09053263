// Package backup handles periodic automatic export of the image store
// into timestamped envelope files.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phototrack/phototrack/model"
	"github.com/phototrack/phototrack/store"
)

// ExportFunc produces the envelope to write. Using a function type
// decouples the scheduler from any particular store.
type ExportFunc func(ctx context.Context) (*model.ExportEnvelope, error)

// Scheduler writes an export of the store into a directory at a fixed
// interval, pruning old backup files beyond a retention count.
type Scheduler struct {
	export   ExportFunc
	dir      string
	interval time.Duration
	keepLast int

	// Control channels for graceful shutdown
	stop    chan struct{}
	stopped chan struct{}

	// Mutex protects the running state
	mu       sync.Mutex
	running  bool
	stopping bool
}

// New creates a backup scheduler.
func New(export ExportFunc, dir string, interval time.Duration, keepLast int) *Scheduler {
	return &Scheduler{
		export:   export,
		dir:      dir,
		interval: interval,
		keepLast: keepLast,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// ForStore creates a scheduler that exports the given store.
func ForStore(s store.Store, dir string, interval time.Duration, keepLast int) *Scheduler {
	return New(s.ExportAll, dir, interval, keepLast)
}

// Start begins the periodic backup loop in a separate goroutine.
// Thread-safe: can be called concurrently with Stop().
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.stopping {
		return fmt.Errorf("backup scheduler is already running")
	}

	// Fresh channels for this run, in case Stop() was called before.
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	s.running = true
	s.stopping = false

	go s.run()

	log.Println("Automatic backup scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for any in-progress
// export to complete. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()

	if !s.running || s.stopping {
		s.mu.Unlock()
		return
	}

	s.stopping = true
	stopChan := s.stop
	stoppedChan := s.stopped
	s.mu.Unlock()

	close(stopChan)
	<-stoppedChan

	s.mu.Lock()
	s.running = false
	s.stopping = false
	s.mu.Unlock()

	log.Println("Automatic backup scheduler stopped")
}

// IsRunning returns whether the scheduler is currently active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the main scheduler loop.
func (s *Scheduler) run() {
	s.mu.Lock()
	stopChan := s.stop
	stoppedChan := s.stopped
	s.mu.Unlock()

	defer close(stoppedChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(context.Background()); err != nil {
				log.Printf("Automatic backup failed: %v", err)
			}
		case <-stopChan:
			return
		}
	}
}

// RunOnce performs a single export, writes it to a timestamped file and
// prunes old backups.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	env, err := s.export(ctx)
	if err != nil {
		return fmt.Errorf("export store: %w", err)
	}

	data, err := store.EncodeEnvelope(env)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("creating backup directory %q: %w", s.dir, err)
	}

	name := fmt.Sprintf("phototrack-backup-%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("writing backup %q: %w", path, err)
	}

	log.Printf("Wrote backup %s (%d images)", path, len(env.Images))
	s.prune()
	return nil
}

// prune removes the oldest backup files beyond the retention count.
// Errors are logged, not fatal.
func (s *Scheduler) prune() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("Backup prune failed reading %q: %v", s.dir, err)
		return
	}

	var backups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "phototrack-backup-") && strings.HasSuffix(name, ".json") {
			backups = append(backups, name)
		}
	}

	// Timestamped names sort chronologically.
	sort.Strings(backups)
	for len(backups) > s.keepLast {
		victim := filepath.Join(s.dir, backups[0])
		if err := os.Remove(victim); err != nil {
			log.Printf("Backup prune failed removing %q: %v", victim, err)
			return
		}
		backups = backups[1:]
	}
}
