package printdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Spooler writes transient print documents and deletes them after a
// fixed delay. Deletion is best effort; failures are ignored.
type Spooler struct {
	dir   string
	delay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewSpooler creates a Spooler writing into dir ("" means os.TempDir()).
func NewSpooler(dir string, delay time.Duration) *Spooler {
	return &Spooler{dir: dir, delay: delay, timers: make(map[string]*time.Timer)}
}

// Write stores doc under a unique name and schedules its removal.
func (s *Spooler) Write(doc []byte) (string, error) {
	dir := s.dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating print dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("mdview-print-%s.html", uuid.NewString()))
	if err := os.WriteFile(path, doc, 0600); err != nil {
		return "", fmt.Errorf("writing print document: %w", err)
	}

	s.mu.Lock()
	s.timers[path] = time.AfterFunc(s.delay, func() { s.remove(path) })
	s.mu.Unlock()
	return path, nil
}

// Pending returns the documents not yet deleted, sorted.
func (s *Spooler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.timers))
	for p := range s.timers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close cancels pending timers and deletes every outstanding document.
func (s *Spooler) Close() {
	s.mu.Lock()
	paths := make([]string, 0, len(s.timers))
	for p, t := range s.timers {
		t.Stop()
		paths = append(paths, p)
	}
	s.timers = make(map[string]*time.Timer)
	s.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func (s *Spooler) remove(path string) {
	s.mu.Lock()
	delete(s.timers, path)
	s.mu.Unlock()
	_ = os.Remove(path)
}
