// Package editor hosts markdown editing sessions: it opens files from the
// workspace listing, serves the editor document, and handles save, print
// and preview messages arriving over the session socket.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joelrodriguezguzman/markdown/internal/config"
	"github.com/joelrodriguezguzman/markdown/internal/diagram"
	"github.com/joelrodriguezguzman/markdown/internal/lister"
	"github.com/joelrodriguezguzman/markdown/internal/preview"
	"github.com/joelrodriguezguzman/markdown/internal/printdoc"
	"github.com/joelrodriguezguzman/markdown/internal/theme"
)

var (
	// ErrNotMarkdown is returned when opening a file without the .md suffix.
	ErrNotMarkdown = errors.New("editor: not a markdown file")
	// ErrOutsideWorkspace is returned for files not in the current listing.
	ErrOutsideWorkspace = errors.New("editor: file is not in a listed folder")
	// ErrUnknownSession is returned when attaching to a missing session.
	ErrUnknownSession = errors.New("editor: unknown session")
)

// DefaultGrace is how long a detached session survives before it is
// destroyed. A theme re-render reconnects within this window.
const DefaultGrace = 10 * time.Second

// Options configures a Host.
type Options struct {
	Listing  lister.Options
	CDN      config.CDNConfig
	Debounce time.Duration
	Grace    time.Duration
	Verbose  bool
}

// Host owns the open editing sessions.
type Host struct {
	opts     Options
	themes   *theme.Monitor
	preview  *preview.Renderer
	diagrams *diagram.Renderer
	printer  *printdoc.Service

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewHost creates a Host. diagrams and printer may be nil; previews are
// then returned without a diagram pass and print requests fail.
func NewHost(opts Options, themes *theme.Monitor, pr *preview.Renderer, diagrams *diagram.Renderer, printer *printdoc.Service) *Host {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	return &Host{
		opts:     opts,
		themes:   themes,
		preview:  pr,
		diagrams: diagrams,
		printer:  printer,
		sessions: make(map[string]*Session),
	}
}

// Themes returns the host theme monitor.
func (h *Host) Themes() *theme.Monitor { return h.themes }

// Listing lists the workspace with the host's lister options.
func (h *Host) Listing() (*lister.Listing, error) {
	return lister.List(h.opts.Listing)
}

// Resolve validates path and returns its absolute form.
func (h *Host) Resolve(path string) (string, error) {
	if !strings.HasSuffix(path, ".md") {
		return "", fmt.Errorf("%w: %s", ErrNotMarkdown, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	listing, err := h.Listing()
	if err != nil {
		return "", err
	}
	if !listing.Contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return abs, nil
}

// Open starts a session for a markdown file in the listing. The session
// is detached until a socket attaches to it.
func (h *Host) Open(path string) (*Session, error) {
	abs, err := h.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}

	s := &Session{
		ID:    uuid.NewString(),
		Path:  abs,
		theme: h.themes.Current(),
		text:  string(data),
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	h.scheduleReap(s)

	log.Printf("editor: opened %s (session %s)", abs, s.ID)
	return s, nil
}

// Lookup returns an open session.
func (h *Host) Lookup(id string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Sessions returns the number of open sessions.
func (h *Host) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Document renders the full editor page for s with its current theme and text.
func (h *Host) Document(s *Session) (string, error) {
	kind, text := s.snapshot()
	return renderPage(h.opts.CDN, s.ID, s.Path, kind, text)
}

// Save overwrites the session file with text verbatim, keeping its mode.
func (h *Host) Save(s *Session, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(s.Path, []byte(text), mode); err != nil {
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	s.setText(text)
	return nil
}

// Print materialises msg into a transient print document. Overlapping
// requests on one session return printdoc.ErrPrintInFlight.
func (h *Host) Print(ctx context.Context, s *Session, msg PrintMessage) (string, error) {
	if h.printer == nil {
		return "", errors.New("editor: printing is not configured")
	}
	var path string
	err := s.printGuard.Do(func() error {
		var err error
		path, err = h.printer.Print(ctx, printdoc.Request{
			Title:   filepath.Base(s.Path),
			Content: msg.Content,
			IsHTML:  msg.IsHTML,
		})
		return err
	})
	return path, err
}

// RenderPreview renders markdown text into preview HTML and runs the
// diagram pass over it.
func (h *Host) RenderPreview(ctx context.Context, text string) (string, diagram.Stats, error) {
	out, err := h.preview.Render([]byte(text))
	if err != nil {
		return "", diagram.Stats{}, err
	}
	if h.diagrams == nil {
		return out, diagram.Stats{}, nil
	}
	return h.diagrams.Process(ctx, out)
}

// Close destroys every session.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		s.stopReap()
		delete(h.sessions, id)
	}
}

func (h *Host) attach(id string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return nil, fmt.Errorf("editor: session %s already has a socket", id)
	}
	s.attached = true
	// A new surface numbers its preview requests from zero.
	s.latestSeq = 0
	if s.reap != nil {
		s.reap.Stop()
		s.reap = nil
	}
	return s, nil
}

func (h *Host) detach(s *Session) {
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
	h.scheduleReap(s)
}

func (h *Host) scheduleReap(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reap != nil {
		s.reap.Stop()
	}
	s.reap = time.AfterFunc(h.opts.Grace, func() { h.destroy(s) })
}

func (h *Host) destroy(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s.mu.Lock()
	attached := s.attached
	s.mu.Unlock()
	if attached {
		return
	}
	delete(h.sessions, s.ID)
	log.Printf("editor: closed session %s", s.ID)
}
