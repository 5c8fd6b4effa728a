package printdoc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrPrintInFlight is returned when a print is requested while another
// one for the same Guard has not finished.
var ErrPrintInFlight = errors.New("printdoc: a print is already in progress")

// Guard rejects overlapping print requests. The zero value is ready to use.
type Guard struct {
	busy atomic.Bool
}

// Do runs fn unless another Do on g is still running.
func (g *Guard) Do(fn func() error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrPrintInFlight
	}
	defer g.busy.Store(false)
	return fn()
}

// Service builds, spools and opens print documents.
type Service struct {
	builder *Builder
	spool   *Spooler
	opener  Opener
}

// NewService wires a Builder, Spooler and Opener. A nil opener leaves
// documents on disk without opening them.
func NewService(builder *Builder, spool *Spooler, opener Opener) *Service {
	return &Service{builder: builder, spool: spool, opener: opener}
}

// Print builds the document for req, writes it to a transient file and
// asks the host to open it. The transient path is returned.
func (s *Service) Print(ctx context.Context, req Request) (string, error) {
	doc, err := s.builder.Build(ctx, req)
	if err != nil {
		return "", err
	}
	path, err := s.spool.Write(doc)
	if err != nil {
		return "", err
	}
	if s.opener != nil {
		if err := s.opener.Open(path); err != nil {
			return path, fmt.Errorf("opening print document: %w", err)
		}
	}
	return path, nil
}

// PrintCapture selects the content source from c and prints it.
func (s *Service) PrintCapture(ctx context.Context, title string, c Capture) (string, error) {
	content, isHTML := c.Select()
	return s.Print(ctx, Request{Title: title, Content: content, IsHTML: isHTML})
}

// Close removes every outstanding transient document.
func (s *Service) Close() {
	s.spool.Close()
}
