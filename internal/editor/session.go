package editor

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/websocket"

	"github.com/joelrodriguezguzman/markdown/internal/printdoc"
	"github.com/joelrodriguezguzman/markdown/internal/theme"
)

// Session is one open file in one rendering surface.
type Session struct {
	ID   string
	Path string

	mu         sync.Mutex
	theme      theme.Kind
	text       string
	attached   bool
	reap       *time.Timer
	printGuard printdoc.Guard
	latestSeq  int64
}

// Theme returns the theme the session document was last rendered with.
func (s *Session) Theme() theme.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Text returns the latest editor text known to the host.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Session) snapshot() (theme.Kind, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme, s.text
}

func (s *Session) setText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

func (s *Session) setTheme(kind theme.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == kind {
		return false
	}
	s.theme = kind
	return true
}

// notePreview records the text of a preview request and its sequence number.
func (s *Session) notePreview(text string, seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	if seq > s.latestSeq {
		s.latestSeq = seq
	}
}

func (s *Session) isLatest(seq int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq >= s.latestSeq
}

func (s *Session) stopReap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reap != nil {
		s.reap.Stop()
		s.reap = nil
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// socket serialises writes; gorilla connections allow one writer at a time.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *socket) send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(ev); err != nil {
		log.Printf("editor: websocket write: %v", err)
	}
}

func (c *socket) notice(level NoticeLevel, text string) {
	c.send(NoticeEvent{Level: level, Text: text})
}

// ServeSocket upgrades the request and runs the session named by the id
// query parameter until the socket closes.
func (h *Host) ServeSocket(w http.ResponseWriter, r *http.Request) {
	s, err := h.attach(r.URL.Query().Get("id"))
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, ErrUnknownSession) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer h.detach(s)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("editor: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	h.serve(context.Background(), s, &socket{conn: conn})
}

type inbound struct {
	data []byte
	err  error
}

func (h *Host) serve(parent context.Context, s *Session, sock *socket) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	themes, unsubscribe := h.themes.Subscribe()
	defer unsubscribe()

	debounced := debounce.New(h.opts.Debounce)
	// A pending preview must not run after the socket is gone.
	defer debounced(func() {})

	// The theme may have changed while no socket was attached.
	if s.setTheme(h.themes.Current()) {
		h.sendDocument(s, sock)
		return
	}

	reads := make(chan inbound)
	go func() {
		defer close(reads)
		for {
			_, data, err := sock.conn.ReadMessage()
			select {
			case reads <- inbound{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case in, ok := <-reads:
			if !ok {
				return
			}
			if in.err != nil {
				if websocket.IsUnexpectedCloseError(in.err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("editor: websocket read: %v", in.err)
				}
				return
			}
			h.handle(ctx, s, sock, debounced, in.data)

		case kind, ok := <-themes:
			if !ok {
				return
			}
			if s.setTheme(kind) {
				// The surface replaces itself and reconnects.
				h.sendDocument(s, sock)
				return
			}
		}
	}
}

func (h *Host) sendDocument(s *Session, sock *socket) {
	doc, err := h.Document(s)
	if err != nil {
		log.Printf("editor: %v", err)
		sock.notice(NoticeError, err.Error())
		return
	}
	sock.send(DocumentEvent{HTML: doc, Theme: s.Theme().String()})
}

func (h *Host) handle(ctx context.Context, s *Session, sock *socket, debounced func(func()), data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		sock.notice(NoticeError, err.Error())
		return
	}

	switch m := msg.(type) {
	case SaveMessage:
		if err := h.Save(s, m.Text); err != nil {
			log.Printf("editor: save failed: %v", err)
			sock.notice(NoticeError, "Save failed: "+err.Error())
			return
		}
		sock.notice(NoticeInfo, SavedNotice)

	case PrintMessage:
		go func() {
			path, err := h.Print(ctx, s, m)
			switch {
			case errors.Is(err, printdoc.ErrPrintInFlight):
				sock.notice(NoticeWarning, "A print is already in progress.")
			case err != nil:
				log.Printf("editor: print failed: %v", err)
				sock.notice(NoticeError, "Print failed: "+err.Error())
			default:
				sock.send(PrintedEvent{Path: path})
			}
		}()

	case PreviewMessage:
		s.notePreview(m.Text, m.Seq)
		debounced(func() {
			if ctx.Err() != nil || !s.isLatest(m.Seq) {
				return
			}
			out, stats, err := h.RenderPreview(ctx, m.Text)
			if err != nil {
				if ctx.Err() == nil {
					sock.notice(NoticeError, "Preview failed: "+err.Error())
				}
				return
			}
			if h.opts.Verbose {
				log.Printf("editor: preview seq %d: %d diagrams rendered, %d failed", m.Seq, stats.Rendered, stats.Failed)
			}
			if !s.isLatest(m.Seq) {
				return
			}
			sock.send(PreviewEvent{HTML: out, Seq: m.Seq, Failed: stats.Failed})
		})
	}
}
