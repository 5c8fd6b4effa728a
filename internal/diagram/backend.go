package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joelrodriguezguzman/markdown/internal/config"
)

// ErrBackendUnavailable is returned by the none backend.
var ErrBackendUnavailable = errors.New("diagram: no backend configured")

// Backend converts a mermaid description into SVG markup. Implementations
// are not assumed to be reentrant; the Queue never calls one concurrently.
type Backend interface {
	Render(ctx context.Context, source string) (string, error)
}

// NewBackend returns the backend selected in cfg.
func NewBackend(cfg config.DiagramConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMMDC:
		return &CLIBackend{Command: cfg.Command}, nil
	case config.BackendKroki:
		return &KrokiBackend{BaseURL: cfg.KrokiURL, Client: http.DefaultClient}, nil
	case config.BackendNone:
		return NoopBackend{}, nil
	default:
		return nil, fmt.Errorf("diagram: unknown backend %q", cfg.Backend)
	}
}

// CLIBackend shells out to mermaid-cli (mmdc).
type CLIBackend struct {
	Command string
	Args    []string // extra flags, e.g. a puppeteer config
}

// Render writes source to a scratch dir, runs mmdc on it and returns the SVG.
func (b *CLIBackend) Render(ctx context.Context, source string) (string, error) {
	dir, err := os.MkdirTemp("", "mdview-mmdc-*")
	if err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(source), 0600); err != nil {
		return "", fmt.Errorf("writing diagram source: %w", err)
	}

	args := append([]string{"-i", in, "-o", out, "-q"}, b.Args...)
	cmd := exec.CommandContext(ctx, b.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", b.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", b.Command, err)
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return "", fmt.Errorf("reading rendered svg: %w", err)
	}
	return string(svg), nil
}

// KrokiBackend posts the source to a kroki server.
type KrokiBackend struct {
	BaseURL string
	Client  *http.Client
}

// Render posts source to {BaseURL}/mermaid/svg.
func (b *KrokiBackend) Render(ctx context.Context, source string) (string, error) {
	url := strings.TrimRight(b.BaseURL, "/") + "/mermaid/svg"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("building kroki request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("kroki request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("reading kroki response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kroki returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

// NoopBackend fails every render with ErrBackendUnavailable.
type NoopBackend struct{}

func (NoopBackend) Render(ctx context.Context, source string) (string, error) {
	return "", ErrBackendUnavailable
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, source string) (string, error)

func (f BackendFunc) Render(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}
