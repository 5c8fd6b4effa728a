package cmd

import (
	"fmt"

	"github.com/joelrodriguezguzman/markdown/internal/config"
	"github.com/joelrodriguezguzman/markdown/internal/diagram"
	"github.com/joelrodriguezguzman/markdown/internal/lister"
	"github.com/joelrodriguezguzman/markdown/internal/printdoc"
)

// loadConfig loads and validates the config, providing a user-friendly error.
// A root given on the command line replaces the configured one.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mdview init` to create a config file", err)
	}
	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func listerOptions(cfg *config.Config) lister.Options {
	return lister.Options{
		Root:      cfg.Root,
		PathsFile: cfg.PathsFile,
		Exclude:   cfg.Exclude,
	}
}

// createDiagramRenderer builds the configured backend behind a render
// queue. The caller closes the queue.
func createDiagramRenderer(cfg *config.Config) (*diagram.Renderer, *diagram.Queue, error) {
	backend, err := diagram.NewBackend(cfg.Diagram)
	if err != nil {
		return nil, nil, fmt.Errorf("creating diagram backend: %w", err)
	}
	queue := diagram.NewQueue(backend, cfg.Diagram.Pause, cfg.Diagram.Timeout)
	renderer := diagram.NewRenderer(queue)
	renderer.Verbose = verbose
	return renderer, queue, nil
}

// createPrintService wires the print pipeline. A nil opener leaves the
// documents on disk without opening them.
func createPrintService(cfg *config.Config, renderer *diagram.Renderer, opener printdoc.Opener) (*printdoc.Service, *printdoc.Spooler) {
	builder := &printdoc.Builder{
		Renderer:    renderer,
		SettleDelay: cfg.Print.SettleDelay,
		Minify:      cfg.Print.Minify,
	}
	spool := printdoc.NewSpooler(cfg.Print.Dir, cfg.Print.CleanupDelay)
	return printdoc.NewService(builder, spool, opener), spool
}
