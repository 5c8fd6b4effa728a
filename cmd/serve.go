package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joelrodriguezguzman/markdown/internal/config"
	"github.com/joelrodriguezguzman/markdown/internal/editor"
	"github.com/joelrodriguezguzman/markdown/internal/preview"
	"github.com/joelrodriguezguzman/markdown/internal/printdoc"
	"github.com/joelrodriguezguzman/markdown/internal/server"
	"github.com/joelrodriguezguzman/markdown/internal/theme"
)

var serveCmd = &cobra.Command{
	Use:   "serve [root]",
	Short: "Start the editor host",
	Long: `Starts the editor host on localhost. The index page lists the markdown
files of the workspace; each one opens in the browser editor. Changing
"theme" in the config file while serving re-renders every open editor.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("open", false, "open the index page in the browser")
	serveCmd.Flags().String("theme", "", "initial theme: light or dark (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("open") {
		cfg.OpenBrowser, _ = cmd.Flags().GetBool("open")
	}
	if cmd.Flags().Changed("theme") {
		cfg.Theme, _ = cmd.Flags().GetString("theme")
	}

	kind, err := theme.ParseKind(cfg.Theme)
	if err != nil {
		return err
	}
	monitor := theme.NewMonitor(kind)

	renderer, queue, err := createDiagramRenderer(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	printer, _ := createPrintService(cfg, renderer, printdoc.SystemOpener{})
	defer printer.Close()

	host := editor.NewHost(editor.Options{
		Listing:  listerOptions(cfg),
		CDN:      cfg.CDN,
		Debounce: cfg.Diagram.Debounce,
		Verbose:  verbose,
	}, monitor, preview.NewRenderer(), renderer, printer)

	srv := server.New(server.Config{Port: cfg.Port}, host)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		err := config.Watch(ctx, cfgFile, func(c *config.Config) {
			next, err := theme.ParseKind(c.Theme)
			if err != nil {
				return
			}
			if monitor.Set(next) {
				log.Printf("serve: host theme changed to %s", next)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: theme changes in %s will not be picked up: %v\n", cfgFile, err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		srv.Shutdown(context.Background())
	}()

	listing, err := host.Listing()
	if err != nil {
		return err
	}
	for _, msg := range listing.WarningMessages() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}

	fmt.Fprintf(os.Stderr, "mdview %s serving %s\n", Version, listing.Root)
	fmt.Fprintf(os.Stderr, "  Markdown files: %d in %d folder(s)\n", len(listing.Files), len(listing.Folders))
	fmt.Fprintf(os.Stderr, "  Diagrams: %s\n", cfg.Diagram.Backend)
	fmt.Fprintf(os.Stderr, "  Open %s\n", srv.URL())

	if cfg.OpenBrowser {
		go func() {
			if err := (printdoc.SystemOpener{}).Open(srv.URL()); err != nil {
				log.Printf("serve: opening browser: %v", err)
			}
		}()
	}

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
