package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelrodriguezguzman/markdown/internal/editor"
	"github.com/joelrodriguezguzman/markdown/internal/preview"
	"github.com/joelrodriguezguzman/markdown/internal/printdoc"
	"github.com/joelrodriguezguzman/markdown/internal/progress"
)

var printCmd = &cobra.Command{
	Use:   "print <file.md>...",
	Short: "Produce printable HTML snapshots of markdown files",
	Long: `Renders each file with its mermaid diagrams as static images, writes a
standalone print document and opens it with the system viewer. Documents
are removed after print.cleanup_delay. With --no-open the paths are
printed and the documents are left in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrint,
}

func init() {
	printCmd.Flags().Bool("no-open", false, "write the documents and print their paths without opening them")
	rootCmd.AddCommand(printCmd)
}

func runPrint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	noOpen, _ := cmd.Flags().GetBool("no-open")

	renderer, queue, err := createDiagramRenderer(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	var opener printdoc.Opener = printdoc.SystemOpener{}
	if noOpen {
		opener = nil
	}
	service, spool := createPrintService(cfg, renderer, opener)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	md := preview.NewRenderer()
	var reporter progress.Reporter
	if len(args) > 1 {
		reporter = progress.NewReporter("Printing")
		reporter.Start(len(args))
	}

	var errs []error
	for i, path := range args {
		if reporter != nil {
			reporter.Update(i, filepath.Base(path))
		}
		out, err := printFile(ctx, md, service, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if noOpen {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
	}
	if reporter != nil {
		reporter.Update(len(args), "done")
		reporter.Finish()
	}

	if !noOpen && len(spool.Pending()) > 0 {
		// The viewer reads the documents after we hand them over; keep
		// them until the cleanup delay has passed.
		fmt.Fprintf(os.Stderr, "Print documents are removed in %s (Ctrl+C removes them now).\n", cfg.Print.CleanupDelay)
		select {
		case <-ctx.Done():
		case <-time.After(cfg.Print.CleanupDelay):
		}
		spool.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d file(s) failed: %w", len(errs), len(args), errors.Join(errs...))
	}
	return nil
}

func printFile(ctx context.Context, md *preview.Renderer, service *printdoc.Service, path string) (string, error) {
	if !strings.HasSuffix(path, ".md") {
		return "", fmt.Errorf("%s: %w", path, editor.ErrNotMarkdown)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	fragment, err := md.Render(src)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", path, err)
	}
	out, err := service.Print(ctx, printdoc.Request{
		Title:   filepath.Base(path),
		Content: fragment,
		IsHTML:  true,
	})
	if err != nil {
		return out, fmt.Errorf("printing %s: %w", path, err)
	}
	return out, nil
}
