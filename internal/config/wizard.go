package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to mdview! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Theme.
	themePrompt := promptui.Select{
		Label: "Select editor theme",
		Items: []string{ThemeDark, ThemeLight},
	}
	_, theme, err := themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}
	cfg.Theme = theme

	// 2. Diagram backend.
	backendPrompt := promptui.Select{
		Label: "Select diagram backend",
		Items: []string{
			"mmdc  (local mermaid-cli)",
			"kroki (remote kroki server)",
			"none  (leave diagrams unrendered)",
		},
	}
	backendIdx, _, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection: %w", err)
	}
	backends := []DiagramBackend{BackendMMDC, BackendKroki, BackendNone}
	cfg.Diagram.Backend = backends[backendIdx]

	if cfg.Diagram.Backend == BackendKroki {
		urlPrompt := promptui.Prompt{
			Label:   "Kroki server URL",
			Default: cfg.Diagram.KrokiURL,
		}
		krokiURL, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("kroki url: %w", err)
		}
		cfg.Diagram.KrokiURL = krokiURL
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port for the editor server",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	if _, err := os.Stat(filepath.Join(cfg.Root, cfg.PathsFile)); os.IsNotExist(err) {
		fmt.Printf("\nNote: list extra markdown folders in %s, one per line.\n", cfg.PathsFile)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
