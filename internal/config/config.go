package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// envPrefix is the prefix for environment overrides (MDVIEW_PORT, ...).
const envPrefix = "MDVIEW_"

// sections are the nested config blocks; MDVIEW_DIAGRAM_BACKEND maps to
// diagram.backend rather than a top-level diagram_backend key.
var sections = []string{"cdn", "diagram", "print"}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MDVIEW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey converts MDVIEW_DIAGRAM_KROKI_URL into diagram.kroki_url.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validBackends = map[DiagramBackend]bool{
	BackendMMDC:  true,
	BackendKroki: true,
	BackendNone:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.PathsFile == "" {
		return fmt.Errorf("paths_file is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Theme != ThemeLight && c.Theme != ThemeDark {
		return fmt.Errorf("invalid theme %q: must be one of light, dark", c.Theme)
	}
	if !validBackends[c.Diagram.Backend] {
		return fmt.Errorf("invalid diagram.backend %q: must be one of mmdc, kroki, none", c.Diagram.Backend)
	}
	if c.Diagram.Backend == BackendMMDC && c.Diagram.Command == "" {
		return fmt.Errorf("diagram.command is required for the mmdc backend")
	}
	if c.Diagram.Backend == BackendKroki && c.Diagram.KrokiURL == "" {
		return fmt.Errorf("diagram.kroki_url is required for the kroki backend")
	}
	if c.Diagram.Pause < 0 || c.Diagram.Timeout < 0 || c.Diagram.Debounce < 0 {
		return fmt.Errorf("diagram durations must be non-negative")
	}
	if c.Print.CleanupDelay <= 0 {
		return fmt.Errorf("print.cleanup_delay must be positive")
	}
	if c.Print.SettleDelay < 0 {
		return fmt.Errorf("print.settle_delay must be non-negative")
	}
	return nil
}
