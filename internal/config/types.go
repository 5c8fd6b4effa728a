package config

import "time"

// Theme values accepted in the theme key.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DiagramBackend identifies how mermaid sources are turned into SVG.
type DiagramBackend string

const (
	BackendMMDC  DiagramBackend = "mmdc"
	BackendKroki DiagramBackend = "kroki"
	BackendNone  DiagramBackend = "none"
)

// Config is the top-level mdview configuration, corresponding to .mdview.yml.
type Config struct {
	Root        string        `yaml:"root" koanf:"root"`
	PathsFile   string        `yaml:"paths_file" koanf:"paths_file"`
	Exclude     []string      `yaml:"exclude" koanf:"exclude"`
	Port        int           `yaml:"port" koanf:"port"`
	OpenBrowser bool          `yaml:"open_browser" koanf:"open_browser"`
	Theme       string        `yaml:"theme" koanf:"theme"`
	CDN         CDNConfig     `yaml:"cdn" koanf:"cdn"`
	Diagram     DiagramConfig `yaml:"diagram" koanf:"diagram"`
	Print       PrintConfig   `yaml:"print" koanf:"print"`
}

// CDNConfig holds the asset URLs loaded by the editor page.
type CDNConfig struct {
	EasyMDECSS  string `yaml:"easymde_css" koanf:"easymde_css"`
	EasyMDEJS   string `yaml:"easymde_js" koanf:"easymde_js"`
	FontAwesome string `yaml:"font_awesome" koanf:"font_awesome"`
}

// DiagramConfig controls the diagram backend and the render queue pacing.
type DiagramConfig struct {
	Backend  DiagramBackend `yaml:"backend" koanf:"backend"`
	Command  string         `yaml:"command" koanf:"command"`
	KrokiURL string         `yaml:"kroki_url" koanf:"kroki_url"`
	Pause    time.Duration  `yaml:"pause" koanf:"pause"`
	Timeout  time.Duration  `yaml:"timeout" koanf:"timeout"`
	Debounce time.Duration  `yaml:"debounce" koanf:"debounce"`
}

// PrintConfig controls transient print documents.
type PrintConfig struct {
	Dir          string        `yaml:"dir" koanf:"dir"`
	CleanupDelay time.Duration `yaml:"cleanup_delay" koanf:"cleanup_delay"`
	SettleDelay  time.Duration `yaml:"settle_delay" koanf:"settle_delay"`
	Minify       bool          `yaml:"minify" koanf:"minify"`
}
