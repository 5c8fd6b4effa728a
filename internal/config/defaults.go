package config

import "time"

// DefaultPathsFile is the path-list file location relative to the root.
const DefaultPathsFile = ".vscode/md_paths"

// DefaultConfigFile is the config file name looked up by the CLI.
const DefaultConfigFile = ".mdview.yml"

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Root:      ".",
		PathsFile: DefaultPathsFile,
		Port:      7420,
		Theme:     ThemeDark,
		CDN: CDNConfig{
			EasyMDECSS:  "https://unpkg.com/easymde/dist/easymde.min.css",
			EasyMDEJS:   "https://unpkg.com/easymde/dist/easymde.min.js",
			FontAwesome: "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/4.7.0/css/font-awesome.min.css",
		},
		Diagram: DiagramConfig{
			Backend:  BackendMMDC,
			Command:  "mmdc",
			KrokiURL: "https://kroki.io",
			Pause:    50 * time.Millisecond,
			Timeout:  30 * time.Second,
			Debounce: 100 * time.Millisecond,
		},
		Print: PrintConfig{
			CleanupDelay: 60 * time.Second,
			SettleDelay:  500 * time.Millisecond,
			Minify:       true,
		},
	}
}
