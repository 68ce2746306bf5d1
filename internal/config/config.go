package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	aecerrors "github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/plugin"
)

// DirName is the per-user and per-repo configuration directory name.
const DirName = ".aec"

// Config holds application configuration.
type Config struct {
	// Lang is the default target language for compiled prompts ("en" or "zh").
	Lang string `json:"lang,omitempty"`

	// Plugins lists catalog plugin names to enable, in prompt order.
	// Empty enables every available plugin; kits still load only when used.
	// The kernel is always enabled.
	Plugins []string `json:"plugins,omitempty"`

	// PluginDirs are directories of user YAML plugins. Relative paths are
	// resolved against the directory holding the config file.
	PluginDirs []string `json:"plugin_dirs,omitempty"`

	// ReservedKeywords extend the core keywords (VAR, RUN, THINK, REPORT,
	// ASK, IF, ELSE) that are legal without any plugin.
	ReservedKeywords []string `json:"reserved_keywords,omitempty"`

	// RecordRuns controls whether compile and decode runs are journaled.
	// nil means true.
	RecordRuns *bool `json:"record_runs,omitempty"`

	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `json:"log_level,omitempty"`

	// LogJSON switches log output from console to JSON encoding.
	LogJSON bool `json:"log_json,omitempty"`

	// UIPort is the preview UI port. 0 means the default.
	UIPort int `json:"ui_port,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultUIPort is used when UIPort is unset.
const DefaultUIPort = 8732

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Lang:     string(plugin.DefaultLang),
		LogLevel: "info",
		UIPort:   DefaultUIPort,
	}
}

// ShouldRecordRuns reports whether runs are journaled.
func (c *Config) ShouldRecordRuns() bool {
	return c.RecordRuns == nil || *c.RecordRuns
}

// Language returns the parsed target language.
func (c *Config) Language() (plugin.Lang, error) {
	return plugin.ParseLang(c.Lang)
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	if _, err := plugin.ParseLang(c.Lang); err != nil {
		return aecerrors.NewInvalidRequest("config: " + err.Error())
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return aecerrors.NewInvalidRequest(fmt.Sprintf("config: unknown log_level %q", c.LogLevel))
	}
	if c.UIPort < 0 || c.UIPort > 65535 {
		return aecerrors.NewInvalidRequest(fmt.Sprintf("config: ui_port %d out of range", c.UIPort))
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.aec.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.aec) and repo (.aec) directories.
// Repo config is found by walking upward from startDir to find the nearest .aec/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .aec/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	base := filepath.Dir(configPath)
	for i, dir := range cfg.PluginDirs {
		if dir != "" && !filepath.IsAbs(dir) {
			cfg.PluginDirs[i] = filepath.Join(base, dir)
		}
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Lang = firstNonEmpty(overlay.Lang, base.Lang)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.UIPort = overlay.UIPort
	if result.UIPort == 0 {
		result.UIPort = base.UIPort
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Tri-state: overlay wins if set
	result.RecordRuns = overlay.RecordRuns
	if result.RecordRuns == nil {
		result.RecordRuns = base.RecordRuns
	}

	// Booleans: overlay wins if true, else base
	result.LogJSON = base.LogJSON || overlay.LogJSON

	// Arrays: merge and deduplicate
	result.Plugins = mergeStringSlice(base.Plugins, overlay.Plugins)
	result.PluginDirs = mergeStringSlice(base.PluginDirs, overlay.PluginDirs)
	result.ReservedKeywords = mergeStringSlice(base.ReservedKeywords, overlay.ReservedKeywords)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
