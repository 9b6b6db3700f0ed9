package hooks

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/substratelabs/hookhost/internal/config"
	"github.com/substratelabs/hookhost/internal/log"
)

const (
	// DefaultTimeoutSeconds applies to hooks that do not set their own
	// timeout when the configuration omits timeout_seconds.
	DefaultTimeoutSeconds = 60

	// DefaultNonBlockingTimeout bounds a detached hook whose configuration
	// carries no usable timeout.
	DefaultNonBlockingTimeout = 30 * time.Second
)

// HookConfig is one hook's static definition. A hook belongs to exactly one
// event, assigned from its position in the configuration document.
type HookConfig struct {
	Name      string       `yaml:"name" json:"name"`
	Command   string       `yaml:"command" json:"command"`
	Event     Event        `yaml:"-" json:"-"`
	Blocking  bool         `yaml:"blocking,omitempty" json:"blocking,omitempty"`
	Timeout   int          `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
	Enabled   *bool        `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Contexts  []string     `yaml:"contexts,omitempty" json:"contexts,omitempty"`
	Matcher   *MatcherSpec `yaml:"matcher,omitempty" json:"matcher,omitempty"`
	Condition string       `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// IsEnabled reports whether the hook should run. Hooks are enabled unless
// explicitly disabled.
func (h *HookConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// EffectiveTimeout returns the hook's timeout as a duration, falling back to
// the package default when unset.
func (h *HookConfig) EffectiveTimeout() time.Duration {
	if h.Timeout > 0 {
		return time.Duration(h.Timeout) * time.Second
	}
	return DefaultTimeoutSeconds * time.Second
}

// HooksConfiguration is the merged, effective hook settings. It is built once
// per load and treated as read-only afterwards.
type HooksConfiguration struct {
	Version           string               `yaml:"version" json:"version"`
	Enabled           bool                 `yaml:"enabled" json:"enabled"`
	TimeoutSeconds    int                  `yaml:"timeout_seconds" json:"timeout_seconds"`
	ParallelExecution bool                 `yaml:"parallel_execution" json:"parallel_execution"`
	Hooks             map[Event][]HookConfig `yaml:"hooks" json:"hooks"`
}

// rawConfig mirrors one configuration document before merging. Pointer
// scalars distinguish "absent" from zero so that later sources only override
// what they actually set.
type rawConfig struct {
	Version           string                  `yaml:"version" json:"version"`
	Enabled           *bool                   `yaml:"enabled" json:"enabled"`
	TimeoutSeconds    *int                    `yaml:"timeout_seconds" json:"timeout_seconds"`
	ParallelExecution *bool                   `yaml:"parallel_execution" json:"parallel_execution"`
	Hooks             map[string][]HookConfig `yaml:"hooks" json:"hooks"`
}

// Loader reads and merges hook definitions from up to three sources: the
// global config directory, the project directory, and an optional explicit
// override file. Later sources win.
type Loader struct {
	// GlobalDir holds the global hooks.{json,yml}. Empty means
	// $XDG_CONFIG_HOME/hookhost (~/.config/hookhost fallback).
	GlobalDir string

	// ProjectDir is the directory whose .hookhost/ subdirectory holds the
	// project configuration. Empty means the current directory.
	ProjectDir string

	// OverridePath is an optional explicit configuration file with the
	// highest precedence.
	OverridePath string
}

// Sources returns the candidate configuration files in ascending precedence.
func (l *Loader) Sources() []string {
	globalDir := l.GlobalDir
	if globalDir == "" {
		globalDir = filepath.Join(configDir(), "hookhost")
	}
	projectDir := l.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}

	paths := []string{
		filepath.Join(globalDir, "hooks.json"),
		filepath.Join(globalDir, "hooks.yml"),
		filepath.Join(projectDir, ".hookhost", "hooks.json"),
		filepath.Join(projectDir, ".hookhost", "hooks.yml"),
	}
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	return paths
}

// Load reads every candidate source and merges them. A missing source is
// skipped silently; a malformed one is logged and skipped. The result is
// always a fully-formed configuration; with no sources at all it comes back
// disabled.
func (l *Loader) Load() *HooksConfiguration {
	merged := rawConfig{Hooks: make(map[string][]HookConfig)}
	found := false

	for _, path := range l.Sources() {
		raw, ok := l.loadSource(path)
		if !ok {
			continue
		}
		found = true
		mergeRaw(&merged, raw)
		log.Debug("loaded hooks config from %s", path)
	}

	if !found {
		return &HooksConfiguration{
			Version:           "1.0",
			Enabled:           false,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			ParallelExecution: true,
			Hooks:             make(map[Event][]HookConfig),
		}
	}
	return buildConfiguration(&merged)
}

// loadSource parses a single file, applying environment substitution first.
func (l *Loader) loadSource(path string) (*rawConfig, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("skipping unreadable hooks config %s: %v", path, err)
		}
		return nil, false
	}

	substituter := &config.EnvSubstituter{}
	substituted, err := substituter.SubstituteEnvVars(string(content))
	if err != nil {
		log.Warn("skipping hooks config %s: %v", path, err)
		return nil, false
	}

	var raw rawConfig
	if filepath.Ext(path) == ".json" {
		err = sonic.Unmarshal([]byte(substituted), &raw)
	} else {
		err = yaml.Unmarshal([]byte(substituted), &raw)
	}
	if err != nil {
		log.Warn("skipping malformed hooks config %s: %v", path, err)
		return nil, false
	}
	return &raw, true
}

// mergeRaw folds src into dst. Top-level scalars follow last-source-wins;
// each event's hook list is replaced wholesale, never merged element-wise.
func mergeRaw(dst, src *rawConfig) {
	if src.Version != "" {
		dst.Version = src.Version
	}
	if src.Enabled != nil {
		dst.Enabled = src.Enabled
	}
	if src.TimeoutSeconds != nil {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.ParallelExecution != nil {
		dst.ParallelExecution = src.ParallelExecution
	}
	for event, list := range src.Hooks {
		dst.Hooks[event] = list
	}
}

// buildConfiguration applies defaults and per-hook normalization.
func buildConfiguration(raw *rawConfig) *HooksConfiguration {
	cfg := &HooksConfiguration{
		Version:           raw.Version,
		Enabled:           true,
		TimeoutSeconds:    DefaultTimeoutSeconds,
		ParallelExecution: true,
		Hooks:             make(map[Event][]HookConfig, len(raw.Hooks)),
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled
	}
	if raw.TimeoutSeconds != nil && *raw.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = *raw.TimeoutSeconds
	}
	if raw.ParallelExecution != nil {
		cfg.ParallelExecution = *raw.ParallelExecution
	}

	for eventName, list := range raw.Hooks {
		event := Event(eventName)
		if !event.IsValid() {
			log.Warn("hooks configured for unknown event %q", eventName)
		}
		hooks := make([]HookConfig, len(list))
		for i, h := range list {
			h.Event = event
			if h.Timeout <= 0 {
				h.Timeout = cfg.TimeoutSeconds
			}
			if h.Contexts == nil {
				h.Contexts = []string{ContextCLI, ContextEmbedded}
			}
			hooks[i] = h
		}
		cfg.Hooks[event] = hooks
	}
	return cfg
}

// configDir follows the XDG Base Directory specification.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return "."
}
