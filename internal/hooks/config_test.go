package hooks

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// writeFile creates path (and parents) with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// testLoader returns a loader rooted in fresh temp dirs so no real
// configuration leaks into tests.
func testLoader(t *testing.T) *Loader {
	t.Helper()
	tmp := t.TempDir()
	return &Loader{
		GlobalDir:  filepath.Join(tmp, "global"),
		ProjectDir: filepath.Join(tmp, "project"),
	}
}

func TestLoaderNoSources(t *testing.T) {
	cfg := testLoader(t).Load()

	if cfg == nil {
		t.Fatal("Load returned nil")
	}
	if cfg.Enabled {
		t.Error("expected Enabled=false when no source exists")
	}
	if cfg.Hooks == nil {
		t.Error("expected non-nil hooks map")
	}
}

func TestLoaderSingleYAML(t *testing.T) {
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), `
version: "1.0"
timeout_seconds: 30
hooks:
  pre_tool_use:
    - name: audit
      command: echo test
      blocking: true
      timeout: 5
`)

	cfg := l.Load()

	if !cfg.Enabled {
		t.Error("expected Enabled=true by default when a source exists")
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
	}
	if !cfg.ParallelExecution {
		t.Error("expected ParallelExecution=true by default")
	}
	hooks := cfg.Hooks[PreToolUse]
	if len(hooks) != 1 {
		t.Fatalf("got %d hooks for pre_tool_use, want 1", len(hooks))
	}
	h := hooks[0]
	if h.Name != "audit" || h.Command != "echo test" || !h.Blocking || h.Timeout != 5 {
		t.Errorf("unexpected hook: %+v", h)
	}
	if h.Event != PreToolUse {
		t.Errorf("Event = %s, want %s", h.Event, PreToolUse)
	}
	if !reflect.DeepEqual(h.Contexts, []string{ContextCLI, ContextEmbedded}) {
		t.Errorf("Contexts = %v, want both contexts by default", h.Contexts)
	}
}

func TestLoaderSingleJSON(t *testing.T) {
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.json"), `{
  "enabled": true,
  "hooks": {
    "session_start": [
      {"name": "greet", "command": "echo hi"}
    ]
  }
}`)

	cfg := l.Load()

	hooks := cfg.Hooks[SessionStart]
	if len(hooks) != 1 {
		t.Fatalf("got %d hooks for session_start, want 1", len(hooks))
	}
	if hooks[0].Timeout != DefaultTimeoutSeconds {
		t.Errorf("Timeout = %d, want default %d", hooks[0].Timeout, DefaultTimeoutSeconds)
	}
}

func TestLoaderEnvSubstitution(t *testing.T) {
	t.Setenv("HOOKHOST_TEST_CMD", "echo from-env")

	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), `
hooks:
  session_start:
    - name: sub
      command: "${env://HOOKHOST_TEST_CMD}"
`)

	cfg := l.Load()

	hooks := cfg.Hooks[SessionStart]
	if len(hooks) != 1 || hooks[0].Command != "echo from-env" {
		t.Errorf("substitution failed: %+v", hooks)
	}
}

func TestLoaderMalformedSourceSkipped(t *testing.T) {
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), "hooks: [not: valid: yaml")
	writeFile(t, filepath.Join(l.ProjectDir, ".hookhost", "hooks.yml"), `
hooks:
  session_start:
    - name: survivor
      command: echo ok
`)

	cfg := l.Load()

	if len(cfg.Hooks[SessionStart]) != 1 {
		t.Fatalf("expected the valid project source to survive a malformed global one")
	}
}

func TestLoaderScalarPrecedence(t *testing.T) {
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), `
enabled: true
timeout_seconds: 120
parallel_execution: true
hooks: {}
`)
	writeFile(t, filepath.Join(l.ProjectDir, ".hookhost", "hooks.yml"), `
timeout_seconds: 10
parallel_execution: false
`)

	cfg := l.Load()

	if !cfg.Enabled {
		t.Error("Enabled should keep the global value when the project file omits it")
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want project value 10", cfg.TimeoutSeconds)
	}
	if cfg.ParallelExecution {
		t.Error("ParallelExecution should take the project value false")
	}
}

func TestLoaderEventListReplacement(t *testing.T) {
	// A later source's list for an event replaces the earlier list
	// wholesale, including replacement by an explicitly empty list.
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), `
hooks:
  session_start:
    - name: one
      command: echo one
    - name: two
      command: echo two
  session_end:
    - name: bye
      command: echo bye
`)
	writeFile(t, filepath.Join(l.ProjectDir, ".hookhost", "hooks.yml"), `
hooks:
  session_start: []
`)

	cfg := l.Load()

	if n := len(cfg.Hooks[SessionStart]); n != 0 {
		t.Errorf("session_start has %d hooks, want 0 (list replaced, not merged)", n)
	}
	if n := len(cfg.Hooks[SessionEnd]); n != 1 {
		t.Errorf("session_end has %d hooks, want 1 (untouched by project file)", n)
	}
}

func TestLoaderOverridePath(t *testing.T) {
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), `
hooks:
  session_start:
    - name: global
      command: echo global
`)
	override := filepath.Join(t.TempDir(), "override.yml")
	writeFile(t, override, `
hooks:
  session_start:
    - name: override
      command: echo override
`)
	l.OverridePath = override

	cfg := l.Load()

	hooks := cfg.Hooks[SessionStart]
	if len(hooks) != 1 || hooks[0].Name != "override" {
		t.Errorf("override file should win: %+v", hooks)
	}
}

func TestLoaderDeterministic(t *testing.T) {
	l := testLoader(t)
	writeFile(t, filepath.Join(l.GlobalDir, "hooks.yml"), `
hooks:
  pre_tool_use:
    - name: a
      command: echo a
    - name: b
      command: echo b
      blocking: true
`)
	writeFile(t, filepath.Join(l.ProjectDir, ".hookhost", "hooks.yml"), `
hooks:
  pre_tool_use:
    - name: c
      command: echo c
`)

	first := l.Load()
	second := l.Load()

	if !reflect.DeepEqual(first, second) {
		t.Error("loading the same sources twice should yield identical configurations")
	}
}

func TestHookConfigDefaults(t *testing.T) {
	h := HookConfig{Name: "x", Command: "true"}

	if !h.IsEnabled() {
		t.Error("hooks should be enabled unless explicitly disabled")
	}
	disabled := false
	h.Enabled = &disabled
	if h.IsEnabled() {
		t.Error("IsEnabled should honor an explicit false")
	}

	h.Timeout = 0
	if h.EffectiveTimeout() != DefaultTimeoutSeconds*time.Second {
		t.Errorf("EffectiveTimeout = %v, want %ds", h.EffectiveTimeout(), DefaultTimeoutSeconds)
	}
}
