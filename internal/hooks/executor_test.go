package hooks

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecuteBlockingSuccess(t *testing.T) {
	e := NewExecutor()
	hook := HookConfig{Name: "echo", Command: "echo hello", Blocking: true, Timeout: 5}
	data := NewEventData(PreToolUse)
	data.Context = ContextCLI

	res := e.ExecuteBlocking(context.Background(), hook, data)

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
	if res.Blocked {
		t.Error("exit-0 hook must not block")
	}
}

func TestExecuteBlockingCapturesStdin(t *testing.T) {
	// The hook receives the serialized event document on stdin exactly once.
	e := NewExecutor()
	hook := HookConfig{Name: "audit", Command: "cat", Blocking: true, Timeout: 5}
	data := NewEventData(PreToolUse)
	data.Context = ContextCLI
	data.ToolName = "bash"

	res := e.ExecuteBlocking(context.Background(), hook, data)

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	payload, err := data.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if res.Stdout != strings.TrimSpace(string(payload)) {
		t.Errorf("Stdout = %q, want the serialized event document", res.Stdout)
	}
	if !strings.Contains(res.Stdout, `"tool_name": "bash"`) {
		t.Errorf("payload missing tool_name: %q", res.Stdout)
	}
}

func TestExecuteBlockingNonZeroExit(t *testing.T) {
	e := NewExecutor()
	data := NewEventData(PreToolUse)
	data.Context = ContextCLI

	tests := []struct {
		name        string
		blocking    bool
		wantBlocked bool
	}{
		{"blocking hook blocks", true, true},
		{"non-blocking hook cannot block", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := HookConfig{
				Name:     "denier",
				Command:  "echo denied >&2; exit 1",
				Blocking: tt.blocking,
				Timeout:  5,
			}
			res := e.ExecuteBlocking(context.Background(), hook, data)

			if res.Success {
				t.Error("expected failure for exit 1")
			}
			if res.ExitCode != 1 {
				t.Errorf("ExitCode = %d, want 1", res.ExitCode)
			}
			if res.Blocked != tt.wantBlocked {
				t.Errorf("Blocked = %v, want %v", res.Blocked, tt.wantBlocked)
			}
			if res.Stderr != "denied" {
				t.Errorf("Stderr = %q, want %q", res.Stderr, "denied")
			}
		})
	}
}

func TestExecuteBlockingTimeout(t *testing.T) {
	e := NewExecutor()
	hook := HookConfig{Name: "slow", Command: "sleep 30", Blocking: true, Timeout: 1}
	data := NewEventData(PreToolUse)
	data.Context = ContextCLI

	start := time.Now()
	res := e.ExecuteBlocking(context.Background(), hook, data)
	elapsed := time.Since(start)

	if res.Success {
		t.Error("expected failure on timeout")
	}
	if !res.Blocked {
		t.Error("a timed-out blocking hook blocks")
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("Error = %q, want it to mention the timeout", res.Error)
	}
	// The process must be dead when the call returns, well before its own
	// 30s runtime.
	if elapsed > 5*time.Second {
		t.Errorf("call took %v, expected ~1s timeout enforcement", elapsed)
	}
}

func TestExecuteBlockingSpawnFailure(t *testing.T) {
	e := NewExecutor()
	hook := HookConfig{Name: "broken", Command: "true", Blocking: true, Timeout: 5}
	data := NewEventData(PreToolUse)
	data.Context = ContextCLI
	data.WorkingDir = "/nonexistent/dir/for/hookhost/tests"

	res := e.ExecuteBlocking(context.Background(), hook, data)

	if res.Success {
		t.Error("expected failure when the command cannot start")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for a spawn failure", res.ExitCode)
	}
	if res.Error == "" {
		t.Error("spawn failures should carry an error message")
	}
	if !res.Blocked {
		t.Error("a blocking hook that cannot start blocks")
	}
}

func TestExecuteBlockingDisabledHook(t *testing.T) {
	e := NewExecutor()
	disabled := false
	hook := HookConfig{Name: "off", Command: "exit 1", Blocking: true, Enabled: &disabled}
	data := NewEventData(PreToolUse)
	data.Context = ContextCLI

	res := e.ExecuteBlocking(context.Background(), hook, data)

	if !res.Success || res.Blocked {
		t.Errorf("disabled hook should be a no-op success: %+v", res)
	}
	if res.Stdout != "hook disabled" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
}

func TestExecuteBlockingEnvironment(t *testing.T) {
	e := NewExecutor()
	hook := HookConfig{
		Name:     "env",
		Command:  `echo "$HOOKHOST_EVENT/$HOOKHOST_CONTEXT/$HOOKHOST_SESSION_ID/$HOOKHOST_REQUEST_ID"`,
		Blocking: true,
		Timeout:  5,
	}
	data := NewEventData(HostRequestReceived)
	data.Context = ContextEmbedded
	data.SessionID = "s-123"
	data.HostRequestID = "req-9"

	res := e.ExecuteBlocking(context.Background(), hook, data)

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	want := "host_request_received/embedded/s-123/req-9"
	if res.Stdout != want {
		t.Errorf("Stdout = %q, want %q", res.Stdout, want)
	}
}
