package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
)

// EventData is the payload describing one event occurrence. It is written to
// each hook process as JSON; only non-zero optional fields are serialized.
type EventData struct {
	Event      string `json:"event"`
	Timestamp  string `json:"timestamp"` // ISO-8601
	Context    string `json:"context"`   // "cli" or "embedded"
	WorkingDir string `json:"working_dir"`
	ProjectDir string `json:"project_dir,omitempty"`

	// Session information
	SessionID    string `json:"session_id,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`

	// Agent configuration
	Model       string  `json:"model,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Prompt/response data
	Prompt        string `json:"prompt,omitempty"`
	AgentResponse string `json:"agent_response,omitempty"`

	// Tool-specific data
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`
	ToolResult json.RawMessage `json:"tool_result,omitempty"`
	Error      string          `json:"error,omitempty"`

	// Accounting
	TokenUsage    map[string]int `json:"token_usage,omitempty"`
	ExecutionTime float64        `json:"execution_time,omitempty"` // seconds

	// Embedded-host fields
	HostClientID  string `json:"embedded_client_id,omitempty"`
	HostRequestID string `json:"embedded_request_id,omitempty"`
}

// NewEventData creates a payload for the given event with the timestamp and
// working directory filled in.
func NewEventData(event Event) *EventData {
	cwd, _ := os.Getwd()
	return &EventData{
		Event:      string(event),
		Timestamp:  time.Now().Format(time.RFC3339),
		WorkingDir: cwd,
	}
}

// Marshal serializes the payload as indented JSON, the exact document each
// hook process receives on stdin.
func (d *EventData) Marshal() ([]byte, error) {
	out, err := sonic.ConfigDefault.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling event data: %w", err)
	}
	return out, nil
}

// HookExecutionResult is the outcome of one hook run.
type HookExecutionResult struct {
	HookName      string        `json:"hook_name"`
	Success       bool          `json:"success"`
	ExitCode      int           `json:"exit_code"`
	Stdout        string        `json:"stdout,omitempty"`
	Stderr        string        `json:"stderr,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	Blocked       bool          `json:"blocked"`
	Error         string        `json:"error,omitempty"`
}

// HookResult aggregates the outcome of one trigger.
type HookResult struct {
	Event         Event                 `json:"event"`
	HooksExecuted int                   `json:"hooks_executed"`
	Results       []HookExecutionResult `json:"results"`
	Blocked       bool                  `json:"blocked"`
	TotalTime     time.Duration         `json:"total_time"`
}

// AllSucceeded reports whether every executed hook succeeded.
func (r *HookResult) AllSucceeded() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// BlockReason returns a human-readable reason assembled from the first
// blocked result, or "" when nothing blocked.
func (r *HookResult) BlockReason() string {
	for _, res := range r.Results {
		if !res.Blocked {
			continue
		}
		reason := res.Stderr
		if reason == "" {
			reason = res.Error
		}
		if reason == "" {
			reason = "blocked"
		}
		return fmt.Sprintf("%s: %s", res.HookName, reason)
	}
	return ""
}
