package hooks

// Event identifies a point in the agent request lifecycle where hooks can fire
type Event string

const (
	// Agent lifecycle
	PreAgentStart     Event = "pre_agent_start"     // before agent initialization
	PostAgentComplete Event = "post_agent_complete" // after the agent run finishes
	AgentError        Event = "agent_error"         // when the agent run fails

	// Tool execution
	PreToolUse  Event = "pre_tool_use"  // before any tool execution
	PostToolUse Event = "post_tool_use" // after successful tool execution
	ToolError   Event = "tool_error"    // when tool execution fails

	// Session boundaries
	SessionStart Event = "session_start" // when a session begins or resumes
	SessionEnd   Event = "session_end"   // when a session terminates
	SessionSave  Event = "session_save"  // before persisting a session

	// Prompt/response
	UserPromptSubmit Event = "user_prompt_submit" // before processing a user prompt
	AgentResponse    Event = "agent_response"     // after the agent generates a response

	// Embedded-host events (when driven by an external host process)
	HostRequestReceived Event = "host_request_received" // when a host request arrives
	HostResponseReady   Event = "host_response_ready"   // before sending the host response
)

// Execution contexts used to filter which hooks apply.
const (
	ContextCLI      = "cli"
	ContextEmbedded = "embedded"
)

// AllEvents lists every valid lifecycle event.
var AllEvents = []Event{
	PreAgentStart, PostAgentComplete, AgentError,
	PreToolUse, PostToolUse, ToolError,
	SessionStart, SessionEnd, SessionSave,
	UserPromptSubmit, AgentResponse,
	HostRequestReceived, HostResponseReady,
}

// IsValid returns true if the event is a known lifecycle event
func (e Event) IsValid() bool {
	for _, known := range AllEvents {
		if e == known {
			return true
		}
	}
	return false
}

// UsesToolMatcher returns true for events that carry a tool name and can be
// filtered by tool matchers
func (e Event) UsesToolMatcher() bool {
	return e == PreToolUse || e == PostToolUse || e == ToolError
}

// IsValidContext returns true if ctx is a known execution context.
func IsValidContext(ctx string) bool {
	return ctx == ContextCLI || ctx == ContextEmbedded
}
