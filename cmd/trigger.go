package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/substratelabs/hookhost/internal/hooks"
)

var (
	triggerWait      bool
	triggerSessionID string
	triggerTool      string
	triggerToolArgs  string
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <event>",
	Short: "Fire one lifecycle event through the configured hooks",
	Long: `Trigger runs every hook configured for the given event and prints the
aggregated result as JSON. Extra payload fields can be piped in as a JSON
document on stdin.

Examples:
  hookhost trigger session_start
  hookhost trigger pre_tool_use --tool bash --tool-args '{"command": "ls"}'
  echo '{"prompt": "hello"}' | hookhost trigger user_prompt_submit --wait`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		event := hooks.Event(args[0])
		if !event.IsValid() {
			return fmt.Errorf("unknown event %q (known: %s)", args[0], knownEvents())
		}
		if viper.GetBool("no-hooks") {
			fmt.Println("hooks disabled")
			return nil
		}

		data := hooks.NewEventData(event)
		if err := readStdinPayload(data); err != nil {
			return err
		}

		data.SessionID = triggerSessionID
		if data.SessionID == "" {
			data.SessionID = uuid.NewString()
		}
		if triggerTool != "" {
			data.ToolName = triggerTool
		}
		if triggerToolArgs != "" {
			data.ToolArgs = []byte(triggerToolArgs)
		}
		if event == hooks.HostRequestReceived || event == hooks.HostResponseReady {
			if data.HostRequestID == "" {
				data.HostRequestID = uuid.NewString()
			}
		}

		m := newManager()
		defer m.Close()

		result := m.TriggerSync(event, data, triggerWait)

		out, err := sonic.ConfigDefault.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		fmt.Println(string(out))

		if result.Blocked {
			return fmt.Errorf("operation blocked by hook: %s", result.BlockReason())
		}
		return nil
	},
}

// readStdinPayload merges a JSON document piped on stdin into the payload.
// An interactive stdin is ignored.
func readStdinPayload(data *hooks.EventData) error {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("parsing stdin payload: %w", err)
	}
	return nil
}

func knownEvents() string {
	names := make([]string, len(hooks.AllEvents))
	for i, e := range hooks.AllEvents {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(triggerCmd)

	triggerCmd.Flags().
		BoolVar(&triggerWait, "wait", false, "wait for non-blocking hooks to complete")
	triggerCmd.Flags().
		StringVar(&triggerSessionID, "session-id", "", "session id to stamp on the payload (default: generated)")
	triggerCmd.Flags().
		StringVar(&triggerTool, "tool", "", "tool name for tool events")
	triggerCmd.Flags().
		StringVar(&triggerToolArgs, "tool-args", "", "tool arguments as a JSON document")
}
