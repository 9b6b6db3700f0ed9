package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/substratelabs/hookhost/internal/hooks"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage hookhost hooks",
	Long:  "Commands for inspecting, validating, and bootstrapping the hooks configuration",
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		defer m.Close()
		config := m.Config()

		if !config.Enabled {
			fmt.Println(warnStyle.Render("No hooks configuration found"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EVENT\tNAME\tMODE\tTIMEOUT\tCONTEXTS\tCOMMAND")

		for _, event := range hooks.AllEvents {
			for _, hook := range config.Hooks[event] {
				mode := "async"
				if hook.Blocking {
					mode = "blocking"
				}
				if !hook.IsEnabled() {
					mode += " (disabled)"
				}
				contexts := "all"
				if len(hook.Contexts) > 0 {
					contexts = strings.Join(hook.Contexts, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%ds\t%s\t%s\n",
					event, hook.Name, mode, hook.Timeout, contexts, hook.Command)
			}
		}

		return w.Flush()
	},
}

var hooksValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate hooks configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		defer m.Close()
		config := m.Config()

		if !config.Enabled {
			fmt.Println(warnStyle.Render("No hooks configuration found"))
			return nil
		}
		if err := hooks.Validate(config); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		fmt.Println(okStyle.Render("✓") + " Hooks configuration is valid")
		return nil
	},
}

var hooksInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate example hooks configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		example := &hooks.HooksConfiguration{
			Version:        "1.0",
			Enabled:        true,
			TimeoutSeconds: 60,
			Hooks: map[hooks.Event][]hooks.HookConfig{
				// Veto dangerous tool calls before they run.
				hooks.PreToolUse: {
					{
						Name:     "guard-bash",
						Command:  `jq -e '.tool_args.command | test("rm -rf") | not' > /dev/null`,
						Blocking: true,
						Timeout:  5,
						Matcher:  &hooks.MatcherSpec{Tool: hooks.StringList{"bash"}},
					},
				},
				// Log every tool result without holding up the agent.
				hooks.PostToolUse: {
					{
						Name:    "audit-tools",
						Command: `jq -c '{time: .timestamp, tool: .tool_name}' >> "${XDG_CONFIG_HOME:-$HOME/.config}/hookhost/logs/tools.jsonl"`,
						Timeout: 10,
					},
				},
				// Record prompts as they are submitted.
				hooks.UserPromptSubmit: {
					{
						Name:    "log-prompts",
						Command: `jq -r '"[" + .timestamp + "] " + .prompt' >> "${XDG_CONFIG_HOME:-$HOME/.config}/hookhost/logs/prompts.log"`,
					},
				},
				// Note session boundaries.
				hooks.SessionEnd: {
					{
						Name:    "log-session-end",
						Command: `jq -r '"session " + .session_id + " ended"' >> "${XDG_CONFIG_HOME:-$HOME/.config}/hookhost/logs/sessions.log"`,
					},
				},
			},
		}

		if err := os.MkdirAll(".hookhost", 0755); err != nil {
			return fmt.Errorf("creating .hookhost directory: %w", err)
		}

		data, err := yaml.Marshal(example)
		if err != nil {
			return fmt.Errorf("marshaling example: %w", err)
		}

		if err := os.WriteFile(".hookhost/hooks.yml", data, 0644); err != nil {
			return fmt.Errorf("writing example: %w", err)
		}

		fmt.Println("Created .hookhost/hooks.yml with example configuration")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksValidateCmd)
	hooksCmd.AddCommand(hooksInitCmd)
}
