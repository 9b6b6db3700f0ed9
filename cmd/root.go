package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/substratelabs/hookhost/internal/hooks"
	"github.com/substratelabs/hookhost/internal/log"
)

var (
	debugMode    bool
	contextFlag  string
	overridePath string
	noHooks      bool
)

var rootCmd = &cobra.Command{
	Use:   "hookhost",
	Short: "Run lifecycle hooks around AI agent requests",
	Long: `Hookhost executes user-defined shell hooks at agent lifecycle events:
before and after tool calls, on session start and end, on prompts and
responses. Blocking hooks can veto the triggering operation; non-blocking
hooks run as detached processes supervised by a watchdog.

Configuration merges three sources in ascending precedence: the global
$XDG_CONFIG_HOME/hookhost/hooks.{json,yml}, the project's
.hookhost/hooks.{json,yml}, and an explicit --hooks-config file.

Examples:
  # Inspect the effective configuration
  hookhost hooks list
  hookhost hooks validate

  # Generate a starter project configuration
  hookhost hooks init

  # Fire one event, reading extra payload fields from stdin
  echo '{"tool_name": "bash"}' | hookhost trigger pre_tool_use`,
}

// GetRootCommand returns the root command with the version set
func GetRootCommand(v string) *cobra.Command {
	rootCmd.Version = v
	return rootCmd
}

func initConfig() {
	viper.SetEnvPrefix("HOOKHOST")
	viper.AutomaticEnv()

	if viper.GetBool("debug") {
		log.SetLevel(log.LevelDebug)
	}
}

// newManager builds a hook manager honoring the global flags.
func newManager() *hooks.Manager {
	opts := []hooks.Option{hooks.WithContext(viper.GetString("context"))}
	if path := viper.GetString("hooks-config"); path != "" {
		opts = append(opts, hooks.WithOverridePath(path))
	}
	return hooks.NewManager(opts...)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&contextFlag, "context", hooks.ContextCLI, "execution context (cli or embedded)")
	rootCmd.PersistentFlags().
		StringVar(&overridePath, "hooks-config", "", "explicit hooks configuration file (highest precedence)")
	rootCmd.PersistentFlags().
		BoolVar(&noHooks, "no-hooks", false, "disable all hooks execution")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("context", rootCmd.PersistentFlags().Lookup("context"))
	viper.BindPFlag("hooks-config", rootCmd.PersistentFlags().Lookup("hooks-config"))
	viper.BindPFlag("no-hooks", rootCmd.PersistentFlags().Lookup("no-hooks"))
}
