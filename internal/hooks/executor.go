package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/substratelabs/hookhost/internal/log"
)

// envPrefix is prepended to every variable injected into hook processes.
const envPrefix = "HOOKHOST_"

// Executor runs blocking hooks synchronously. The calling goroutine is
// suspended for the whole run; that suspension is what lets a policy hook
// veto further work.
type Executor struct{}

// NewExecutor creates a blocking hook executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// ExecuteBlocking runs one hook to completion, bounded by its timeout. The
// event payload is delivered once on stdin; stdout and stderr are captured
// verbatim (trimmed). Failures never surface as errors, only as failed
// results.
func (e *Executor) ExecuteBlocking(ctx context.Context, hook HookConfig, data *EventData) HookExecutionResult {
	start := time.Now()

	if !hook.IsEnabled() {
		return HookExecutionResult{
			HookName: hook.Name,
			Success:  true,
			ExitCode: 0,
			Stdout:   "hook disabled",
		}
	}

	payload, err := data.Marshal()
	if err != nil {
		return HookExecutionResult{
			HookName: hook.Name,
			Success:  false,
			ExitCode: -1,
			Error:    err.Error(),
			Blocked:  hook.Blocking,
		}
	}

	timeout := hook.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := shellArgs(expandHome(hook.Command))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = hookEnv(data)
	cmd.Dir = data.WorkingDir
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		return killProcGroup(cmd)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("executing blocking hook %q: %s", hook.Name, hook.Command)
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		log.Warn("blocking hook %q timed out after %s", hook.Name, timeout)
		return HookExecutionResult{
			HookName:      hook.Name,
			Success:       false,
			ExitCode:      -1,
			Error:         fmt.Sprintf("hook execution timed out after %s", timeout),
			ExecutionTime: elapsed,
			Blocked:       hook.Blocking,
		}
	}

	exitCode := 0
	errText := ""
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// The command never started.
			exitCode = -1
			errText = runErr.Error()
		}
	}

	outStr := strings.TrimSpace(stdout.String())
	errStr := strings.TrimSpace(stderr.String())
	if errText == "" && exitCode != 0 {
		errText = errStr
	}

	log.Debug("blocking hook %q exited with code %d", hook.Name, exitCode)

	return HookExecutionResult{
		HookName:      hook.Name,
		Success:       exitCode == 0,
		ExitCode:      exitCode,
		Stdout:        outStr,
		Stderr:        errStr,
		Error:         errText,
		ExecutionTime: elapsed,
		Blocked:       exitCode != 0 && hook.Blocking,
	}
}

// hookEnv builds the environment for a hook process: the host environment
// plus the fixed-prefix variables describing the event.
func hookEnv(data *EventData) []string {
	env := os.Environ()
	env = append(env,
		envPrefix+"EVENT="+data.Event,
		envPrefix+"CONTEXT="+data.Context,
		envPrefix+"WORKING_DIR="+data.WorkingDir,
		envPrefix+"SESSION_ID="+data.SessionID,
		envPrefix+"MODEL="+data.Model,
		envPrefix+"PROVIDER="+data.Provider,
	)
	if data.HostRequestID != "" {
		env = append(env, envPrefix+"REQUEST_ID="+data.HostRequestID)
	}
	return env
}

// expandHome expands a leading ~ in a hook command to the home directory.
func expandHome(command string) string {
	if strings.HasPrefix(command, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + command[1:]
		}
	}
	return command
}
