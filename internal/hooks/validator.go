package hooks

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTimeoutSeconds = 600

// Patterns flagging commands that look dangerous enough to reject outright.
var (
	pathTraversalPattern       = regexp.MustCompile(`\.\.\/`)
	commandSubstitutionPattern = regexp.MustCompile(`\$\([^)]+\)|` + "`" + `[^` + "`" + `]+` + "`")
)

// Validate checks the whole configuration for structural and security
// problems. It returns the first problem found.
func Validate(cfg *HooksConfiguration) error {
	if cfg == nil {
		return fmt.Errorf("nil configuration")
	}

	for event, hooks := range cfg.Hooks {
		if !event.IsValid() {
			return fmt.Errorf("unknown event: %s", event)
		}
		for i, hook := range hooks {
			if err := validateHook(hook); err != nil {
				name := hook.Name
				if name == "" {
					name = fmt.Sprintf("#%d", i)
				}
				return fmt.Errorf("hook %s for event %s: %w", name, event, err)
			}
		}
	}
	return nil
}

func validateHook(hook HookConfig) error {
	if hook.Name == "" {
		return fmt.Errorf("missing name")
	}
	if err := validateCommand(hook.Command); err != nil {
		return err
	}
	if hook.Timeout < 0 {
		return fmt.Errorf("negative timeout: %d", hook.Timeout)
	}
	if hook.Timeout > maxTimeoutSeconds {
		return fmt.Errorf("timeout too large: %d (max %d seconds)", hook.Timeout, maxTimeoutSeconds)
	}
	for _, ctx := range hook.Contexts {
		if !IsValidContext(ctx) {
			return fmt.Errorf("unknown context: %s", ctx)
		}
	}
	if hook.Matcher != nil && hook.Matcher.Pattern != "" {
		if _, err := regexp.Compile(hook.Matcher.Pattern); err != nil {
			return fmt.Errorf("invalid path pattern %q: %w", hook.Matcher.Pattern, err)
		}
	}
	return nil
}

// validateCommand rejects empty and obviously dangerous commands.
func validateCommand(command string) error {
	if command == "" {
		return fmt.Errorf("empty command")
	}
	if pathTraversalPattern.MatchString(command) {
		return fmt.Errorf("path traversal detected")
	}
	if commandSubstitutionPattern.MatchString(command) {
		return fmt.Errorf("command substitution detected")
	}
	if containsDangerousPattern(command) {
		return fmt.Errorf("potential command injection detected")
	}
	if unbalancedQuotes(command) {
		return fmt.Errorf("unmatched quote")
	}
	return nil
}

// unbalancedQuotes reports whether the command leaves a quote open. Quotes of
// one kind inside the other kind do not count.
func unbalancedQuotes(command string) bool {
	var inSingle, inDouble bool
	for i := 0; i < len(command); i++ {
		switch command[i] {
		case '\\':
			if inDouble || (!inSingle && !inDouble) {
				i++
			}
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		}
	}
	return inSingle || inDouble
}

// containsDangerousPattern checks for destructive chained commands and
// suspicious amounts of command chaining.
func containsDangerousPattern(command string) bool {
	dangerous := []string{
		"; rm ", "&& rm ", "| rm ",
		"; dd ", "&& dd ", "| dd ",
	}
	for _, pattern := range dangerous {
		if strings.Contains(command, pattern) {
			return true
		}
	}

	// Reasonable chaining is fine; heavy chaining usually is not.
	separators := 0
	for _, sep := range []string{";", "&&", "||", "|"} {
		separators += strings.Count(command, sep)
	}
	return separators > 2
}
