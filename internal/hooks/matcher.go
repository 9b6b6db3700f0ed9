package hooks

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/substratelabs/hookhost/internal/log"
)

// MatcherSpec narrows a hook to particular tool invocations.
type MatcherSpec struct {
	// Tool restricts the hook to the named tools. Accepts a single name or
	// a list in the configuration file.
	Tool StringList `yaml:"tool,omitempty" json:"tool,omitempty"`

	// Pattern is a regular expression applied to the file path found in the
	// tool arguments (keys "file_path" or "filename").
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// StringList unmarshals from either a scalar or a sequence, so hook matchers
// can be written as `tool: bash` or `tool: [bash, write]`.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := value.Decode(&many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Matches decides whether this hook applies to the given event occurrence.
// Context membership is always required; tool set, path pattern, and
// condition only apply when declared. All declared criteria must hold.
func (h *HookConfig) Matches(data *EventData) bool {
	if h.Contexts != nil && !slices.Contains(h.Contexts, data.Context) {
		return false
	}

	if h.Matcher != nil {
		if len(h.Matcher.Tool) > 0 && data.ToolName != "" &&
			!slices.Contains(h.Matcher.Tool, data.ToolName) {
			return false
		}

		if h.Matcher.Pattern != "" && len(data.ToolArgs) > 0 {
			path := gjson.GetBytes(data.ToolArgs, "file_path").String()
			if path == "" {
				path = gjson.GetBytes(data.ToolArgs, "filename").String()
			}
			matched, err := regexp.MatchString(h.Matcher.Pattern, path)
			if err != nil {
				log.Warn("hook %q has invalid path pattern %q: %v", h.Name, h.Matcher.Pattern, err)
				return false
			}
			if !matched {
				return false
			}
		}
	}

	if h.Condition != "" && !conditionHolds(h.Condition, data) {
		return false
	}
	return true
}

// conditionHolds evaluates the minimal templated condition syntax. The only
// supported form is {{context:NAME}}, requiring the event's context to equal
// NAME.
func conditionHolds(condition string, data *EventData) bool {
	const marker = "{{context:"
	idx := strings.Index(condition, marker)
	if idx < 0 {
		return true
	}
	rest := condition[idx+len(marker):]
	end := strings.Index(rest, "}}")
	if end < 0 {
		return true
	}
	return data.Context == rest[:end]
}
