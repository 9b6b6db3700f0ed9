package config

import (
	"strings"
	"testing"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("HOOKHOST_TEST_TOKEN", "secret-value")
	t.Setenv("HOOKHOST_TEST_EMPTY", "")

	sub := &EnvSubstituter{}

	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "simple substitution",
			content: "token: ${env://HOOKHOST_TEST_TOKEN}",
			want:    "token: secret-value",
		},
		{
			name:    "default used when unset",
			content: "timeout: ${env://HOOKHOST_TEST_UNSET_VAR:-30}",
			want:    "timeout: 30",
		},
		{
			name:    "default used when empty",
			content: "mode: ${env://HOOKHOST_TEST_EMPTY:-fallback}",
			want:    "mode: fallback",
		},
		{
			name:    "set value wins over default",
			content: "token: ${env://HOOKHOST_TEST_TOKEN:-other}",
			want:    "token: secret-value",
		},
		{
			name:    "empty default",
			content: "opt: ${env://HOOKHOST_TEST_UNSET_VAR:-}",
			want:    "opt: ",
		},
		{
			name:    "no references",
			content: "plain: value",
			want:    "plain: value",
		},
		{
			name:    "missing without default",
			content: "token: ${env://HOOKHOST_TEST_UNSET_VAR}",
			wantErr: true,
		},
		{
			name:    "multiple references",
			content: "a: ${env://HOOKHOST_TEST_TOKEN} b: ${env://HOOKHOST_TEST_UNSET_VAR:-x}",
			want:    "a: secret-value b: x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sub.SubstituteEnvVars(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "HOOKHOST_TEST_UNSET_VAR") {
					t.Errorf("error %q does not name the missing variable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SubstituteEnvVars() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasEnvVars(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"token: ${env://API_KEY}", true},
		{"token: ${env://API_KEY:-default}", true},
		{"token: $API_KEY", false},
		{"token: ${API_KEY}", false},
		{"plain text", false},
	}
	for _, tt := range tests {
		if got := HasEnvVars(tt.content); got != tt.want {
			t.Errorf("HasEnvVars(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
