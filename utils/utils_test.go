package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveFrontmatter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"frontmatter", "---\ntitle: x\n---\n# Hello", "# Hello"},
		{"blank line after", "---\ntitle: x\n---\n\nBody", "Body"},
		{"no frontmatter", "# Hello\n---\nmore", "# Hello\n---\nmore"},
		{"single rule", "---\nonly one", "---\nonly one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(RemoveFrontmatter([]byte(tt.input))); got != tt.want {
				t.Errorf("RemoveFrontmatter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("NARRATE_TEST_DIR", "voices")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/tmp/x", "/tmp/x"},
		{"~/models", filepath.Join(home, "models")},
		{"/data/$NARRATE_TEST_DIR", "/data/voices"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsMarkdownFile(t *testing.T) {
	for name, want := range map[string]bool{
		"README.md":      true,
		"notes.MARKDOWN": true,
		"story.txt":      false,
		"":               false,
	} {
		if got := IsMarkdownFile(name); got != want {
			t.Errorf("IsMarkdownFile(%q) = %v, want %v", name, got, want)
		}
	}
}
