package services

import (
	"strings"
	"testing"
)

func TestBuildTextQuizPrompt(t *testing.T) {
	prompt := BuildTextQuizPrompt("the krebs cycle releases energy", 7, "hard")

	for _, want := range []string{
		"Exactly 7 questions",
		"Difficulty: hard",
		"correctIndex",
		"the krebs cycle releases energy",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildFileQuizPrompt(t *testing.T) {
	prompt := BuildFileQuizPrompt("slide contents here", 4)

	for _, want := range []string{
		"Exactly 4 questions",
		"review notes",
		"correctIndex",
		"slide contents here",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence mid-text", "Here you go:\n```json\n{\"a\":1}\n```\n", "Here you go:\n\n{\"a\":1}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.input); got != tc.expected {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
