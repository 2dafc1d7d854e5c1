package utils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"
)

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateToWidth(tt.text, tt.width); got != tt.want {
			t.Errorf("TruncateToWidth(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestSplitByWidth_WideRunes(t *testing.T) {
	parts := SplitByWidth("日本語テキスト", 4)
	for _, part := range parts {
		if w := runewidth.StringWidth(part); w > 4 {
			t.Fatalf("part %q has width %d, want <= 4", part, w)
		}
	}
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %d: %q", len(parts), parts)
	}
}

func TestWrapWords(t *testing.T) {
	got := WrapWords("Please provide your general information like name", 20)
	want := []string{
		"Please provide your",
		"general information",
		"like name",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("WrapWords mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapWords_HardSplitsLongWords(t *testing.T) {
	got := WrapWords("abcdefghij", 4)
	want := []string{"abcd", "efgh", "ij"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("WrapWords mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitize_StripsEscapes(t *testing.T) {
	in := "\x1b[31mred\x1b[0m text\x07\nnext\tline"
	want := "red text\nnext\tline"
	if got := Sanitize(in); got != want {
		t.Fatalf("Sanitize() = %q, want %q", got, want)
	}
}

func TestPadPlain(t *testing.T) {
	if got := PadPlain("ab", 4); got != "ab  " {
		t.Fatalf("PadPlain() = %q", got)
	}
	if got := PadPlain("abcdef", 4); got != "abcdef" {
		t.Fatalf("PadPlain() should not truncate, got %q", got)
	}
}

func TestFitHeight(t *testing.T) {
	lines := []string{"title", "", "a", "b", "", "c", "", "hint"}

	tests := []struct {
		name   string
		height int
		want   []string
	}{
		{"fits", 8, lines},
		{"drops spacers first", 6, []string{"title", "a", "b", "c", "", "hint"}},
		{"truncates after spacers", 4, []string{"title", "a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FitHeight(lines, tt.height)); diff != "" {
				t.Fatalf("FitHeight mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
