package text

import (
	"testing"
)

func TestFirstURL(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		text     string
		expected string
		wantOK   bool
	}{
		{
			name:     "bare URL",
			text:     "https://www.youtube.com/watch?v=abc",
			expected: "https://www.youtube.com/watch?v=abc",
			wantOK:   true,
		},
		{
			name:     "URL inside share text",
			text:     "Check this out! https://youtu.be/abc123 so good",
			expected: "https://youtu.be/abc123",
			wantOK:   true,
		},
		{
			name:     "first of several",
			text:     "https://youtu.be/first and https://youtu.be/second",
			expected: "https://youtu.be/first",
			wantOK:   true,
		},
		{
			name:     "trailing punctuation trimmed",
			text:     "Watch https://youtu.be/abc123!",
			expected: "https://youtu.be/abc123",
			wantOK:   true,
		},
		{
			name:     "tracking parameters stripped",
			text:     "https://www.youtube.com/watch?v=abc&utm_source=share&si=xyz",
			expected: "https://www.youtube.com/watch?v=abc",
			wantOK:   true,
		},
		{
			name:   "no URL at all",
			text:   "just some words",
			wantOK: false,
		},
		{
			name:   "empty input",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.FirstURL(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("FirstURL(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.expected {
				t.Errorf("FirstURL(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	p := NewParser()

	urls := p.ExtractURLs("first https://a.example/x then https://b.example/y.")
	if len(urls) != 2 {
		t.Fatalf("ExtractURLs() returned %d URLs, want 2", len(urls))
	}
	if urls[0] != "https://a.example/x" {
		t.Errorf("urls[0] = %q", urls[0])
	}
	if urls[1] != "https://b.example/y" {
		t.Errorf("urls[1] = %q, want trailing period trimmed", urls[1])
	}
}

func TestExtractURLs_KeepsMeaningfulParams(t *testing.T) {
	p := NewParser()

	urls := p.ExtractURLs("https://www.youtube.com/watch?v=abc&t=42&utm_medium=social")
	if len(urls) != 1 {
		t.Fatalf("ExtractURLs() returned %d URLs, want 1", len(urls))
	}
	if urls[0] != "https://www.youtube.com/watch?t=42&v=abc" {
		t.Errorf("urls[0] = %q, want tracking stripped and the rest kept", urls[0])
	}
}
