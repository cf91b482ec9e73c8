package medialink

import (
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		expectedID string
		wantOK     bool
	}{
		{
			name:       "YouTube watch URL",
			url:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			expectedID: "dQw4w9WgXcQ",
			wantOK:     true,
		},
		{
			name:       "YouTube short link",
			url:        "https://youtu.be/abc123",
			expectedID: "abc123",
			wantOK:     true,
		},
		{
			name:       "YouTube embed URL",
			url:        "https://www.youtube.com/embed/dQw4w9WgXcQ",
			expectedID: "dQw4w9WgXcQ",
			wantOK:     true,
		},
		{
			name:       "YouTube shorts URL",
			url:        "https://www.youtube.com/shorts/xyz789",
			expectedID: "xyz789",
			wantOK:     true,
		},
		{
			name:       "YouTube legacy v path",
			url:        "https://www.youtube.com/v/dQw4w9WgXcQ",
			expectedID: "dQw4w9WgXcQ",
			wantOK:     true,
		},
		{
			name:       "Watch URL with extra parameters",
			url:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc",
			expectedID: "dQw4w9WgXcQ",
			wantOK:     true,
		},
		{
			name:       "Instagram post",
			url:        "https://www.instagram.com/p/Cxyz123/",
			expectedID: "Cxyz123",
			wantOK:     true,
		},
		{
			name:       "Instagram reel",
			url:        "https://www.instagram.com/reel/Cabc456/",
			expectedID: "Cabc456",
			wantOK:     true,
		},
		{
			name:       "Instagram TV",
			url:        "https://www.instagram.com/tv/Cdef789/",
			expectedID: "Cdef789",
			wantOK:     true,
		},
		{
			name:       "TikTok profile video",
			url:        "https://www.tiktok.com/@someuser/video/7123456789",
			expectedID: "7123456789",
			wantOK:     true,
		},
		{
			name:       "TikTok short link",
			url:        "https://vm.tiktok.com/ZMabcdef/",
			expectedID: "ZMabcdef",
			wantOK:     true,
		},
		{
			name:       "Facebook watch URL",
			url:        "https://www.facebook.com/watch/?v=123456789",
			expectedID: "123456789",
			wantOK:     true,
		},
		{
			name:       "Facebook short link",
			url:        "https://fb.watch/abc123/",
			expectedID: "abc123",
			wantOK:     true,
		},
		{
			name:   "No match",
			url:    "https://example.com/video/123",
			wantOK: false,
		},
		{
			name:   "Empty string",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ExtractVideoID(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if ok && id != tt.expectedID {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, id, tt.expectedID)
			}
		})
	}
}

// A youtu.be link also contains a slash-delimited path segment that the
// shorts pattern could in principle chew on; precedence keeps the watch
// pattern first.
func TestExtractVideoID_Precedence(t *testing.T) {
	id, ok := ExtractVideoID("https://youtu.be/abc123")
	if !ok {
		t.Fatal("ExtractVideoID() expected a match")
	}
	if id != "abc123" {
		t.Errorf("ExtractVideoID() = %q, want %q", id, "abc123")
	}
}
