package medialink

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// stubResolver is a scripted adapter for manager tests.
type stubResolver struct {
	name  string
	links []ResolvedLink
	err   error
	calls atomic.Int64
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(_ context.Context, _ string) ([]ResolvedLink, error) {
	s.calls.Add(1)
	return s.links, s.err
}

func TestManagerResolve_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty string", ""},
		{"no scheme", "youtube.com/watch?v=abc"},
		{"unsupported scheme", "ftp://example.com/video"},
		{"missing host", "https:///watch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubResolver{name: "stub"}
			m := NewManager(nil, WithResolvers(stub))

			result := m.Resolve(context.Background(), tt.url)

			if result.Success {
				t.Error("Resolve() success = true, want false")
			}
			if result.Error == "" {
				t.Error("Resolve() error is empty, want a validation message")
			}
			if result.Total != 0 {
				t.Errorf("Resolve() total = %d, want 0", result.Total)
			}
			if result.Downloads == nil || result.Services == nil {
				t.Error("Resolve() downloads and services must be non-nil empty slices")
			}
			if got := stub.calls.Load(); got != 0 {
				t.Errorf("adapter invoked %d times for invalid URL, want 0", got)
			}
		})
	}
}

func TestManagerResolve_AdapterFailureIsIsolated(t *testing.T) {
	failing := &stubResolver{name: "broken", err: errors.New("upstream exploded")}
	working := &stubResolver{name: "working", links: []ResolvedLink{
		{DirectURL: "https://cdn.example/a.mp4", Quality: "720p", Format: "mp4", MediaType: "video", Service: "working"},
		{DirectURL: "https://cdn.example/b.mp4", Quality: "360p", Format: "mp4", MediaType: "video", Service: "working"},
	}}

	m := NewManager(nil, WithResolvers(failing, working))
	result := m.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")

	if !result.Success {
		t.Fatalf("Resolve() success = false, error = %q; want success", result.Error)
	}
	if result.Total != 2 {
		t.Errorf("Resolve() total = %d, want 2", result.Total)
	}
	if len(result.Services) != 1 || result.Services[0] != "working" {
		t.Errorf("Resolve() services = %v, want [working]", result.Services)
	}
	if got := failing.calls.Load(); got != 1 {
		t.Errorf("failing adapter invoked %d times, want 1", got)
	}
}

func TestManagerResolve_AllAdaptersEmpty(t *testing.T) {
	m := NewManager(nil, WithResolvers(
		&stubResolver{name: "a"},
		&stubResolver{name: "b", err: errors.New("down")},
	))

	result := m.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")

	if result.Success {
		t.Error("Resolve() success = true, want false")
	}
	if result.Error != "" {
		t.Errorf("Resolve() error = %q, want empty: adapter failures are not request failures", result.Error)
	}
	if result.Downloads == nil || len(result.Downloads) != 0 {
		t.Errorf("Resolve() downloads = %v, want empty non-nil slice", result.Downloads)
	}
	if result.Services == nil || len(result.Services) != 0 {
		t.Errorf("Resolve() services = %v, want empty non-nil slice", result.Services)
	}
}

func TestManagerResolve_MergeDedupAndRank(t *testing.T) {
	first := &stubResolver{name: "first", links: []ResolvedLink{
		{DirectURL: "https://cdn.example/v.mp4", Quality: "720p", Format: "mp4", MediaType: "video", Service: "first"},
	}}
	second := &stubResolver{name: "second", links: []ResolvedLink{
		// Exact duplicate of first's link, plus a better one.
		{DirectURL: "https://cdn.example/v.mp4", Quality: "720p", Format: "mp4", MediaType: "video", Service: "second"},
		{DirectURL: "https://cdn.example/hd.mp4", Quality: "1080p", Format: "mp4", MediaType: "video", Service: "second"},
	}}

	m := NewManager(nil, WithResolvers(first, second))
	result := m.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")

	if result.Total != 2 {
		t.Fatalf("Resolve() total = %d, want 2", result.Total)
	}
	if result.Downloads[0].Quality != "1080p" {
		t.Errorf("Resolve() downloads[0].Quality = %q, want 1080p first", result.Downloads[0].Quality)
	}
	// The duplicate keeps the earlier-registered service's attribution.
	if result.Downloads[1].Service != "first" {
		t.Errorf("Resolve() downloads[1].Service = %q, want first", result.Downloads[1].Service)
	}
	if len(result.Services) != 2 || result.Services[0] != "first" || result.Services[1] != "second" {
		t.Errorf("Resolve() services = %v, want registration order [first second]", result.Services)
	}
}

func TestManagerResolve_CustomQualityScores(t *testing.T) {
	stub := &stubResolver{name: "stub", links: []ResolvedLink{
		{DirectURL: "a", Quality: "1080p", Format: "mp4", MediaType: "video", Service: "stub"},
		{DirectURL: "b", Quality: "oddball", Format: "mp4", MediaType: "video", Service: "stub"},
	}}

	m := NewManager(nil,
		WithResolvers(stub),
		WithQualityScores(map[string]int{"oddball": 10, "1080p": 1}),
	)
	result := m.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")

	if result.Downloads[0].Quality != "oddball" {
		t.Errorf("Resolve() downloads[0].Quality = %q, want custom table to win", result.Downloads[0].Quality)
	}
}
