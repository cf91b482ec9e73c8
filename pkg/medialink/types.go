// Package medialink provides multi-service resolution of media page URLs into
// directly fetchable download links. Each supported conversion service is
// wrapped by a resolver; the Manager fans a request out to all of them,
// tolerates individual failures and merges the findings.
package medialink

import (
	"context"
	"errors"
	"strings"
)

// ResolvedLink describes one directly downloadable rendition of a media URL.
// DirectURL needs no further service interaction, though upstreams may expire
// it server-side at any time.
type ResolvedLink struct {
	DirectURL string `json:"directUrl"`
	Quality   string `json:"quality"`
	Format    string `json:"format"`
	MediaType string `json:"type"`
	Size      string `json:"size,omitempty"`
	Service   string `json:"service"`
}

// ResolutionResult is the aggregate outcome of one resolution request.
// Success is true iff Total > 0. The value is built once per call and never
// mutated afterwards.
type ResolutionResult struct {
	Success   bool           `json:"success"`
	Downloads []ResolvedLink `json:"downloads"`
	Services  []string       `json:"services"`
	Total     int            `json:"total"`
	Error     string         `json:"error,omitempty"`
}

// Resolver defines the interface implemented by every service adapter.
type Resolver interface {
	// Name returns the service identifier reported in ResolvedLink.Service.
	Name() string

	// Resolve queries the upstream for direct download links. Upstream
	// trouble is reported as an error; the Manager absorbs it so one
	// service's failure never aborts its siblings.
	Resolve(ctx context.Context, sourceURL string) ([]ResolvedLink, error)
}

var (
	// ErrNoVideoID is returned by adapters that need a platform video ID
	// when none can be extracted from the source URL.
	ErrNoVideoID = errors.New("no video ID in source URL")

	// ErrUpstreamStatus is returned when an upstream response carries a
	// non-success status sentinel.
	ErrUpstreamStatus = errors.New("upstream reported failure status")
)

// MediaTypeFor derives the media type from a container format label.
func MediaTypeFor(format string) string {
	switch strings.ToLower(format) {
	case "mp3", "m4a":
		return "audio"
	}
	return "video"
}
