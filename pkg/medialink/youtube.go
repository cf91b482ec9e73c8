package medialink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// youtubeFormatCap bounds how many stream URLs are resolved per video.
const youtubeFormatCap = 3

// errNotYouTubeURL marks source URLs this adapter does not handle.
var errNotYouTubeURL = errors.New("not a YouTube URL")

// YouTubeResolver resolves YouTube links without a conversion middleman by
// asking YouTube itself for stream URLs. It only answers for YouTube domains;
// everything else is left to the scraping adapters.
type YouTubeResolver struct {
	client    youtube.Client
	formatCap int
}

// NewYouTubeResolver creates a direct YouTube adapter.
func NewYouTubeResolver() *YouTubeResolver {
	return &YouTubeResolver{
		formatCap: youtubeFormatCap,
	}
}

// Name returns the service identifier.
func (r *YouTubeResolver) Name() string {
	return "youtube"
}

// Resolve fetches the video's format list and resolves a bounded prefix of
// its muxed streams to direct googlevideo.com URLs.
func (r *YouTubeResolver) Resolve(ctx context.Context, sourceURL string) ([]ResolvedLink, error) {
	if !isYouTubeURL(sourceURL) {
		return nil, errNotYouTubeURL
	}

	videoID, ok := ExtractVideoID(sourceURL)
	if !ok {
		return nil, ErrNoVideoID
	}

	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video metadata: %w", err)
	}

	// Muxed streams only; video-only renditions are useless as direct
	// downloads.
	formats := video.Formats.WithAudioChannels()
	formats.Sort()

	var links []ResolvedLink
	for i := range formats {
		if len(links) >= r.formatCap {
			break
		}

		format := &formats[i]
		streamURL, err := r.client.GetStreamURLContext(ctx, video, format)
		if err != nil || !strings.HasPrefix(streamURL, "http") {
			continue
		}

		quality := format.QualityLabel
		if quality == "" {
			quality = "auto"
		}
		container := containerFromMimeType(format.MimeType)

		links = append(links, ResolvedLink{
			DirectURL: streamURL,
			Quality:   quality,
			Format:    container,
			MediaType: MediaTypeFor(container),
			Size:      sizeLabel(format.ContentLength),
			Service:   r.Name(),
		})
	}

	return links, nil
}

// isYouTubeURL reports whether the URL belongs to a YouTube domain.
func isYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Hostname()) {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

// containerFromMimeType reduces "video/mp4; codecs=..." to "mp4".
func containerFromMimeType(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	if idx := strings.Index(mimeType, "/"); idx >= 0 {
		mimeType = mimeType[idx+1:]
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if mimeType == "" {
		return "mp4"
	}
	return mimeType
}

// sizeLabel renders a byte count as a rough human-readable label; zero means
// the upstream did not report one.
func sizeLabel(bytes int64) string {
	if bytes <= 0 {
		return ""
	}

	const unit = 1024
	switch {
	case bytes >= unit*unit*unit:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(unit*unit*unit))
	case bytes >= unit*unit:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(unit*unit))
	case bytes >= unit:
		return fmt.Sprintf("%.1f KB", float64(bytes)/unit)
	}
	return fmt.Sprintf("%d B", bytes)
}
