package medialink

import "regexp"

// videoIDPatterns is the ordered list of platform matchers. The patterns are
// not mutually exclusive prefixes of each other, so order is part of the
// contract: the first capturing match wins.
var videoIDPatterns = []*regexp.Regexp{
	// YouTube watch pages, youtu.be short links and embeds.
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#/]+)`),
	// YouTube shorts and the legacy /v/ path.
	regexp.MustCompile(`youtube\.com/(?:shorts|v)/([^&\n?#/]+)`),
	// Instagram posts, reels and IGTV.
	regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([^/?#]+)`),
	// TikTok profile videos and vm.tiktok.com short links.
	regexp.MustCompile(`(?:tiktok\.com/@[^/]+/video/|vm\.tiktok\.com/)([^/?#]+)`),
	// Facebook watch pages and fb.watch short links.
	regexp.MustCompile(`(?:facebook\.com/watch/?\?v=|fb\.watch/)([^&/?#]+)`),
}

// ExtractVideoID pulls a platform-specific video ID out of a source URL.
// A false return is not an error by itself; only adapters that require an ID
// treat it as one.
func ExtractVideoID(rawURL string) (string, bool) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}
