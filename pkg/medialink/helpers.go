package medialink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/PakStar92/dev-tools/pkg/label"
)

const (
	// commonUserAgent is the browser profile sent on every upstream
	// request; the conversion services reject obvious bot agents.
	commonUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// commonAcceptHeader is the accept header used for all HTTP requests.
	commonAcceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	// defaultHTTPTimeout bounds each adapter's network calls. The Manager
	// adds no timeout of its own.
	defaultHTTPTimeout = 30 * time.Second
	// defaultConvertDelay is the fixed politeness pause applied before each
	// network call in two-phase adapters. A tunable constant, not a backoff.
	defaultConvertDelay = time.Second
	// maxHTTPRedirects is the maximum number of HTTP redirects to follow.
	maxHTTPRedirects = 3
	// maxBodyBytes caps how much of an upstream response body is read.
	maxBodyBytes = 4 << 20
)

// ErrTooManyRedirects is returned when too many redirects are encountered.
var ErrTooManyRedirects = errors.New("too many redirects")

// cdnHosts is the allowlist of hosts considered direct CDN destinations.
var cdnHosts = []string{
	"googlevideo.com",
	"fbcdn.net",
	"cdninstagram.com",
	"tiktokcdn.com",
}

var (
	// cdnURLRegex finds literal CDN URLs embedded in inline script text.
	// Some upstreams only surface links there, never in markup.
	cdnURLRegex = regexp.MustCompile(
		`https://[^"'\s\\]+(?:googlevideo\.com|fbcdn\.net|cdninstagram\.com|tiktokcdn\.com)[^"'\s\\]*`)
	// qualityLabelRegex recovers a best-effort quality label from the text
	// surrounding a download link.
	qualityLabelRegex = regexp.MustCompile(`(?i)(\d{3,4}p|\d+x\d+|HD|SD|\d+\s?kbps)`)
	// formatLabelRegex recovers a container/codec token.
	formatLabelRegex = regexp.MustCompile(`(?i)\b(mp4|webm|mp3|m4a)\b`)
)

// newHTTPClient creates an HTTP client with the adapter-standard timeout and
// redirect cap.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxHTTPRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// requestOptions carries per-request header tweaks on top of the common
// browser profile. The AJAX-style endpoints reject requests lacking the
// XMLHttpRequest marker and a matching Origin/Referer.
type requestOptions struct {
	referer string
	origin  string
	ajax    bool
}

// newRequest builds an upstream request with realistic browser headers.
// A non-nil form is sent URL-encoded as the POST body.
func newRequest(ctx context.Context, method, rawURL string, form url.Values, opts requestOptions) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", commonUserAgent)
	req.Header.Set("Accept", commonAcceptHeader)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if opts.ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	if opts.referer != "" {
		req.Header.Set("Referer", opts.referer)
	}
	if opts.origin != "" {
		req.Header.Set("Origin", opts.origin)
	}

	return req, nil
}

// fetchBody performs the request and returns the response body, limited to
// maxBodyBytes.
func fetchBody(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", req.URL.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// fetchDocument performs the request and parses the body as HTML.
func fetchDocument(client *http.Client, req *http.Request) (*goquery.Document, error) {
	body, err := fetchBody(client, req)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse response HTML: %w", err)
	}

	return doc, nil
}

// fetchJSON performs the request and decodes the body into dest.
func fetchJSON(client *http.Client, req *http.Request, dest interface{}) error {
	body, err := fetchBody(client, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}

	return nil
}

// waitPolitely blocks for the fixed inter-request delay, returning early when
// the context is cancelled.
func waitPolitely(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isCDNURL reports whether raw points at one of the allowlisted CDN hosts.
func isCDNURL(raw string) bool {
	if !strings.HasPrefix(raw, "http") {
		return false
	}
	for _, host := range cdnHosts {
		if strings.Contains(raw, host) {
			return true
		}
	}
	return false
}

// qualityFromText recovers a quality label from surrounding text, defaulting
// to "auto".
func qualityFromText(text string) string {
	if m := qualityLabelRegex.FindString(text); m != "" {
		return label.CleanLabel(m)
	}
	return "auto"
}

// formatFromText recovers a container token from link text or the URL itself,
// defaulting to "mp4".
func formatFromText(texts ...string) string {
	for _, text := range texts {
		if m := formatLabelRegex.FindString(text); m != "" {
			return strings.ToLower(m)
		}
	}
	return "mp4"
}

// collectAnchorLinks scrapes anchors whose destination matches the CDN
// allowlist or that present an explicit download affordance.
func collectAnchorLinks(doc *goquery.Document, service string) []ResolvedLink {
	var links []ResolvedLink

	selector := `.download-link, a[href*="googlevideo.com"], a[href*="fbcdn.net"], ` +
		`a[href*="cdninstagram.com"], a[href*="tiktokcdn.com"], a[download]`
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return
		}
		_, isDownload := s.Attr("download")
		if !isCDNURL(href) && !isDownload && !s.HasClass("download-link") {
			return
		}

		format := formatFromText(s.Text(), href)
		links = append(links, ResolvedLink{
			DirectURL: href,
			Quality:   qualityFromText(s.Text()),
			Format:    format,
			MediaType: MediaTypeFor(format),
			Service:   service,
		})
	})

	return links
}

// collectScriptLinks scans inline script text for literal CDN URLs, skipping
// those already found in markup. Script-only links carry no label context, so
// they default to auto/mp4.
func collectScriptLinks(doc *goquery.Document, service string, existing []ResolvedLink) []ResolvedLink {
	seen := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		seen[l.DirectURL] = struct{}{}
	}

	var links []ResolvedLink
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, match := range cdnURLRegex.FindAllString(s.Text(), -1) {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			links = append(links, ResolvedLink{
				DirectURL: match,
				Quality:   "auto",
				Format:    "mp4",
				MediaType: "video",
				Service:   service,
			})
		}
	})

	return links
}
