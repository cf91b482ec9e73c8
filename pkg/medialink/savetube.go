package medialink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PakStar92/dev-tools/pkg/label"
)

const (
	// saveTubeBaseURL is the savetube.me origin.
	saveTubeBaseURL = "https://savetube.me"
	// saveTubeConvertPath is the single AJAX conversion endpoint.
	saveTubeConvertPath = "/api/convert"
	// saveTubeStatusOK is the success sentinel in the JSON envelope.
	saveTubeStatusOK = "success"
)

// saveTubeResponse is the JSON envelope returned by the convert endpoint.
type saveTubeResponse struct {
	Status    string         `json:"status"`
	Downloads []saveTubeItem `json:"downloads"`
}

type saveTubeItem struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	Format  string `json:"format"`
	Type    string `json:"type"`
	Size    string `json:"size"`
}

// SaveTubeResolver extracts direct links through savetube.me's single-phase
// AJAX endpoint, which answers in JSON when it feels like it and in HTML
// otherwise.
type SaveTubeResolver struct {
	baseURL string
	client  *http.Client
}

// NewSaveTubeResolver creates a savetube.me adapter with the given tunables.
func NewSaveTubeResolver(s Settings) *SaveTubeResolver {
	return newSaveTubeResolver(saveTubeBaseURL, newHTTPClient(s.HTTPTimeout))
}

func newSaveTubeResolver(baseURL string, client *http.Client) *SaveTubeResolver {
	return &SaveTubeResolver{
		baseURL: baseURL,
		client:  client,
	}
}

// Name returns the service identifier.
func (r *SaveTubeResolver) Name() string {
	return "savetube"
}

// Resolve posts sourceURL to the conversion endpoint and parses whichever
// response shape comes back.
func (r *SaveTubeResolver) Resolve(ctx context.Context, sourceURL string) ([]ResolvedLink, error) {
	form := url.Values{
		"url":     {sourceURL},
		"format":  {"mp4"},
		"quality": {"auto"},
	}
	req, err := newRequest(ctx, http.MethodPost, r.baseURL+saveTubeConvertPath, form, requestOptions{
		ajax:    true,
		origin:  r.baseURL,
		referer: r.baseURL,
	})
	if err != nil {
		return nil, err
	}

	body, err := fetchBody(r.client, req)
	if err != nil {
		return nil, fmt.Errorf("convert request: %w", err)
	}

	var envelope saveTubeResponse
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Status != saveTubeStatusOK {
			return nil, fmt.Errorf("%w: %q", ErrUpstreamStatus, envelope.Status)
		}
		return r.linksFromJSON(envelope), nil
	}

	return r.linksFromHTML(body)
}

// linksFromJSON maps the JSON download list, dropping entries without a
// usable direct URL.
func (r *SaveTubeResolver) linksFromJSON(envelope saveTubeResponse) []ResolvedLink {
	var links []ResolvedLink
	for _, item := range envelope.Downloads {
		if !strings.HasPrefix(item.URL, "http") {
			continue
		}

		quality := item.Quality
		if quality == "" {
			quality = "auto"
		}
		format := label.CanonicalFormat(item.Format)
		mediaType := item.Type
		if mediaType == "" {
			mediaType = MediaTypeFor(format)
		}

		links = append(links, ResolvedLink{
			DirectURL: item.URL,
			Quality:   quality,
			Format:    format,
			MediaType: mediaType,
			Size:      item.Size,
			Service:   r.Name(),
		})
	}
	return links
}

// linksFromHTML scrapes the HTML fallback shape: download option blocks with
// quality and format spans around an anchor.
func (r *SaveTubeResolver) linksFromHTML(body []byte) ([]ResolvedLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse convert response: %w", err)
	}

	var links []ResolvedLink
	doc.Find(".download-option, .download-link").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			href, _ = s.Attr("href")
		}
		if !strings.HasPrefix(href, "http") {
			return
		}

		quality := label.CleanLabel(s.Find(".quality").First().Text())
		if quality == "" {
			quality = "auto"
		}
		format := label.CanonicalFormat(s.Find(".format").First().Text())

		links = append(links, ResolvedLink{
			DirectURL: href,
			Quality:   quality,
			Format:    format,
			MediaType: MediaTypeFor(format),
			Size:      label.CleanLabel(s.Find(".size").First().Text()),
			Service:   r.Name(),
		})
	})

	return links, nil
}
