package medialink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// loaderToBaseURL is the loader.to origin.
	loaderToBaseURL = "https://loader.to"
	// loaderToButtonPath lists convert buttons for a source URL.
	loaderToButtonPath = "/api/button"
	// loaderToConvertCap bounds convert requests per resolution.
	loaderToConvertCap = 2
)

// loaderToOption is an unresolved candidate from the button page. The convert
// URL is the upstream's opaque token for the second phase.
type loaderToOption struct {
	convertURL string
	quality    string
	format     string
}

// loaderToConvertResponse is the JSON shape some convert endpoints return.
type loaderToConvertResponse struct {
	URL string `json:"url"`
}

// LoaderToResolver extracts direct links through loader.to's GET-based
// button/convert contract.
type LoaderToResolver struct {
	baseURL    string
	client     *http.Client
	convertCap int
	delay      time.Duration
}

// NewLoaderToResolver creates a loader.to adapter with the given tunables.
func NewLoaderToResolver(s Settings) *LoaderToResolver {
	return newLoaderToResolver(loaderToBaseURL, newHTTPClient(s.HTTPTimeout), s.ConvertDelay)
}

func newLoaderToResolver(baseURL string, client *http.Client, delay time.Duration) *LoaderToResolver {
	return &LoaderToResolver{
		baseURL:    baseURL,
		client:     client,
		convertCap: loaderToConvertCap,
		delay:      delay,
	}
}

// Name returns the service identifier.
func (r *LoaderToResolver) Name() string {
	return "loader.to"
}

// Resolve fetches the convert button page for sourceURL and follows a bounded
// prefix of the offered conversions. Per-candidate failures are swallowed.
func (r *LoaderToResolver) Resolve(ctx context.Context, sourceURL string) ([]ResolvedLink, error) {
	options, err := r.fetchOptions(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("button page: %w", err)
	}

	var links []ResolvedLink
	for i, opt := range options {
		if i >= r.convertCap {
			break
		}

		link, err := r.convert(ctx, opt)
		if err != nil {
			continue
		}
		links = append(links, link)
	}

	return links, nil
}

// fetchOptions parses the button page into unresolved candidates.
func (r *LoaderToResolver) fetchOptions(ctx context.Context, sourceURL string) ([]loaderToOption, error) {
	apiURL := fmt.Sprintf("%s%s/?url=%s", r.baseURL, loaderToButtonPath, url.QueryEscape(sourceURL))
	req, err := newRequest(ctx, http.MethodGet, apiURL, nil, requestOptions{
		ajax:    true,
		referer: r.baseURL,
	})
	if err != nil {
		return nil, err
	}

	doc, err := fetchDocument(r.client, req)
	if err != nil {
		return nil, err
	}

	var options []loaderToOption
	doc.Find(".convert-btn, .download-btn").Each(func(_ int, s *goquery.Selection) {
		convertURL, _ := s.Attr("data-convert-url")
		if convertURL == "" {
			return
		}

		format, _ := s.Attr("data-format")
		if format == "" {
			format = "mp4"
		}
		quality, _ := s.Attr("data-quality")
		if quality == "" {
			quality = "auto"
		}

		options = append(options, loaderToOption{
			convertURL: convertURL,
			quality:    quality,
			format:     strings.ToLower(format),
		})
	})

	return options, nil
}

// convert follows one candidate's convert URL. The endpoint answers either
// with a JSON envelope carrying the direct URL or with an HTML page whose
// download anchor does; both shapes are tried against a single response body.
func (r *LoaderToResolver) convert(ctx context.Context, opt loaderToOption) (ResolvedLink, error) {
	if err := waitPolitely(ctx, r.delay); err != nil {
		return ResolvedLink{}, err
	}

	req, err := newRequest(ctx, http.MethodGet, opt.convertURL, nil, requestOptions{
		ajax:    true,
		referer: r.baseURL,
	})
	if err != nil {
		return ResolvedLink{}, err
	}

	body, err := fetchBody(r.client, req)
	if err != nil {
		return ResolvedLink{}, err
	}

	directURL, err := parseConvertBody(body)
	if err != nil {
		return ResolvedLink{}, err
	}

	return ResolvedLink{
		DirectURL: directURL,
		Quality:   opt.quality,
		Format:    opt.format,
		MediaType: MediaTypeFor(opt.format),
		Service:   r.Name(),
	}, nil
}

// parseConvertBody extracts the direct URL from a convert response body,
// JSON first, HTML anchor second.
func parseConvertBody(body []byte) (string, error) {
	var jsonResp loaderToConvertResponse
	if err := json.Unmarshal(body, &jsonResp); err == nil && strings.HasPrefix(jsonResp.URL, "http") {
		return jsonResp.URL, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse convert response: %w", err)
	}

	directURL, ok := doc.Find(`a[href*="download"], a[download]`).First().Attr("href")
	if !ok || !strings.HasPrefix(directURL, "http") {
		return "", fmt.Errorf("no direct URL in convert response")
	}

	return directURL, nil
}
