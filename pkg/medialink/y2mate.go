package medialink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/PakStar92/dev-tools/pkg/label"
)

const (
	// y2mateBaseURL is the y2mate.com origin.
	y2mateBaseURL = "https://www.y2mate.com"
	// y2mateAnalyzePath returns the menu of convertible options for a URL.
	y2mateAnalyzePath = "/mates/analyze/ajax"
	// y2mateConvertPath resolves one option to a direct link.
	y2mateConvertPath = "/mates/convert"
	// y2mateStatusOK is the success sentinel in the JSON envelope.
	y2mateStatusOK = "ok"
	// y2mateConvertCap bounds convert requests per resolution; each convert
	// is a full upstream transcode trigger.
	y2mateConvertCap = 3
)

// statusEnvelope is the JSON wrapper y2mate returns for both phases: a status
// sentinel plus an HTML fragment under result.
type statusEnvelope struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

// conversionOption is an unresolved candidate parsed from the analyze
// fragment. The key and fquality tokens are opaque values the upstream needs
// to perform the actual conversion.
type conversionOption struct {
	key      string
	fquality string
	quality  string
	format   string
}

// Y2MateResolver extracts direct links through y2mate.com's two-phase
// analyze/convert AJAX contract.
type Y2MateResolver struct {
	baseURL    string
	client     *http.Client
	convertCap int
	delay      time.Duration
}

// NewY2MateResolver creates a y2mate.com adapter with the given tunables.
func NewY2MateResolver(s Settings) *Y2MateResolver {
	return newY2MateResolver(y2mateBaseURL, newHTTPClient(s.HTTPTimeout), s.ConvertDelay)
}

func newY2MateResolver(baseURL string, client *http.Client, delay time.Duration) *Y2MateResolver {
	return &Y2MateResolver{
		baseURL:    baseURL,
		client:     client,
		convertCap: y2mateConvertCap,
		delay:      delay,
	}
}

// Name returns the service identifier.
func (r *Y2MateResolver) Name() string {
	return "y2mate"
}

// Resolve analyzes the source URL, then converts a bounded prefix of the
// returned options. A failed conversion only loses that candidate; the
// remaining options still get their chance.
func (r *Y2MateResolver) Resolve(ctx context.Context, sourceURL string) ([]ResolvedLink, error) {
	videoID, ok := ExtractVideoID(sourceURL)
	if !ok {
		return nil, ErrNoVideoID
	}

	options, err := r.analyze(ctx, sourceURL, videoID)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var links []ResolvedLink
	for i, opt := range options {
		if i >= r.convertCap {
			break
		}

		link, err := r.convert(ctx, videoID, opt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return links, nil
			}
			continue
		}
		links = append(links, link)
	}

	return links, nil
}

// analyze posts the source URL to the analyze endpoint and parses the HTML
// fragment of convertible options out of the JSON envelope.
func (r *Y2MateResolver) analyze(ctx context.Context, sourceURL, videoID string) ([]conversionOption, error) {
	if err := waitPolitely(ctx, r.delay); err != nil {
		return nil, err
	}

	form := url.Values{
		"url":    {sourceURL},
		"q_auto": {"0"},
		"ajax":   {"1"},
	}
	req, err := newRequest(ctx, http.MethodPost, r.baseURL+y2mateAnalyzePath, form, requestOptions{
		ajax:    true,
		origin:  r.baseURL,
		referer: fmt.Sprintf("%s/youtube/%s", r.baseURL, videoID),
	})
	if err != nil {
		return nil, err
	}

	var envelope statusEnvelope
	if err := fetchJSON(r.client, req, &envelope); err != nil {
		return nil, err
	}
	if envelope.Status != y2mateStatusOK {
		return nil, fmt.Errorf("%w: %q", ErrUpstreamStatus, envelope.Status)
	}

	return parseConversionOptions(envelope.Result)
}

// parseConversionOptions turns the analyze fragment into unresolved
// candidates. Rows without a download button carry no conversion tokens and
// are skipped.
func parseConversionOptions(fragment string) ([]conversionOption, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse analyze fragment: %w", err)
	}

	var options []conversionOption
	doc.Find(".download-items tr").Each(func(_ int, row *goquery.Selection) {
		btn := row.Find(".download-btn")
		if btn.Length() == 0 {
			return
		}

		key, _ := btn.Attr("data-ftype")
		fquality, _ := btn.Attr("data-fquality")

		options = append(options, conversionOption{
			key:      key,
			fquality: fquality,
			quality:  label.CleanLabel(row.Find(".text-left").First().Text()),
			format:   label.CanonicalFormat(row.Find(".text-center").First().Text()),
		})
	})

	return options, nil
}

// convert resolves one candidate to a direct link.
func (r *Y2MateResolver) convert(ctx context.Context, videoID string, opt conversionOption) (ResolvedLink, error) {
	if err := waitPolitely(ctx, r.delay); err != nil {
		return ResolvedLink{}, err
	}

	form := url.Values{
		"vid":        {videoID},
		"k":          {opt.key},
		"ftype":      {opt.format},
		"fquality":   {opt.fquality},
		"token":      {""},
		"timeExpire": {""},
		"client":     {"y2mate"},
	}
	req, err := newRequest(ctx, http.MethodPost, r.baseURL+y2mateConvertPath, form, requestOptions{
		ajax:    true,
		origin:  r.baseURL,
		referer: r.baseURL,
	})
	if err != nil {
		return ResolvedLink{}, err
	}

	var envelope statusEnvelope
	if err := fetchJSON(r.client, req, &envelope); err != nil {
		return ResolvedLink{}, err
	}
	if envelope.Status != y2mateStatusOK {
		return ResolvedLink{}, fmt.Errorf("%w: %q", ErrUpstreamStatus, envelope.Status)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(envelope.Result))
	if err != nil {
		return ResolvedLink{}, fmt.Errorf("failed to parse convert fragment: %w", err)
	}

	directURL, ok := doc.Find(`a[href*="download"]`).First().Attr("href")
	if !ok || !strings.HasPrefix(directURL, "http") {
		return ResolvedLink{}, fmt.Errorf("no download link in convert result")
	}

	quality := opt.quality
	if quality == "" {
		quality = "auto"
	}

	return ResolvedLink{
		DirectURL: directURL,
		Quality:   quality,
		Format:    opt.format,
		MediaType: MediaTypeFor(opt.format),
		Service:   r.Name(),
	}, nil
}
