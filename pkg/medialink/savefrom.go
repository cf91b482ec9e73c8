package medialink

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

const (
	// saveFromBaseURL is the savefrom.net landing page.
	saveFromBaseURL = "https://savefrom.net"
	// saveFromFormSelector locates the submit form on the landing page.
	saveFromFormSelector = "#sf_form"
	// saveFromInputName is the form field carrying the source URL.
	saveFromInputName = "sf_url"
	// saveFromFallbackAction is used when the form declares no action.
	saveFromFallbackAction = "/process"
)

// SaveFromResolver extracts direct CDN links through savefrom.net's HTML form
// submission flow: fetch the landing page, replay its form with the source
// URL, scrape the result.
type SaveFromResolver struct {
	baseURL string
	client  *http.Client
}

// NewSaveFromResolver creates a savefrom.net adapter with the given tunables.
func NewSaveFromResolver(s Settings) *SaveFromResolver {
	return newSaveFromResolver(saveFromBaseURL, newHTTPClient(s.HTTPTimeout))
}

func newSaveFromResolver(baseURL string, client *http.Client) *SaveFromResolver {
	return &SaveFromResolver{
		baseURL: baseURL,
		client:  client,
	}
}

// Name returns the service identifier.
func (r *SaveFromResolver) Name() string {
	return "savefrom"
}

// Resolve submits sourceURL through the upstream's form and scrapes the
// response for direct CDN links, in markup and in inline script text.
func (r *SaveFromResolver) Resolve(ctx context.Context, sourceURL string) ([]ResolvedLink, error) {
	action, formData, err := r.fetchForm(ctx)
	if err != nil {
		return nil, fmt.Errorf("landing page: %w", err)
	}
	formData.Set(saveFromInputName, sourceURL)

	req, err := newRequest(ctx, http.MethodPost, r.baseURL+action, formData, requestOptions{
		referer: r.baseURL,
		origin:  r.baseURL,
	})
	if err != nil {
		return nil, err
	}

	doc, err := fetchDocument(r.client, req)
	if err != nil {
		return nil, fmt.Errorf("form submission: %w", err)
	}

	links := collectAnchorLinks(doc, r.Name())
	links = append(links, collectScriptLinks(doc, r.Name(), links)...)
	return links, nil
}

// fetchForm loads the landing page and collects the form action plus its
// hidden anti-bot fields, which must be replayed on submission.
func (r *SaveFromResolver) fetchForm(ctx context.Context) (string, url.Values, error) {
	req, err := newRequest(ctx, http.MethodGet, r.baseURL, nil, requestOptions{})
	if err != nil {
		return "", nil, err
	}

	doc, err := fetchDocument(r.client, req)
	if err != nil {
		return "", nil, err
	}

	form := doc.Find(saveFromFormSelector)
	action, _ := form.Attr("action")
	if action == "" {
		action = saveFromFallbackAction
	}

	formData := url.Values{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		value, _ := s.Attr("value")
		if name != "" && value != "" {
			formData.Set(name, value)
		}
	})

	return action, formData, nil
}
