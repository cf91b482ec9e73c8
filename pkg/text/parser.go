// Package text extracts usable source URLs from pasted user input.
package text

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// trackingParams are stripped from extracted URLs; they change nothing
	// upstream and break deduplication.
	trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si"}
)

// Parser extracts and cleans URLs from free text. Users paste whole share
// messages, not bare links.
type Parser struct{}

// NewParser creates a new input parser.
func NewParser() *Parser {
	return &Parser{}
}

// FirstURL returns the first well-formed http(s) URL found in text, stripped
// of tracking parameters. ok is false when the text carries none.
func (p *Parser) FirstURL(text string) (string, bool) {
	urls := p.ExtractURLs(text)
	if len(urls) == 0 {
		return "", false
	}
	return urls[0], true
}

// ExtractURLs returns every usable URL in text, in order of appearance.
func (p *Parser) ExtractURLs(text string) []string {
	text = p.normalizeText(text)

	var cleanURLs []string
	for _, match := range urlRegex.FindAllString(text, -1) {
		if cleanURL := p.cleanURL(match); cleanURL != "" {
			cleanURLs = append(cleanURLs, cleanURL)
		}
	}

	return cleanURLs
}

func (p *Parser) normalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func (p *Parser) cleanURL(rawURL string) string {
	// Pasted links drag sentence punctuation along.
	rawURL = strings.TrimRight(rawURL, ".,!?;)")

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	q := u.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
