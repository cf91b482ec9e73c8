package medialink

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Settings carries the tunables shared by the built-in service adapters.
type Settings struct {
	// HTTPTimeout bounds each adapter's individual network calls.
	HTTPTimeout time.Duration
	// ConvertDelay is the fixed inter-request pause in two-phase adapters.
	ConvertDelay time.Duration
}

// DefaultSettings returns the adapter tunables used in production.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout:  defaultHTTPTimeout,
		ConvertDelay: defaultConvertDelay,
	}
}

// DefaultResolvers creates the full set of built-in service adapters.
func DefaultResolvers(s Settings) []Resolver {
	return []Resolver{
		NewSaveFromResolver(s),
		NewY2MateResolver(s),
		NewLoaderToResolver(s),
		NewSaveTubeResolver(s),
		NewYouTubeResolver(),
	}
}

// Manager fans a resolution request out to every registered service adapter
// and merges their findings into one deduplicated, ranked result.
type Manager struct {
	resolvers []Resolver
	scores    map[string]int
	logger    *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithResolvers replaces the default adapter set.
func WithResolvers(resolvers ...Resolver) Option {
	return func(m *Manager) {
		m.resolvers = resolvers
	}
}

// WithQualityScores overrides the ranking table. The tie-break mapping between
// textual labels is deployment configuration, not a hard-coded law.
func WithQualityScores(scores map[string]int) Option {
	return func(m *Manager) {
		if len(scores) > 0 {
			m.scores = scores
		}
	}
}

// NewManager creates a manager with the default adapters and ranking table.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		resolvers: DefaultResolvers(DefaultSettings()),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Resolve queries every adapter concurrently against sourceURL and returns the
// combined result. Adapter failures degrade the result, never abort it; only a
// malformed source URL fails the call outright, without touching the network.
func (m *Manager) Resolve(ctx context.Context, sourceURL string) ResolutionResult {
	if err := validateSourceURL(sourceURL); err != nil {
		return ResolutionResult{
			Downloads: []ResolvedLink{},
			Services:  []string{},
			Error:     err.Error(),
		}
	}

	// One result slot per adapter. Slots keep registration order as the
	// stable tie-break for equally ranked links, and make the final merge
	// race-free: every writer has terminated before the slots are read.
	perAdapter := make([][]ResolvedLink, len(m.resolvers))

	var wg sync.WaitGroup
	for i, r := range m.resolvers {
		wg.Add(1)
		go func(i int, r Resolver) {
			defer wg.Done()

			links, err := r.Resolve(ctx, sourceURL)
			if err != nil {
				// Fail soft: the failure is only a diagnostic.
				m.logger.Warn("service adapter failed",
					zap.String("service", r.Name()),
					zap.Error(err))
				return
			}
			perAdapter[i] = links
		}(i, r)
	}
	// Wait for all adapters: the value is the union of every service's
	// findings, not the fastest one, so stragglers are never cancelled.
	wg.Wait()

	var combined []ResolvedLink
	var services []string
	for i, links := range perAdapter {
		if len(links) == 0 {
			continue
		}
		combined = append(combined, links...)
		services = append(services, m.resolvers[i].Name())
		m.logger.Debug("service contributed links",
			zap.String("service", m.resolvers[i].Name()),
			zap.Int("count", len(links)))
	}
	if services == nil {
		services = []string{}
	}

	ranked := RankByQuality(Deduplicate(combined), m.scores)

	return ResolutionResult{
		Success:   len(ranked) > 0,
		Downloads: ranked,
		Services:  services,
		Total:     len(ranked),
	}
}

// validateSourceURL enforces the only precondition: an absolute http(s) URL.
func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}
