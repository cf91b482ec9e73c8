// Package http provides the HTTP front door: the static page, the extraction
// API and operational endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/PakStar92/dev-tools/internal/core"
	"github.com/PakStar92/dev-tools/internal/flood"
	"github.com/PakStar92/dev-tools/pkg/medialink"
	"github.com/PakStar92/dev-tools/pkg/text"
)

// LinkResolver is the one capability the shell needs from the core pipeline.
type LinkResolver interface {
	Resolve(ctx context.Context, sourceURL string) medialink.ResolutionResult
}

type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	resolver LinkResolver
	parser   *text.Parser
	gate     *flood.Floodgate
	metrics  *Metrics
}

type Metrics struct {
	ExtractionsTotal *prometheus.CounterVec
	LinksTotal       *prometheus.CounterVec
	ExtractionTime   prometheus.Histogram
	RateLimitedTotal prometheus.Counter

	registry *prometheus.Registry
}

// newMetrics builds the metric set on its own registry, so multiple servers
// (tests included) never fight over the global one.
func newMetrics() *Metrics {
	metrics := &Metrics{
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devtools_extractions_total",
				Help: "Total number of extraction requests processed",
			},
			[]string{"status"},
		),
		LinksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devtools_links_total",
				Help: "Total number of direct links found, per service",
			},
			[]string{"service"},
		),
		ExtractionTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "devtools_extraction_duration_seconds",
				Help:    "Time spent resolving one source URL across all services",
				Buckets: prometheus.DefBuckets,
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "devtools_rate_limited_total",
				Help: "Total number of requests rejected by the floodgate",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	metrics.registry.MustRegister(
		metrics.ExtractionsTotal,
		metrics.LinksTotal,
		metrics.ExtractionTime,
		metrics.RateLimitedTotal,
	)

	return metrics
}

// NewServer wires the extraction API. gate may be nil to disable rate
// limiting.
func NewServer(config *core.ServerConfig, logger *zap.Logger, resolver LinkResolver, gate *flood.Floodgate) *Server {
	s := &Server{
		config:   config,
		logger:   logger,
		resolver: resolver,
		parser:   text.NewParser(),
		gate:     gate,
		metrics:  newMetrics(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/direct-urls", s.handleDirectURLs)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleHome)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// handleDirectURLs resolves the url query parameter into direct download
// links. Pasted share text is accepted; the first URL in it wins.
func (s *Server) handleDirectURLs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	raw := r.URL.Query().Get("url")
	sourceURL, ok := s.parser.FirstURL(raw)
	if raw == "" || !ok {
		s.metrics.ExtractionsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, medialink.ResolutionResult{
			Downloads: []medialink.ResolvedLink{},
			Services:  []string{},
			Error:     "url parameter is required",
		})
		return
	}

	if s.gate != nil && !s.gate.CheckRequest(clientIP(r)) {
		s.metrics.RateLimitedTotal.Inc()
		writeJSON(w, http.StatusTooManyRequests, medialink.ResolutionResult{
			Downloads: []medialink.ResolvedLink{},
			Services:  []string{},
			Error:     "rate limit exceeded, try again in a minute",
		})
		return
	}

	s.logger.Info("extraction requested",
		zap.String("url", sourceURL),
		zap.String("client", clientIP(r)))

	result := s.resolver.Resolve(r.Context(), sourceURL)

	s.metrics.ExtractionTime.Observe(time.Since(start).Seconds())
	for _, service := range result.Services {
		s.metrics.LinksTotal.WithLabelValues(service).Inc()
	}
	switch {
	case result.Error != "":
		s.metrics.ExtractionsTotal.WithLabelValues("invalid").Inc()
	case result.Success:
		s.metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	default:
		s.metrics.ExtractionsTotal.WithLabelValues("empty").Inc()
	}

	if !result.Success && result.Error == "" {
		result.Error = "No direct URLs found. The video might be private, unavailable, or services are down."
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"devtools"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready","service":"devtools"}`))
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(homePage))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>Direct Video URL Extractor</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; }
        h1 { color: #333; }
        .note { background: #f8f9fa; border-left: 4px solid #007bff; padding: 15px; border-radius: 6px; margin-bottom: 20px; }
        .input-group { display: flex; gap: 10px; margin-bottom: 20px; }
        input[type="url"] { flex: 1; padding: 12px; border: 2px solid #ddd; border-radius: 6px; font-size: 15px; }
        button { padding: 12px 24px; background: #667eea; color: white; border: none; border-radius: 6px; cursor: pointer; font-size: 15px; }
        button:disabled { opacity: 0.6; cursor: not-allowed; }
        .url-item { background: #f8f9fa; padding: 16px; margin: 12px 0; border-radius: 8px; border-left: 4px solid #667eea; }
        .url-meta { color: #666; font-size: 0.9em; margin-bottom: 8px; }
        .direct-url { background: #2d3748; color: #e2e8f0; padding: 10px; border-radius: 6px; font-family: monospace; word-break: break-all; font-size: 0.85em; }
        .error { color: #dc3545; background: #f8d7da; padding: 15px; border-radius: 6px; }
        .endpoint { margin: 6px 0; }
        .endpoint a { color: #0066cc; text-decoration: none; }
    </style>
</head>
<body>
    <h1>Direct Video URL Extractor</h1>
    <div class="note">
        Paste a video page URL (YouTube, Instagram, TikTok, Facebook) and this tool
        queries several conversion services concurrently for direct CDN download
        links. No files are stored on the server.
    </div>
    <div class="input-group">
        <input type="url" id="videoUrl" placeholder="Enter video URL" />
        <button onclick="extractUrls()" id="extractBtn">Extract URLs</button>
    </div>
    <div id="results"></div>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/metrics">/metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">/healthz</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">/readyz</a> - Readiness check</div>

    <script>
        async function extractUrls() {
            const url = document.getElementById('videoUrl').value;
            const resultsDiv = document.getElementById('results');
            const btn = document.getElementById('extractBtn');
            if (!url) { alert('Please enter a URL'); return; }

            btn.disabled = true;
            btn.textContent = 'Extracting...';
            resultsDiv.innerHTML = '<p>Querying services concurrently, this can take a while...</p>';

            try {
                const resp = await fetch('/api/direct-urls?url=' + encodeURIComponent(url));
                const data = await resp.json();
                if (data.success && data.downloads.length > 0) {
                    let html = '<p>Found ' + data.total + ' links via: ' + data.services.join(', ') + '</p>';
                    for (const d of data.downloads) {
                        html += '<div class="url-item">' +
                            '<div class="url-meta">' + d.service + ' | ' + d.quality + ' | ' + d.format +
                            (d.size ? ' | ' + d.size : '') + ' | ' + d.type + '</div>' +
                            '<div class="direct-url">' + d.directUrl + '</div>' +
                            '</div>';
                    }
                    resultsDiv.innerHTML = html;
                } else {
                    resultsDiv.innerHTML = '<div class="error">' + (data.error || 'No links found.') + '</div>';
                }
            } catch (err) {
                resultsDiv.innerHTML = '<div class="error">Request failed: ' + err + '</div>';
            } finally {
                btn.disabled = false;
                btn.textContent = 'Extract URLs';
            }
        }
    </script>
</body>
</html>
`
