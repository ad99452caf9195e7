// Package editorsvc is gecko's interactive editor integration: an HTTP+WS
// daemon that re-parses a buffer on demand and streams back RuleResults.
// Every scan re-parses the buffer text; the most recent forest per buffer is
// kept in an LRU cache and exposed through CachedForest, but scans do not
// read it.
package editorsvc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/evdanil/gecko/internal/configtree"
	"github.com/evdanil/gecko/internal/obslog"
	"github.com/evdanil/gecko/internal/obsmetrics"
	"github.com/evdanil/gecko/internal/rules"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ScanRequest is the wire shape of one inbound scan request, sent either
// as an HTTP POST body or a WebSocket text message.
type ScanRequest struct {
	BufferURI string `json:"buffer_uri"`
	Text      string `json:"text"`
}

// ScanResponse is the wire shape of one scan outcome.
type ScanResponse struct {
	ScanID  string             `json:"scan_id"`
	Results []rules.RuleResult `json:"results"`
	Error   string             `json:"error,omitempty"`
}

// bufferLimiter holds the rate limiter of one buffer, so a rapid run of
// keystrokes on that buffer is throttled independently of other buffers.
type bufferLimiter struct {
	limiter *rate.Limiter
}

// Server holds the state shared across requests: the active rule set, a
// per-buffer forest cache, and a per-buffer rate limiter.
type Server struct {
	logger         *slog.Logger
	ruleSet        []rules.Rule
	forests        *lru.Cache[string, configtree.Forest]
	limiters       *lru.Cache[string, *bufferLimiter]
	limiterMu      sync.Mutex
	rateLimit      rate.Limit
	burst          int
	metrics        *obsmetrics.ScanMetrics
	metricsEnabled bool
	metricsPath    string
}

// Config configures a Server.
type Config struct {
	Logger          *slog.Logger
	RuleSet         []rules.Rule
	ForestCacheSize int
	RescanRate      float64
	RescanBurst     int
	// MetricsEnabled and MetricsPath control the /metrics route this
	// server's long-running daemon mode exposes for Prometheus scraping.
	MetricsEnabled bool
	MetricsPath    string
}

// NewServer constructs a Server. ForestCacheSize bounds the number of
// distinct buffer URIs whose parsed forest is retained.
func NewServer(cfg Config) (*Server, error) {
	forests, err := lru.New[string, configtree.Forest](cfg.ForestCacheSize)
	if err != nil {
		return nil, err
	}
	limiters, err := lru.New[string, *bufferLimiter](cfg.ForestCacheSize)
	if err != nil {
		return nil, err
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Server{
		logger:         cfg.Logger,
		ruleSet:        cfg.RuleSet,
		forests:        forests,
		limiters:       limiters,
		rateLimit:      rate.Limit(cfg.RescanRate),
		burst:          cfg.RescanBurst,
		metrics:        obsmetrics.NewScanMetrics(),
		metricsEnabled: cfg.MetricsEnabled,
		metricsPath:    metricsPath,
	}, nil
}

// Router builds the HTTP handler tree: POST /scan for one-shot scans, GET
// /scan/ws for a persistent streaming connection, and — when metrics are
// enabled — a Prometheus exposition endpoint at the configured path.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(obslog.Middleware(s.logger))
	r.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/scan/ws", s.handleScanWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if s.metricsEnabled {
		r.Handle(s.metricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed scan request: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp := s.scan(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	if resp.Error != "" {
		w.WriteHeader(http.StatusTooManyRequests)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req ScanRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := s.scan(r.Context(), req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// scan re-parses req.Text, runs the rule set against it, and caches the
// resulting forest under req.BufferURI. A buffer exceeding its rescan
// rate limit gets a ScanResponse carrying Error instead of running a
// fresh parse, protecting the process from a pathological keystroke rate.
func (s *Server) scan(ctx context.Context, req ScanRequest) ScanResponse {
	scanID := uuid.NewString()
	ctx = obslog.WithScanID(ctx, scanID)
	logger := obslog.FromContext(ctx, s.logger)

	if !s.allow(req.BufferURI) {
		logger.Warn("rescan rate limit exceeded", "buffer_uri", req.BufferURI)
		return ScanResponse{ScanID: scanID, Error: "rescan rate limit exceeded for this buffer"}
	}

	forest := configtree.Parse(req.Text, configtree.ParseOptions{Source: configtree.SourceSnippet})
	s.forests.Add(req.BufferURI, forest)

	var nodeCount int
	forest.Walk(func(*configtree.ConfigNode) { nodeCount++ })
	s.metrics.ObserveForestSize(nodeCount)

	start := time.Now()
	results := rules.Run(forest, s.ruleSet, rules.PartialContext{
		Extra: map[string]any{"buffer_uri": req.BufferURI},
	}, logger)
	duration := time.Since(start)
	logger.Debug("scan complete", "duration", duration, "results", len(results))

	hadErrors := false
	for _, res := range results {
		s.metrics.ObserveRuleResult(res.RuleID, string(res.Level), res.Passed)
		if !res.Passed && res.Level == rules.LevelError {
			hadErrors = true
		}
	}
	s.metrics.ObserveScan(duration.Seconds(), hadErrors)

	return ScanResponse{ScanID: scanID, Results: results}
}

func (s *Server) allow(bufferURI string) bool {
	s.limiterMu.Lock()
	lim, ok := s.limiters.Get(bufferURI)
	if !ok {
		lim = &bufferLimiter{limiter: rate.NewLimiter(s.rateLimit, s.burst)}
		s.limiters.Add(bufferURI, lim)
	}
	s.limiterMu.Unlock()
	return lim.limiter.Allow()
}

// CachedForest returns the most recently parsed forest for bufferURI, if
// still resident in the cache.
func (s *Server) CachedForest(bufferURI string) (configtree.Forest, bool) {
	return s.forests.Get(bufferURI)
}
