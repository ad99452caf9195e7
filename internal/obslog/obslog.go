// Package obslog provides gecko's structured logging, built on slog with
// an optional lumberjack-backed rotating file sink. Unlike a generic
// service logger, it also guards against a gecko-specific leak: a scan's
// log attributes can carry raw device configuration text (node ids,
// remediation text, rule params), which for lines like "password 0 hunter2"
// is itself a credential. Every logger this package builds redacts those
// values before they reach any sink.
package obslog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// plaintextSecret matches a Cisco-style type-0 (unencrypted) credential
// line, e.g. "password 0 hunter2" or "secret 0 hunter2". Type 7/8/9 are
// already obfuscated or hashed and are left alone.
var plaintextSecret = regexp.MustCompile(`(?i)\b(password|secret|key)\s+0\s+\S+`)

// redactSecrets is a slog.HandlerOptions.ReplaceAttr hook that masks any
// string attribute value containing a plaintext credential, regardless of
// which component logged it or under which key.
func redactSecrets(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if !plaintextSecret.MatchString(s) {
		return a
	}
	return slog.String(a.Key, plaintextSecret.ReplaceAllString(s, "$1 0 [REDACTED]"))
}

// ContextKey is the type for context keys used by this package.
type ContextKey string

// ScanIDKey is the context key carrying the UUID of the in-flight scan, set
// by internal/editorsvc per inbound request and read back out via
// FromContext so every log line for that scan carries the same id.
const ScanIDKey ContextKey = "scan_id"

// Config holds logger configuration, loaded by internal/gkconfig.
type Config struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// New creates a structured logger from cfg.
func New(cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)
	writer := SetupWriter(cfg)

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler)
}

// ParseLevel parses a string log level, defaulting to info on anything
// unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupWriter configures the output writer named by cfg.Output. "both"
// is gecko-specific: a CLI invocation of `gecko validate` wants its scan
// log visible on the terminal immediately, while `gecko serve` wants the
// same lines durably retained across restarts, so "both" fans every
// record out to stdout and the rotating file at once instead of forcing
// a choice between interactive and durable logging.
func SetupWriter(cfg Config) io.Writer {
	fileWriter := func() io.Writer {
		if cfg.Filename == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		return fileWriter()
	case "both":
		return io.MultiWriter(os.Stdout, fileWriter())
	case "stderr":
		return os.Stderr
	case "stdout", "":
		return os.Stdout
	default:
		return os.Stdout
	}
}

// NewScanID generates a short random id for correlating the log lines of
// one scan (one parse+run) when UUIDs would be overkill, e.g. CLI runs
// with logging enabled but no editorsvc session around them.
func NewScanID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}
	return "scan_" + hex.EncodeToString(b)
}

// WithScanID attaches a scan id to ctx.
func WithScanID(ctx context.Context, scanID string) context.Context {
	return context.WithValue(ctx, ScanIDKey, scanID)
}

// ScanIDFromContext extracts the scan id previously attached by
// WithScanID, or "" if none is present.
func ScanIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ScanIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns logger with the context's scan id attached as a
// field, or logger unchanged if the context carries none.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := ScanIDFromContext(ctx); id != "" {
		return logger.With("scan_id", id)
	}
	return logger
}

// Middleware returns HTTP middleware for internal/editorsvc that assigns a
// scan id to every request lacking one, logs the request on completion,
// and echoes the id back in a response header so an editor client can
// correlate its own logs with gecko's.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			scanID := r.Header.Get("X-Scan-ID")
			if scanID == "" {
				scanID = NewScanID()
			}

			ctx := WithScanID(r.Context(), scanID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Scan-ID", scanID)

			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start),
				"scan_id", scanID,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
