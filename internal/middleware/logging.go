package middleware

import (
	"cmp"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"hologram/internal/logging"
)

// LoggingConfig selects which requests get an access line. Probes are
// quiet unless LogHealthChecks is set.
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{SkipPaths: []string{"/metrics"}}
}

var probePaths = []string{"/health", "/healthz", "/livez", "/readyz"}

func (c LoggingConfig) skip(path string) bool {
	return hasPrefix(path, c.SkipPaths) || (!c.LogHealthChecks && slices.Contains(probePaths, path))
}

// w3cFields is the field order of every access line:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes
//	time-taken sc(Content-Encoding) sc(X-Scan-Id) cs(User-Agent) cs(Referer)
//
// X-Scan-Id ties scan requests to the scan id carried on progress events.
const w3cFields = 13

// Logger returns middleware writing one W3C Extended Log Format line per
// request through the logging package.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			logging.Printf("%s", accessLine(r, rec, start))
		})
	}
}

func accessLine(r *http.Request, rec *recorder, start time.Time) string {
	now := time.Now().UTC()
	fields := make([]string, 0, w3cFields)
	fields = append(fields,
		now.Format(time.DateOnly),
		now.Format(time.TimeOnly),
		field(getClientIP(r)),
		field(r.Method),
		field(r.URL.Path),
		field(r.URL.RawQuery),
		strconv.Itoa(rec.Status()),
		strconv.FormatInt(rec.bytes, 10),
		strconv.FormatInt(time.Since(start).Milliseconds(), 10),
		field(rec.Header().Get("Content-Encoding")),
		field(rec.Header().Get("X-Scan-Id")),
		field(r.Header.Get("User-Agent")),
		field(r.Header.Get("Referer")),
	)
	return strings.Join(fields, " ")
}

// field sanitizes a request-controlled value and renders it as a single
// W3C token: "-" when empty, quoted when it contains blanks or quotes.
func field(s string) string {
	s = sanitizeLogField(s)
	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \t\""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	default:
		return s
	}
}

// sanitizeLogField drops control characters so a header value cannot forge
// extra log lines or inject terminal escapes. Line breaks become spaces;
// tabs are kept.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// getClientIP prefers the first proxy hop, then X-Real-IP, then the peer.
func getClientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := cmp.Or(strings.TrimSpace(first), r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
