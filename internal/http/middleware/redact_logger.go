package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HeaderTelegramSecret carries the webhook secret Telegram echoes back on
// every delivery.
const HeaderTelegramSecret = "X-Telegram-Bot-Api-Secret-Token"

var (
	// Bot API tokens look like "123456789:AA..." and may appear in proxied paths.
	botTokenRE = regexp.MustCompile(`\d{6,12}:[A-Za-z0-9_-]{30,}`)
	// License keys in both the LC- form and the legacy 32-character form.
	licenseRE = regexp.MustCompile(`(?i)\bLC-[A-Z0-9]{6}-[A-Z0-9]{6}-[A-Z0-9]{6}\b|\b[A-Z0-9]{32}\b`)
	emailRE   = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// RedactOptions adds headers to the always-masked set (Authorization,
// Cookie, Set-Cookie and the Telegram secret header). Matching ignores case.
type RedactOptions struct {
	MaskHeaders []string
}

// redact scrubs bot tokens, license keys and email addresses from s.
// Tokens go first: their digit prefix would otherwise survive as noise.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = botTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	s = licenseRE.ReplaceAllString(s, "[REDACTED:license]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

// RedactingLogger writes one structured access log line per request with
// secrets scrubbed from the path, query and headers. Bodies are never
// logged. It also attaches a request-scoped logger for LoggerFrom.
//
// Level follows the outcome: error for 5xx, warn for 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := map[string]struct{}{
		"authorization":                       {},
		"cookie":                              {},
		"set-cookie":                          {},
		strings.ToLower(HeaderTelegramSecret): {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = redact(c.Request.URL.Path)
		}
		query := redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := mask[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		l := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
