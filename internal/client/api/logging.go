package api

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport логирует исходящие запросы.
// НЕ логирует заголовки и тела: там токены и пароли.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// WithLogger logs every HTTP exchange: method, path, status, duration and request id.
// Server errors are logged at warn level, everything else at debug. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(HeaderRequestID),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		t.logger.Log(req.Context(), slog.LevelWarn, "HTTP request failed", append(attrs, "error", err)...)
		return nil, err
	}

	// 401 штатно предшествует refresh, не warn
	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelWarn
	}
	t.logger.Log(req.Context(), level, "HTTP request", append(attrs, "status", resp.StatusCode)...)

	return resp, nil
}
