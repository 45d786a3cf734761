package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/masjidkeu/pkg/api"
)

// Заголовки, которые клиент выставляет сам
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderRequestedWith = "X-Requested-With"
)

// DefaultTimeout ограничивает один HTTP запрос
const DefaultTimeout = 30 * time.Second

// Request describes one call to the backend
type Request struct {
	// Body is JSON-encoded when not nil
	Body    any
	Headers http.Header
	Method  string
	Path    string
	// SkipAuth tells the interceptor not to attach the bearer token
	// and not to refresh on 401. Used by the login and refresh endpoints.
	SkipAuth bool
}

// Clone returns a copy of r with its own header map
func (r *Request) Clone() *Request {
	c := *r
	c.Headers = r.Headers.Clone()
	if c.Headers == nil {
		c.Headers = http.Header{}
	}
	return &c
}

// Doer executes a Request and decodes the JSON response into result
type Doer interface {
	Do(ctx context.Context, req *Request, result any) error
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	timeout    time.Duration
}

// Compile-time check that Client implements Doer
var _ Doer = (*Client)(nil)

// Option configures Client. Options only record settings, NewClient applies
// them after all options ran, so their order does not matter.
type Option func(*Client)

// WithHTTPClient uses a copy of hc as the underlying client; hc itself is never modified
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout, zero or negative keeps the default
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}

	for _, opt := range opts {
		opt(c)
	}

	var hc *http.Client
	if c.httpClient != nil {
		// Чужой клиент может быть общим: меняем только копию
		copied := *c.httpClient
		hc = &copied
	} else {
		hc = &http.Client{
			Timeout:       DefaultTimeout,
			CheckRedirect: checkRedirect,
		}
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if c.logger != nil {
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		hc.Transport = &loggingTransport{next: next, logger: c.logger}
	}
	c.httpClient = hc

	return c
}

// checkRedirect ограничивает число редиректов и оставляет Authorization
// только для того же хоста
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}

	if req.URL.Host != via[0].URL.Host {
		req.Header.Del(HeaderAuthorization)
		return nil
	}
	if token := via[0].Header.Get(HeaderAuthorization); token != "" {
		req.Header.Set(HeaderAuthorization, token)
	}
	return nil
}

// BaseURL returns the normalised server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do выполняет HTTP запрос.
// Ответ 2xx декодируется в result (если result != nil и тело не пустое),
// любой другой статус возвращается как *HTTPError.
func (c *Client) Do(ctx context.Context, r *Request, result any) error {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if r.Body != nil {
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+r.Path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range r.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(fmt.Errorf("failed to read response body: %w", err))
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, respBody),
		}
	}

	// Пустое тело (204 и т.п.) не ошибка
	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return transportError(fmt.Errorf("failed to decode response: %w", err))
	}

	return nil
}

// errorMessage достаёт message (или error) из тела ошибки
func errorMessage(status int, body []byte) string {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
