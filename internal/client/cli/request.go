package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/iudanet/masjidkeu/internal/client/api"
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// runRequest отправляет произвольный запрос через перехватчик:
// с bearer токеном и обновлением по 401
func (c *Cli) runRequest(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: request METHOD PATH [JSON]", ErrUsage)
	}

	method := strings.ToUpper(args[0])
	if !allowedMethods[method] {
		return fmt.Errorf("%w: unsupported method %s", ErrUsage, args[0])
	}

	path := args[1]
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: path must start with '/'", ErrUsage)
	}

	req := &api.Request{Method: method, Path: path}
	if len(args) == 3 {
		body := json.RawMessage(args[2])
		if !json.Valid(body) {
			return fmt.Errorf("%w: body is not valid JSON", ErrUsage)
		}
		req.Body = body
	}

	var resp json.RawMessage
	if err := c.transport.Do(ctx, req, &resp); err != nil {
		return err
	}

	return c.printJSON(resp)
}

// printJSON выводит JSON с отступами; пустой ответ отмечается отдельно
func (c *Cli) printJSON(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		c.io.Println("(empty response)")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	buf.WriteByte('\n')

	_, err := c.io.Write(buf.Bytes())
	return err
}
