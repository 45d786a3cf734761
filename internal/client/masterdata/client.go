// Package masterdata reads and edits the reference tables of the admin panel
// (regional, daerah, tingkat) through the authenticated transport.
package masterdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/validation"
	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

// Resource is a reference table name
type Resource string

const (
	Regional Resource = "regional"
	Daerah   Resource = "daerah"
	Tingkat  Resource = "tingkat"
)

// ErrUnknownResource is returned for a resource outside regional, daerah, tingkat
var ErrUnknownResource = errors.New("unknown resource")

// пути бэкенда; tingkat живёт во множественном числе
var resourcePaths = map[Resource]string{
	Regional: "/api/regional",
	Daerah:   "/api/daerah",
	Tingkat:  "/api/tingkats",
}

// Resources lists the supported tables in display order
func Resources() []Resource {
	return []Resource{Regional, Daerah, Tingkat}
}

// ParseResource validates a table name
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := resourcePaths[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}
	return r, nil
}

// ListParams фильтры и пагинация списка. Нулевые значения не передаются.
type ListParams struct {
	RegionalID string
	Search     string
	SortBy     string
	SortOrder  pkgapi.SortOrder
	Page       int
	Limit      int
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.RegionalID != "" {
		q.Set("regional_id", p.RegionalID)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", string(p.SortOrder))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// ListResult is one page of a reference table
type ListResult struct {
	Items []pkgapi.MasterItem
	Total int
	Page  int
	Limit int
}

// Client works with the reference tables
type Client struct {
	transport api.Doer
}

// NewClient создает клиент справочников поверх авторизованного транспорта
func NewClient(transport api.Doer) *Client {
	return &Client{transport: transport}
}

// List returns one page of resource.
// The response shape varies between endpoints, see parseList.
func (c *Client) List(ctx context.Context, resource Resource, params ListParams) (*ListResult, error) {
	path, err := resourcePath(resource)
	if err != nil {
		return nil, err
	}
	if q := params.query().Encode(); q != "" {
		path += "?" + q
	}

	var payload any
	if err := c.transport.Do(ctx, &api.Request{Path: path}, &payload); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", resource, err)
	}

	return parseList(payload, params), nil
}

// Get returns a single row by id
func (c *Client) Get(ctx context.Context, resource Resource, id string) (pkgapi.MasterItem, error) {
	path, err := itemPath(resource, id)
	if err != nil {
		return pkgapi.MasterItem{}, err
	}

	var payload any
	if err := c.transport.Do(ctx, &api.Request{Path: path}, &payload); err != nil {
		return pkgapi.MasterItem{}, fmt.Errorf("failed to get %s %s: %w", resource, id, err)
	}

	return parseItem(payload)
}

// Create adds a row. Kode and Nama are required and checked before any request.
func (c *Client) Create(ctx context.Context, resource Resource, item pkgapi.MasterItem) (pkgapi.MasterItem, error) {
	path, err := resourcePath(resource)
	if err != nil {
		return pkgapi.MasterItem{}, err
	}
	if err := validateItem(item); err != nil {
		return pkgapi.MasterItem{}, err
	}

	var payload any
	err = c.transport.Do(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    item,
		Headers: http.Header{api.HeaderRequestedWith: []string{"XMLHttpRequest"}},
	}, &payload)
	if err != nil {
		return pkgapi.MasterItem{}, fmt.Errorf("failed to create %s: %w", resource, err)
	}

	// Пустой ответ: возвращаем то, что отправили
	if payload == nil {
		return item, nil
	}
	return parseItem(payload)
}

// Update changes a row. Empty fields are left as they are on the server.
func (c *Client) Update(ctx context.Context, resource Resource, id string, item pkgapi.MasterItem) (pkgapi.MasterItem, error) {
	path, err := itemPath(resource, id)
	if err != nil {
		return pkgapi.MasterItem{}, err
	}

	body := map[string]any{}
	if item.Kode != "" {
		body["kode"] = item.Kode
	}
	if item.Nama != "" {
		body["nama"] = item.Nama
	}
	if item.RegionalID != nil {
		body["regional_id"] = item.RegionalID
	}

	var payload any
	err = c.transport.Do(ctx, &api.Request{Method: http.MethodPut, Path: path, Body: body}, &payload)
	if err != nil {
		return pkgapi.MasterItem{}, fmt.Errorf("failed to update %s %s: %w", resource, id, err)
	}

	if payload == nil {
		item.ID = id
		return item, nil
	}
	return parseItem(payload)
}

// Delete removes a row
func (c *Client) Delete(ctx context.Context, resource Resource, id string) error {
	path, err := itemPath(resource, id)
	if err != nil {
		return err
	}

	if err := c.transport.Do(ctx, &api.Request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", resource, id, err)
	}
	return nil
}

func resourcePath(resource Resource) (string, error) {
	path, ok := resourcePaths[resource]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	return path, nil
}

func itemPath(resource Resource, id string) (string, error) {
	path, err := resourcePath(resource)
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &validation.Error{Field: "id", Reason: "id cannot be empty"}
	}
	return path + "/" + url.PathEscape(id), nil
}

func validateItem(item pkgapi.MasterItem) error {
	if strings.TrimSpace(item.Kode) == "" {
		return &validation.Error{Field: "kode", Reason: "kode cannot be empty"}
	}
	if strings.TrimSpace(item.Nama) == "" {
		return &validation.Error{Field: "nama", Reason: "nama cannot be empty"}
	}
	return nil
}
