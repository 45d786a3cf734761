package masterdata

import (
	"errors"
	"math"
	"strconv"
	"strings"

	pkgapi "github.com/iudanet/masjidkeu/pkg/api"
)

// ErrUnexpectedResponse is returned when a single-item response is not a JSON object
var ErrUnexpectedResponse = errors.New("unexpected response format")

// Ключи метаданных пагинации в порядке приоритета
var (
	totalKeys = []string{"total", "count"}
	pageKeys  = []string{"page", "current_page"}
	limitKeys = []string{"limit", "per_page", "pageSize"}
	itemsKeys = []string{"items", "data", "results"}
)

// parseList разбирает ответ списка. Поддерживаются формы:
//
//	[ ... ]
//	{ "items": [...], "total": 3, "page": 1, "limit": 10 }
//	{ "data": { "items": [...], "total": "3" } }
//	{ "data": [...], "count": 3, "current_page": 1, "per_page": 10 }
func parseList(payload any, params ListParams) *ListResult {
	root := map[string]any{}
	var rawItems []any

	switch v := payload.(type) {
	case []any:
		rawItems = v
	case map[string]any:
		root = v
		if nested, ok := v["data"].(map[string]any); ok {
			root = nested
		}
		rawItems = extractArray(root)
	}

	items := make([]pkgapi.MasterItem, 0, len(rawItems))
	for _, raw := range rawItems {
		if obj, ok := raw.(map[string]any); ok {
			items = append(items, itemFrom(obj))
		}
	}

	defaultPage := params.Page
	if defaultPage <= 0 {
		defaultPage = 1
	}
	defaultLimit := params.Limit
	if defaultLimit <= 0 {
		defaultLimit = len(items)
	}

	return &ListResult{
		Items: items,
		Total: extractNumber(root, totalKeys, len(items)),
		Page:  extractNumber(root, pageKeys, defaultPage),
		Limit: extractNumber(root, limitKeys, defaultLimit),
	}
}

// parseItem разбирает ответ с одной записью, возможно обёрнутой в "data"
func parseItem(payload any) (pkgapi.MasterItem, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return pkgapi.MasterItem{}, ErrUnexpectedResponse
	}

	if truthy(obj["error"]) {
		msg, _ := obj["message"].(string)
		if msg == "" {
			msg = "server reported an error"
		}
		return pkgapi.MasterItem{}, errors.New(msg)
	}

	if nested, ok := obj["data"].(map[string]any); ok {
		obj = nested
	}
	return itemFrom(obj), nil
}

// itemFrom читает строку справочника. У tingkat вместо kode/nama бывают key/name.
func itemFrom(obj map[string]any) pkgapi.MasterItem {
	return pkgapi.MasterItem{
		ID:         obj["id"],
		RegionalID: obj["regional_id"],
		Kode:       firstString(obj, "kode", "key"),
		Nama:       firstString(obj, "nama", "name"),
	}
}

func extractArray(root map[string]any) []any {
	for _, key := range itemsKeys {
		if arr, ok := root[key].([]any); ok {
			return arr
		}
	}
	return nil
}

// extractNumber принимает числа и числовые строки в пределах int, иначе возвращает def
func extractNumber(obj map[string]any, keys []string, def int) int {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			if n, ok := toInt(v); ok {
				return n
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				if n, ok := toInt(f); ok {
					return n
				}
			}
		}
	}
	return def
}

// toInt отбрасывает NaN, бесконечности и значения вне диапазона int
func toInt(v float64) (int, bool) {
	if math.IsNaN(v) || v >= math.MaxInt || v < math.MinInt {
		return 0, false
	}
	return int(v), true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
