package auth

import (
	"encoding/json"

	"github.com/iudanet/masjidkeu/internal/client/session"
)

// Бэкенд отдаёт токены под разными именами, иногда внутри обёртки "data".
// Порядок ключей важен: берётся первое непустое строковое значение.
var (
	AccessTokenKeys  = []string{"accessToken", "token", "access_token"}
	RefreshTokenKeys = []string{"refreshToken", "refresh_token"}

	userNameKeys = []string{"name", "nama"}
)

const dataKey = "data"

// PickString looks for the first non-empty string under keys at the top level,
// then one level down inside "data".
func PickString(payload map[string]any, keys []string) string {
	if v := firstString(payload, keys); v != "" {
		return v
	}
	if nested, ok := payload[dataKey].(map[string]any); ok {
		return firstString(nested, keys)
	}
	return ""
}

// ExtractUserName returns user.name|user.nama, falling back to data.user
func ExtractUserName(payload map[string]any) string {
	if user, ok := payload["user"].(map[string]any); ok {
		if name := firstString(user, userNameKeys); name != "" {
			return name
		}
	}
	if nested, ok := payload[dataKey].(map[string]any); ok {
		if user, ok := nested["user"].(map[string]any); ok {
			return firstString(user, userNameKeys)
		}
	}
	return ""
}

// ExtractMenus returns the menus payload, data.menus is preferred over top-level menus.
// Returns nil when neither flat nor tree arrays are present.
func ExtractMenus(payload map[string]any) *session.Menus {
	var menus map[string]any
	if nested, ok := payload[dataKey].(map[string]any); ok {
		menus, _ = nested["menus"].(map[string]any)
	}
	if menus == nil {
		menus, _ = payload["menus"].(map[string]any)
	}
	if menus == nil {
		return nil
	}

	flat, flatOK := rawArray(menus["flat"])
	tree, treeOK := rawArray(menus["tree"])
	if !flatOK && !treeOK {
		return nil
	}

	return &session.Menus{Flat: flat, Tree: tree}
}

func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// rawArray перекодирует элементы массива обратно в JSON, не интерпретируя их
func rawArray(v any) ([]json.RawMessage, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}

	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out, true
}
