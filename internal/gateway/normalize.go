package gateway

import (
	"unicode"
	"unicode/utf8"
)

// DefaultAliases maps legacy field names to their canonical key.
var DefaultAliases = map[string]string{
	"ts": "timestamp",
}

// CanonicalKey folds a JSON object key to lower camel case:
// "Category" → "category", "UpdatedAt" → "updatedAt", "ID" → "id".
// Keys that already start lower case (including snake_case) are returned as is.
func CanonicalKey(key string) string {
	r, _ := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return key
	}

	runes := []rune(key)
	// Lower the leading run of capitals, keeping the last one when it starts
	// the next word ("URLPath" → "urlPath").
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	if i > 1 && i < len(runes) && unicode.IsLower(runes[i]) {
		i--
	}
	for j := 0; j < i; j++ {
		runes[j] = unicode.ToLower(runes[j])
	}
	return string(runes)
}

// Normalize rewrites every object key in v to its canonical form and applies
// aliases where the canonical key is missing. A key already in canonical form
// wins over a differently cased duplicate.
func Normalize(v any, aliases map[string]string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ck := CanonicalKey(k)
			if _, exists := out[ck]; exists && k != ck {
				continue
			}
			out[ck] = Normalize(val, aliases)
		}
		for alias, canonical := range aliases {
			val, ok := out[alias]
			if !ok {
				continue
			}
			if _, has := out[canonical]; !has {
				out[canonical] = val
			}
			delete(out, alias)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item, aliases)
		}
		return out
	default:
		return v
	}
}
