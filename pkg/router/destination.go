package router

import (
	"net/url"
	"strings"
)

// Destination describes where a navigation was headed.
//
// A Destination is handed to error hooks even when the transition aborts, so
// recovery code can reconstruct the intended location from FullPath.
type Destination struct {
	// Path is the path portion (e.g., "/todos/42").
	Path string

	// RawQuery is the query string without "?", exactly as navigated.
	RawQuery string

	// Hash is the fragment without "#".
	Hash string

	// Params contains path parameters extracted from the URL.
	// For example, "/todos/:id" matching "/todos/42" yields {"id": "42"}.
	Params map[string]string

	// Pattern is the matched route pattern, empty if no route matched.
	Pattern string

	// Chunk is the matched route's chunk name, empty if none.
	Chunk string
}

// FullPath reconstructs the complete in-app location: path, query, and hash.
func (d Destination) FullPath() string {
	var sb strings.Builder
	sb.WriteString(d.Path)
	if d.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(d.RawQuery)
	}
	if d.Hash != "" {
		sb.WriteString("#")
		sb.WriteString(d.Hash)
	}
	return sb.String()
}

// Param returns a path parameter value or empty string if not found.
func (d Destination) Param(key string) string {
	if d.Params == nil {
		return ""
	}
	return d.Params[key]
}

// Query parses the query string. Returns an empty Values on parse failure.
func (d Destination) Query() url.Values {
	values, err := url.ParseQuery(d.RawQuery)
	if err != nil {
		return url.Values{}
	}
	return values
}

// QueryValue returns the first query parameter value or empty string.
func (d Destination) QueryValue(key string) string {
	return d.Query().Get(key)
}

// SplitPath separates a raw in-app location into path, query, and hash.
func SplitPath(raw string) (path, rawQuery, hash string) {
	if idx := strings.Index(raw, "#"); idx >= 0 {
		hash = raw[idx+1:]
		raw = raw[:idx]
	}
	if idx := strings.Index(raw, "?"); idx >= 0 {
		rawQuery = raw[idx+1:]
		raw = raw[:idx]
	}
	return raw, rawQuery, hash
}
