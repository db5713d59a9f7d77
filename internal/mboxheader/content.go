package mboxheader

import (
	"mime"
	"strings"
)

// MediaType splits a Content-Type or Content-Disposition value into its
// lowercased type and parameters. Values that mime.ParseMediaType rejects,
// such as unquoted specials in a boundary, are split by hand.
func MediaType(value string) (string, map[string]string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", map[string]string{}
	}
	if mt, params, err := mime.ParseMediaType(value); err == nil {
		return mt, params
	}
	return looseMediaType(value)
}

func looseMediaType(value string) (string, map[string]string) {
	params := map[string]string{}
	parts := splitParams(value)
	mt := strings.ToLower(strings.TrimSpace(parts[0]))
	if i := strings.IndexAny(mt, " \t"); i != -1 {
		mt = mt[:i]
	}
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		// RFC 2231 continuations and charset tags are not reassembled
		k = strings.TrimSuffix(strings.TrimSuffix(k, "*"), "*0")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, `"`) {
			v = strings.TrimPrefix(v, `"`)
			if i := strings.Index(v, `"`); i != -1 {
				v = v[:i]
			}
		}
		if _, exists := params[k]; !exists && k != "" {
			params[k] = v
		}
	}
	return mt, params
}

// splitParams splits at semicolons that are not inside quotes.
func splitParams(s string) []string {
	var out []string
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// ContentType returns the media type of a Content-Type value. A bare
// "text" is read as text/plain, an empty value as def.
func ContentType(value, def string) (string, map[string]string) {
	mt, params := MediaType(value)
	switch {
	case mt == "":
		return def, params
	case mt == "text":
		return "text/plain", params
	case !strings.Contains(mt, "/"):
		return "application/octet-stream", params
	}
	return mt, params
}
