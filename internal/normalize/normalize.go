// Package normalize reduces source text to a canonical form for
// translation-memory lookups. Volatile substrings (interpolation
// placeholders, numbers, URLs, UUIDs) collapse to generic tokens so that
// structurally identical texts share one reuse key.
package normalize

import (
	"crypto/sha256"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/glotbridge/glotbridge-backend/internal/identity"
)

const (
	tokenVar  = "__VAR__"
	tokenNum  = "__NUM__"
	tokenURL  = "__URL__"
	tokenUUID = "__UUID__"
)

var (
	// interpolation styles seen in source payloads: {name}, {{name}},
	// ${name}, %(name)s, %s / %d / %1$s
	rePlaceholder = regexp.MustCompile(`\{\{\s*[^{}]+\s*\}\}|\$\{[^{}]+\}|\{[a-zA-Z_][\w.\-]*\}|%\([\w.]+\)[sdif]|%(?:\d+\$)?[sdifgv]`)

	reTag  = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)(?:\s[^<>]*)?(/?)>`)
	reURL  = regexp.MustCompile(`https?://[^\s<>"']+`)
	reUUID = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	reNum  = regexp.MustCompile(`\b\d+(?:[.,:]\d+)*\b`)
	// \p{Z} covers the non-breaking space produced by &nbsp;
	reWS = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Normalize is deterministic: identical inputs always yield identical
// output, and inputs differing only in variable values, numbers, dates,
// URLs or markup attributes converge on the same output.
func Normalize(text string) string {
	s := html.UnescapeString(text)
	s = rePlaceholder.ReplaceAllString(s, tokenVar)
	// keep tags, drop their attributes
	s = reTag.ReplaceAllString(s, "<$1$2$3>")
	s = reURL.ReplaceAllString(s, tokenURL)
	s = reUUID.ReplaceAllString(s, tokenUUID)
	s = reNum.ReplaceAllString(s, tokenNum)
	s = reWS.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// BuildReuseKey hashes the namespace, an optional reduced key set and the
// already-normalized fields into the 32-byte TM lookup key.
func BuildReuseKey(namespace string, reducedKeys map[string]any, normalizedFields []string) []byte {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	if len(reducedKeys) > 0 {
		canon, err := identity.Canonicalize(reducedKeys)
		if err == nil {
			h.Write(canon)
		}
	} else {
		h.Write([]byte("{}"))
	}
	for _, f := range normalizedFields {
		h.Write([]byte{0x1f})
		h.Write([]byte(f))
	}
	return h.Sum(nil)
}

// ReuseKeyForPayload normalizes every string field of a flat payload in
// stable field order and builds the reuse key over the result.
func ReuseKeyForPayload(namespace string, reducedKeys map[string]any, fields map[string]string) []byte {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	normalized := make([]string, 0, len(names))
	for _, k := range names {
		normalized = append(normalized, k+"="+Normalize(fields[k]))
	}
	return BuildReuseKey(namespace, reducedKeys, normalized)
}
