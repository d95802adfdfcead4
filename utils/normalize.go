package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	currencyRe   = regexp.MustCompile(`[$€£¥]`)
	nonQueryRe   = regexp.MustCompile(`[^a-z0-9&'\-\. ]`)
)

// Search params that carry the query on the marketplaces we scrape.
var searchParams = []string{"_nkw", "keyword", "q", "query"}

// NormalizeQuery canonicalizes a free-text item query into a stable lookup
// key: lowercase, trimmed, single-spaced, with currency symbols removed.
// When the input looks like a marketplace URL the query is recovered from
// known search params or the last path segment. Never fails; malformed
// input degrades to a best-effort string.
func NormalizeQuery(raw string) string {
	s := strings.TrimSpace(raw)

	if looksLikeURL(s) {
		if extracted := extractFromURL(s); extracted != "" {
			s = extracted
		}
	}

	s = strings.ToLower(s)
	s = currencyRe.ReplaceAllString(s, " ")
	s = nonQueryRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CacheToken renders a normalized query in the form used inside Redis keys.
func CacheToken(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "+")
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

func extractFromURL(s string) string {
	if strings.HasPrefix(s, "www.") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	for _, param := range searchParams {
		if v := u.Query().Get(param); v != "" {
			return v
		}
	}

	// Fall back to the last path segment: listing URLs usually end in a
	// slugified title like /itm/pokemon-151-booster-bundle/123456.
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || isNumeric(seg) {
			continue
		}
		seg = strings.ReplaceAll(seg, "-", " ")
		seg = strings.ReplaceAll(seg, "_", " ")
		return seg
	}
	return ""
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
