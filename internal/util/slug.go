// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxTags is the number of tags a curation or tab may carry.
const MaxTags = 6

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// NormalizeTagSlug converts user input to a canonical tag slug.
//
// Normalization rules:
//  1. Decompose accents and drop non-ASCII runes ("Café" → "cafe")
//  2. Trim whitespace and lowercase
//  3. Replace spaces, underscores and slashes with dashes
//  4. Remove remaining non-alphanumeric characters (except dashes)
//  5. Collapse multiple dashes and trim them from both ends
//
// Examples:
//
//	"Web Design"    → "web-design"
//	"open_source"   → "open-source"
//	"🚀 Startups!"  → "startups"
//	"--leading--"   → "leading"
func NormalizeTagSlug(input string) string {
	s := norm.NFKD.String(input)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(strings.TrimSpace(s))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeTags slugifies tags, drops empties and duplicates while keeping
// first-seen order, and truncates the result to limit entries.
func NormalizeTags(tags []string, limit int) []string {
	out := make([]string, 0, min(len(tags), limit))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		slug := NormalizeTagSlug(tag)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
		if len(out) == limit {
			break
		}
	}
	return out
}
