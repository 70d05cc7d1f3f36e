// Package normalize cleans up loosely formatted values scraped from web pages.
package normalize

import (
	"strings"

	"golang.org/x/text/language"
)

// languageNameToCode maps common language names to ISO 639-1 codes, for
// pages that declare "English" where a BCP 47 tag belongs.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var languageNameToCode = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "dutch": "nl", "russian": "ru",
	"japanese": "ja", "chinese": "zh", "korean": "ko", "arabic": "ar",
	"hindi": "hi", "polish": "pl", "swedish": "sv", "norwegian": "no",
	"danish": "da", "finnish": "fi", "turkish": "tr", "greek": "el",
	"hebrew": "he", "czech": "cs", "hungarian": "hu", "romanian": "ro",
	"thai": "th", "vietnamese": "vi", "indonesian": "id", "malay": "ms",
	"ukrainian": "uk", "catalan": "ca", "croatian": "hr", "slovak": "sk",
	"bulgarian": "bg", "persian": "fa", "farsi": "fa", "bengali": "bn",
	"tamil": "ta", "urdu": "ur", "filipino": "tl", "tagalog": "tl",
	"mandarin": "zh", "cantonese": "zh",
}

// LanguageCode reduces a declared page language to an ISO 639-1 code:
//   - BCP 47 tags: "en-US", "pt_BR" -> "en", "pt"
//   - ISO 639-2 codes: "deu" -> "de"
//   - Language names: "English" -> "en"
//
// Returns empty string for unrecognized values.
func LanguageCode(raw string) string {
	s := strings.TrimSpace(sanitizeString(raw))
	if s == "" {
		return ""
	}

	if tag, err := language.Parse(strings.ReplaceAll(s, "_", "-")); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if code := base.String(); len(code) == 2 {
				return code
			}
		}
	}

	return languageNameToCode[strings.ToLower(s)]
}

// sanitizeString removes null bytes, which some servers leak into
// attribute values.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
