// Package classify decides whether message text or profile bios violate
// chat content policy. All functions are pure and deterministic: no I/O, no
// state, identical verdicts for identical input.
package classify

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// MaxBioLength is the longest profile bio that passes the length check.
const MaxBioLength = 800

// Link-shaped token patterns. Input is case-folded before matching, so the
// patterns only need to cover lowercase forms.
var (
	urlPattern      = regexp.MustCompile(`\bhttps?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	tgDeepLinkRegex = regexp.MustCompile(`\bt\.me/[a-z0-9_+/-]+`)
	tgSchemeRegex   = regexp.MustCompile(`\btg://[a-z0-9_?=&.-]+`)
	mentionRegex    = regexp.MustCompile(`@[a-z][a-z0-9_]{3,31}\b`)
	bareDomainRegex = regexp.MustCompile(`\b[a-z0-9][a-z0-9-]*\.[a-z]{2,}\b`)
)

var caser = cases.Fold()

// HasLink reports whether text contains anything link-shaped: a
// protocol-prefixed URL, a t.me deep link, a tg:// scheme link, an @handle
// mention, or a bare word.tld token with a two-letter-or-longer TLD.
// Matching is case-insensitive.
func HasLink(text string) bool {
	if text == "" {
		return false
	}

	folded := caser.String(text)

	return urlPattern.MatchString(folded) ||
		tgDeepLinkRegex.MatchString(folded) ||
		tgSchemeRegex.MatchString(folded) ||
		mentionRegex.MatchString(folded) ||
		bareDomainRegex.MatchString(folded)
}

// BioViolates reports whether a profile bio violates policy: a non-empty bio
// longer than MaxBioLength characters, or one containing a link-shaped token.
// An empty bio never violates.
func BioViolates(bio string) bool {
	if bio == "" {
		return false
	}

	if utf8.RuneCountInString(bio) > MaxBioLength {
		return true
	}

	return HasLink(bio)
}
