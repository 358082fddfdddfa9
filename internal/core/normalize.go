package core

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultPreviewMaxLen bounds normalized preview text when no limit is
// configured, matching the snippet bound used by the mail-store readers.
const DefaultPreviewMaxLen = 300

// maxStripRounds bounds repeated HTML stripping so escaped markup
// revealed by entity decoding cannot survive normalization.
const maxStripRounds = 4

var (
	htmlTagMarker   = regexp.MustCompile(`(?i)<\s*/?[a-z!][^>]*>`)
	scriptStyleExpr = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)\s*>`)
	lineBreakTags   = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/tr)\s*>`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	quoteIntroLine  = regexp.MustCompile(`(?i)^on .{0,200}wrote:$`)
)

// signatureAndQuotePrefixes mark lines that begin a quoted reply, a
// forwarded block, or a signature. Everything from the first such line
// on is dropped. All markers are line-anchored.
var signatureAndQuotePrefixes = []string{
	">",
	"--",
	"____",
	"sent from",
	"get outlook for",
	"-----original message",
}

// PreviewNormalizer cleans raw message body text into the bounded
// plain-text snippet content detectors run against.
type PreviewNormalizer struct {
	maxLen    int
	sanitizer *bluemonday.Policy
}

// NewPreviewNormalizer creates a normalizer with the given length bound
func NewPreviewNormalizer(maxLen int) *PreviewNormalizer {
	if maxLen <= 0 {
		maxLen = DefaultPreviewMaxLen
	}
	return &PreviewNormalizer{
		maxLen:    maxLen,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Normalize cleans raw body or preview text. It never fails; empty or
// unusable input yields the empty string. Already-normalized text is a
// fixed point: Normalize(Normalize(x)) == Normalize(x).
func (n *PreviewNormalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := raw
	for i := 0; i < maxStripRounds && htmlTagMarker.MatchString(text); i++ {
		text = n.stripHTML(text)
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isBoundaryLine(trimmed) {
			break
		}
		kept = append(kept, trimmed)
	}

	text = strings.Join(kept, " ")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return truncateRunes(text, n.maxLen)
}

// stripHTML removes one layer of markup: script/style blocks go first,
// structural break tags become newlines so line-based cleanup still
// sees paragraph boundaries, then remaining tags are stripped and
// entities decoded.
func (n *PreviewNormalizer) stripHTML(s string) string {
	s = scriptStyleExpr.ReplaceAllString(s, " ")
	s = lineBreakTags.ReplaceAllString(s, "\n")
	s = n.sanitizer.Sanitize(s)
	return html.UnescapeString(s)
}

func isBoundaryLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range signatureAndQuotePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return quoteIntroLine.MatchString(lower)
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " ")
}
