package core

import (
	"net/mail"
	"regexp"
	"strings"
)

// Score clamp bounds
const (
	minScore = 0
	maxScore = 100
)

// ScoringConfig is the immutable configuration a Scorer is built from.
// An empty BulkSenderPatterns falls back to DefaultBulkSenderPatterns;
// an empty UserName disables the mentions_name detector.
type ScoringConfig struct {
	UserName           string
	TrustedDomains     []string
	BulkSenderPatterns []string
	PreviewMaxLen      int
}

// Scorer evaluates the signal table against message records. It holds
// only compiled configuration and is safe for concurrent use.
type Scorer struct {
	trustedDomains map[string]struct{}
	bulkPatterns   []string
	nameRE         *regexp.Regexp
	normalizer     *PreviewNormalizer
}

// NewScorer compiles a scoring configuration
func NewScorer(cfg ScoringConfig) *Scorer {
	trusted := make(map[string]struct{}, len(cfg.TrustedDomains))
	for _, d := range cfg.TrustedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			trusted[d] = struct{}{}
		}
	}

	patterns := cfg.BulkSenderPatterns
	if len(patterns) == 0 {
		patterns = DefaultBulkSenderPatterns
	}
	bulk := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			bulk = append(bulk, p)
		}
	}

	var nameRE *regexp.Regexp
	if name := strings.TrimSpace(cfg.UserName); name != "" {
		nameRE = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	}

	return &Scorer{
		trustedDomains: trusted,
		bulkPatterns:   bulk,
		nameRE:         nameRE,
		normalizer:     NewPreviewNormalizer(cfg.PreviewMaxLen),
	}
}

// Normalizer exposes the scorer's preview normalizer for callers that
// clean body text themselves before display.
func (s *Scorer) Normalizer() *PreviewNormalizer {
	return s.normalizer
}

// IsTrustedDomain reports whether domain is in the configured trusted
// set
func (s *Scorer) IsTrustedDomain(domain string) bool {
	_, ok := s.trustedDomains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// SenderDomain extracts the lowercased domain of a sender address
func SenderDomain(sender string) string {
	_, domain := splitSenderAddress(sender)
	return domain
}

// Score runs every rule in table order against one record and returns
// the summed, clamped total with the signal trail in evaluation order.
// Identical input always produces an identical result.
func (s *Scorer) Score(record MessageRecord) ScoreResult {
	in := s.newEvalInput(record)

	fired := make(map[string]bool, len(triageRules))
	var signals []Signal
	total := 0

	for _, rule := range triageRules {
		if rule.requires != "" && !fired[rule.requires] {
			continue
		}
		if rule.excludes != "" && fired[rule.excludes] {
			continue
		}
		if !rule.match(in) {
			continue
		}
		fired[rule.name] = true
		signals = append(signals, Signal{Name: rule.name, Points: rule.points})
		total += rule.points
	}

	if total < minScore {
		total = minScore
	} else if total > maxScore {
		total = maxScore
	}

	return ScoreResult{TotalScore: total, Signals: signals}
}

func (s *Scorer) newEvalInput(record MessageRecord) *evalInput {
	local, domain := splitSenderAddress(record.SenderAddress)
	return &evalInput{
		localPart:      local,
		domain:         domain,
		subject:        strings.ToLower(record.Subject),
		preview:        strings.ToLower(s.normalizer.Normalize(record.PreviewText)),
		trustedDomains: s.trustedDomains,
		bulkPatterns:   s.bulkPatterns,
		nameRE:         s.nameRE,
	}
}

// splitSenderAddress lowers a raw sender into local part and domain.
// Display forms like `Name <addr@host>` reduce to the bracketed
// address; a string without @ is treated as all local part.
func splitSenderAddress(sender string) (string, string) {
	addr := strings.TrimSpace(sender)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	} else if i := strings.LastIndex(addr, "<"); i >= 0 && strings.Contains(addr[i:], "@") {
		addr = strings.Trim(addr[i:], "<> ")
	}

	addr = strings.ToLower(addr)
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[:i], addr[i+1:]
	}
	return addr, ""
}
