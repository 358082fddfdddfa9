// Package analyze runs the scoring engine over a message corpus and
// reports the patterns that matter when tuning thresholds and trusted
// domains.
package analyze

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// Fractions of the corpus a pattern must reach before it is worth a
// recommendation
const (
	trustedDomainShare = 0.05
	actionLowPct       = 10.0
	actionHighPct      = 40.0
)

// DomainStat aggregates one sender domain
type DomainStat struct {
	Domain       string  `json:"domain" yaml:"domain"`
	Count        int     `json:"count" yaml:"count"`
	AverageScore float64 `json:"average_score" yaml:"average_score"`
}

// SignalStat counts how often one signal fired
type SignalStat struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Report is the full analysis over one corpus
type Report struct {
	TotalMessages      int            `json:"total_messages" yaml:"total_messages"`
	CategoryCounts     map[string]int `json:"category_counts" yaml:"category_counts"`
	AverageScore       float64        `json:"average_score" yaml:"average_score"`
	MinScore           int            `json:"min_score" yaml:"min_score"`
	MaxScore           int            `json:"max_score" yaml:"max_score"`
	ScoreDistribution  map[int]int    `json:"score_distribution" yaml:"score_distribution"`
	TopDomains         []DomainStat   `json:"top_domains" yaml:"top_domains"`
	SignalFrequency    []SignalStat   `json:"signal_frequency" yaml:"signal_frequency"`
	QuestionSubjects   int            `json:"question_subjects" yaml:"question_subjects"`
	ReplySubjects      int            `json:"reply_subjects" yaml:"reply_subjects"`
	NewsletterSubjects int            `json:"newsletter_subjects" yaml:"newsletter_subjects"`
	Recommendations    []string       `json:"recommendations" yaml:"recommendations"`
}

// Analyzer scores a corpus and derives tuning recommendations
type Analyzer struct {
	scorer     *core.Scorer
	classifier *core.Classifier
	logger     *zap.Logger
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(scorer *core.Scorer, classifier *core.Classifier, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		scorer:     scorer,
		classifier: classifier,
		logger:     logger,
	}
}

// Analyze scores every record and aggregates the corpus
func (a *Analyzer) Analyze(records []core.MessageRecord) Report {
	report := Report{
		TotalMessages:     len(records),
		CategoryCounts:    make(map[string]int),
		ScoreDistribution: make(map[int]int),
	}
	if len(records) == 0 {
		return report
	}

	domainCounts := make(map[string]int)
	domainScores := make(map[string]int)
	signalCounts := make(map[string]int)

	// Scores clamp to 0..100, so these seeds converge on the first
	// record.
	scoreSum := 0
	report.MinScore = 100
	report.MaxScore = 0

	for _, record := range records {
		result := a.scorer.Score(record)
		category := a.classifier.Classify(result.TotalScore)

		report.CategoryCounts[string(category)]++
		report.ScoreDistribution[result.TotalScore]++
		scoreSum += result.TotalScore
		if result.TotalScore < report.MinScore {
			report.MinScore = result.TotalScore
		}
		if result.TotalScore > report.MaxScore {
			report.MaxScore = result.TotalScore
		}

		if domain := core.SenderDomain(record.SenderAddress); domain != "" {
			domainCounts[domain]++
			domainScores[domain] += result.TotalScore
		}
		for _, s := range result.Signals {
			signalCounts[s.Name]++
		}

		subject := strings.ToLower(record.Subject)
		if strings.Contains(subject, "?") {
			report.QuestionSubjects++
		}
		if strings.HasPrefix(strings.TrimSpace(subject), "re:") {
			report.ReplySubjects++
		}
		for _, marker := range []string{"newsletter", "digest", "update", "roundup"} {
			if strings.Contains(subject, marker) {
				report.NewsletterSubjects++
				break
			}
		}
	}

	report.AverageScore = float64(scoreSum) / float64(len(records))
	report.TopDomains = topDomains(domainCounts, domainScores)
	report.SignalFrequency = signalFrequency(signalCounts)
	report.Recommendations = a.recommendations(&report)

	a.logger.Info("Analyzed message corpus",
		zap.Int("messages", report.TotalMessages),
		zap.Float64("avg_score", report.AverageScore),
		zap.Int("recommendations", len(report.Recommendations)))

	return report
}

func topDomains(counts, scores map[string]int) []DomainStat {
	stats := make([]DomainStat, 0, len(counts))
	for domain, count := range counts {
		stats = append(stats, DomainStat{
			Domain:       domain,
			Count:        count,
			AverageScore: float64(scores[domain]) / float64(count),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Domain < stats[j].Domain
	})
	if len(stats) > 20 {
		stats = stats[:20]
	}
	return stats
}

func signalFrequency(counts map[string]int) []SignalStat {
	stats := make([]SignalStat, 0, len(counts))
	for name, count := range counts {
		stats = append(stats, SignalStat{Name: name, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// recommendations derives tuning advice from the aggregates
func (a *Analyzer) recommendations(report *Report) []string {
	var recs []string
	total := float64(report.TotalMessages)

	for _, stat := range report.TopDomains {
		if a.scorer.IsTrustedDomain(stat.Domain) {
			continue
		}
		if float64(stat.Count) >= total*trustedDomainShare && stat.AverageScore >= float64(a.classifier.FYIThreshold()) {
			recs = append(recs, fmt.Sprintf(
				"domain %s accounts for %.0f%% of mail with average score %.1f; consider adding it to scoring.trusted_domains",
				stat.Domain, float64(stat.Count)/total*100, stat.AverageScore))
		}
	}

	actionPct := float64(report.CategoryCounts[string(core.CategoryAction)]) / total * 100
	action := a.classifier.ActionThreshold()
	if actionPct < actionLowPct {
		recs = append(recs, fmt.Sprintf(
			"only %.1f%% of mail classified as ACTION; consider lowering classify.action_threshold from %d to %d",
			actionPct, action, action-10))
	} else if actionPct > actionHighPct {
		recs = append(recs, fmt.Sprintf(
			"%.1f%% of mail classified as ACTION; consider raising classify.action_threshold from %d to %d",
			actionPct, action, action+10))
	}

	return recs
}

// WriteReport writes the report in the analysis text layout
func WriteReport(w io.Writer, report Report) error {
	line := strings.Repeat("=", 80)
	if _, err := fmt.Fprintf(w, "%s\nEMAIL CLASSIFICATION ANALYSIS\n%s\n\nTotal emails analyzed: %d\n\n",
		line, line, report.TotalMessages); err != nil {
		return err
	}
	if report.TotalMessages == 0 {
		return nil
	}

	section := strings.Repeat("-", 40)

	fmt.Fprintf(w, "CATEGORY DISTRIBUTION:\n%s\n", section)
	for _, category := range []core.Category{core.CategoryAction, core.CategoryFYI, core.CategoryIgnore} {
		count := report.CategoryCounts[string(category)]
		pct := float64(count) / float64(report.TotalMessages) * 100
		fmt.Fprintf(w, "  %-8s: %4d (%5.1f%%)\n", category, count, pct)
	}

	fmt.Fprintf(w, "\nSCORE STATISTICS:\n%s\n", section)
	fmt.Fprintf(w, "  Average score: %.1f\n", report.AverageScore)
	fmt.Fprintf(w, "  Score range:   %d - %d\n", report.MinScore, report.MaxScore)

	if len(report.TopDomains) > 0 {
		fmt.Fprintf(w, "\nTOP SENDER DOMAINS:\n%s\n", section)
		for i, stat := range report.TopDomains {
			if i >= 10 {
				break
			}
			pct := float64(stat.Count) / float64(report.TotalMessages) * 100
			fmt.Fprintf(w, "  %-30s: %4d (%5.1f%%) avg %.1f\n", stat.Domain, stat.Count, pct, stat.AverageScore)
		}
	}

	if len(report.SignalFrequency) > 0 {
		fmt.Fprintf(w, "\nSIGNAL FREQUENCY:\n%s\n", section)
		for i, stat := range report.SignalFrequency {
			if i >= 10 {
				break
			}
			fmt.Fprintf(w, "  %-30s: %4d\n", stat.Name, stat.Count)
		}
	}

	if len(report.Recommendations) > 0 {
		fmt.Fprintf(w, "\nRECOMMENDATIONS:\n%s\n", section)
		for _, rec := range report.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
