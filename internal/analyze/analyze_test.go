package analyze

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func newTestAnalyzer() *Analyzer {
	scorer := core.NewScorer(core.ScoringConfig{TrustedDomains: []string{"trusted.com"}})
	classifier := core.NewClassifier(core.ClassifierConfig{
		ActionThreshold: core.DefaultActionThreshold,
		FYIThreshold:    core.DefaultFYIThreshold,
	})
	return NewAnalyzer(scorer, classifier, zap.NewNop())
}

func corpusRecords() []core.MessageRecord {
	return []core.MessageRecord{
		{
			SenderAddress: "colleague@trusted.com",
			Subject:       "Can you review this?",
			PreviewText:   "Can you review this by Friday?",
		},
		{
			SenderAddress: "boss@trusted.com",
			Subject:       "RE: budget numbers",
		},
		{
			SenderAddress: "noreply@list.example",
			Subject:       "Weekly digest roundup",
			PreviewText:   "unsubscribe here",
		},
		{
			SenderAddress: "peer@other.org",
			Subject:       "lunch?",
		},
	}
}

func TestAnalyzeEmptyCorpus(t *testing.T) {
	report := newTestAnalyzer().Analyze(nil)
	if report.TotalMessages != 0 {
		t.Errorf("TotalMessages = %d, want 0", report.TotalMessages)
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", report.Recommendations)
	}
}

func TestAnalyzeCategoryCounts(t *testing.T) {
	report := newTestAnalyzer().Analyze(corpusRecords())

	if report.TotalMessages != 4 {
		t.Fatalf("TotalMessages = %d, want 4", report.TotalMessages)
	}

	total := 0
	for _, count := range report.CategoryCounts {
		total += count
	}
	if total != 4 {
		t.Errorf("category counts sum to %d, want 4", total)
	}
	if report.CategoryCounts[string(core.CategoryAction)] != 1 {
		t.Errorf("ACTION count = %d, want 1", report.CategoryCounts[string(core.CategoryAction)])
	}
	if report.CategoryCounts[string(core.CategoryIgnore)] < 1 {
		t.Errorf("IGNORE count = %d, want at least 1", report.CategoryCounts[string(core.CategoryIgnore)])
	}
}

func TestAnalyzeScoreStatistics(t *testing.T) {
	report := newTestAnalyzer().Analyze(corpusRecords())

	if report.MinScore > report.MaxScore {
		t.Errorf("MinScore %d > MaxScore %d", report.MinScore, report.MaxScore)
	}
	if report.MinScore != 0 {
		t.Errorf("MinScore = %d, want 0 (newsletter clamps)", report.MinScore)
	}
	if report.MaxScore != 65 {
		t.Errorf("MaxScore = %d, want 65", report.MaxScore)
	}

	distributionTotal := 0
	for _, count := range report.ScoreDistribution {
		distributionTotal += count
	}
	if distributionTotal != 4 {
		t.Errorf("score distribution sums to %d, want 4", distributionTotal)
	}
}

func TestAnalyzeTopDomains(t *testing.T) {
	report := newTestAnalyzer().Analyze(corpusRecords())

	if len(report.TopDomains) == 0 {
		t.Fatal("TopDomains is empty")
	}
	if report.TopDomains[0].Domain != "trusted.com" {
		t.Errorf("top domain = %s, want trusted.com", report.TopDomains[0].Domain)
	}
	if report.TopDomains[0].Count != 2 {
		t.Errorf("top domain count = %d, want 2", report.TopDomains[0].Count)
	}
}

func TestAnalyzeSignalFrequency(t *testing.T) {
	report := newTestAnalyzer().Analyze(corpusRecords())

	counts := make(map[string]int)
	for _, stat := range report.SignalFrequency {
		counts[stat.Name] = stat.Count
	}
	if counts["direct_sender"] != 3 {
		t.Errorf("direct_sender count = %d, want 3", counts["direct_sender"])
	}
	if counts["has_unsubscribe"] != 1 {
		t.Errorf("has_unsubscribe count = %d, want 1", counts["has_unsubscribe"])
	}
}

func TestAnalyzeSubjectCounts(t *testing.T) {
	report := newTestAnalyzer().Analyze(corpusRecords())

	if report.QuestionSubjects != 2 {
		t.Errorf("QuestionSubjects = %d, want 2", report.QuestionSubjects)
	}
	if report.ReplySubjects != 1 {
		t.Errorf("ReplySubjects = %d, want 1", report.ReplySubjects)
	}
	if report.NewsletterSubjects != 1 {
		t.Errorf("NewsletterSubjects = %d, want 1", report.NewsletterSubjects)
	}
}

func TestAnalyzeUntrustedDomainRecommendation(t *testing.T) {
	// A heavy, high-scoring, untrusted domain earns a trusted_domains
	// suggestion.
	var records []core.MessageRecord
	for i := 0; i < 10; i++ {
		records = append(records, core.MessageRecord{
			SenderAddress: "person@frequent.io",
			Subject:       "Can you take a look?",
			PreviewText:   "Can you take a look at this?",
		})
	}

	report := newTestAnalyzer().Analyze(records)

	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "frequent.io") {
			found = true
		}
	}
	if !found {
		t.Errorf("no trusted-domain recommendation for frequent.io; got %v", report.Recommendations)
	}
}

func TestWriteReportLayout(t *testing.T) {
	report := newTestAnalyzer().Analyze(corpusRecords())

	var buf bytes.Buffer
	if err := WriteReport(&buf, report); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"EMAIL CLASSIFICATION ANALYSIS",
		"Total emails analyzed: 4",
		"CATEGORY DISTRIBUTION:",
		"SCORE STATISTICS:",
		"TOP SENDER DOMAINS:",
		"SIGNAL FREQUENCY:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, Report{}); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Total emails analyzed: 0") {
		t.Errorf("empty report output = %q", buf.String())
	}
}
