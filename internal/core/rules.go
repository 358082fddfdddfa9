package core

import (
	"regexp"
	"strings"
)

// SignalField identifies the part of a message a rule inspects
type SignalField int

const (
	FieldSender SignalField = iota
	FieldSubject
	FieldContent
)

// String returns the field name used in explanation output
func (f SignalField) String() string {
	switch f {
	case FieldSender:
		return "sender"
	case FieldSubject:
		return "subject"
	case FieldContent:
		return "content"
	default:
		return "unknown"
	}
}

// evalInput carries the lowercased views of one record that rule
// predicates match against, plus the scorer's compiled configuration.
type evalInput struct {
	localPart string
	domain    string
	subject   string
	preview   string

	trustedDomains map[string]struct{}
	bulkPatterns   []string
	nameRE         *regexp.Regexp
}

// signalRule is one row of the scoring table. A rule with a requires
// name fires only after that signal has fired; a rule with an excludes
// name is suppressed once that signal has fired.
type signalRule struct {
	name     string
	field    SignalField
	points   int
	requires string
	excludes string
	match    func(in *evalInput) bool
}

// Default pattern sets. Trusted domains have no useful default; bulk
// patterns do, and an empty configuration falls back to these.
var DefaultBulkSenderPatterns = []string{
	"noreply",
	"no-reply",
	"donotreply",
	"do-not-reply",
	"notification",
	"notifications",
	"automated",
	"newsletter",
	"marketing",
	"promo",
	"bounce",
}

var (
	actionRequiredPhrases = []string{"action required", "action needed"}

	meetingRequestPhrases = []string{"availability", "schedule a call", "meeting request"}

	generalMeetingWords = []string{"meeting", "call"}

	newsletterPhrases = []string{
		"newsletter", "digest", "weekly update", "daily update",
		"monthly update", "roundup", "recap", "your daily", "your weekly",
		"summary", "system notification",
	}

	informationalOverrideMarkers = []string{
		"will expire", "before your access", "purchase a license",
	}

	actionPhrases = []string{
		"can you", "could you", "please advise", "please review",
		"please confirm", "please respond", "please let me know",
		"need your", "waiting for", "urgent", "asap", "deadline",
		"approve", "review", "feedback needed", "when can you",
		"do you have", "can we", "follow up", "follow-up",
	}

	automatedFollowupPhrases = []string{
		"will be closed automatically", "this is an automated message",
		"do not reply to this email",
	}

	informationalNoticePhrases = []string{
		"license expiration", "expires soon", "renewal notice",
		"will renew", "no action required",
	}

	unsubscribePhrases = []string{
		"unsubscribe", "opt out", "opt-out", "manage preferences",
		"manage subscription",
	}
)

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// triageRules is the full scoring table, in evaluation order: sender
// signals, then subject signals, then content signals. The trail a
// scoring pass emits preserves this order.
var triageRules = []signalRule{
	{
		name:   "direct_sender",
		field:  FieldSender,
		points: 20,
		match: func(in *evalInput) bool {
			return !containsAny(in.localPart, in.bulkPatterns)
		},
	},
	{
		name:   "trusted_domain",
		field:  FieldSender,
		points: 10,
		match: func(in *evalInput) bool {
			_, ok := in.trustedDomains[in.domain]
			return ok
		},
	},
	{
		name:   "bulk_sender",
		field:  FieldSender,
		points: -30,
		match: func(in *evalInput) bool {
			return containsAny(in.localPart, in.bulkPatterns) ||
				containsAny(in.domain, in.bulkPatterns)
		},
	},
	{
		name:   "action_required_subject",
		field:  FieldSubject,
		points: 35,
		match: func(in *evalInput) bool {
			return containsAny(in.subject, actionRequiredPhrases)
		},
	},
	{
		name:   "meeting_request_subject",
		field:  FieldSubject,
		points: 30,
		match: func(in *evalInput) bool {
			return containsAny(in.subject, meetingRequestPhrases)
		},
	},
	{
		name:   "contains_question",
		field:  FieldSubject,
		points: 15,
		match: func(in *evalInput) bool {
			return strings.Contains(in.subject, "?")
		},
	},
	{
		name:   "is_reply",
		field:  FieldSubject,
		points: 10,
		match: func(in *evalInput) bool {
			return strings.HasPrefix(strings.TrimSpace(in.subject), "re:")
		},
	},
	{
		name:     "general_meeting_mention",
		field:    FieldSubject,
		points:   15,
		excludes: "meeting_request_subject",
		match: func(in *evalInput) bool {
			return containsAny(in.subject, generalMeetingWords)
		},
	},
	{
		name:   "newsletter_subject",
		field:  FieldSubject,
		points: -20,
		match: func(in *evalInput) bool {
			return containsAny(in.subject, newsletterPhrases)
		},
	},
	{
		name:     "informational_override_subject",
		field:    FieldSubject,
		points:   -15,
		requires: "action_required_subject",
		match: func(in *evalInput) bool {
			return containsAny(in.preview, informationalOverrideMarkers)
		},
	},
	{
		name:   "action_phrase_content",
		field:  FieldContent,
		points: 20,
		match: func(in *evalInput) bool {
			return containsAny(in.preview, actionPhrases)
		},
	},
	{
		name:   "mentions_name",
		field:  FieldContent,
		points: 15,
		match: func(in *evalInput) bool {
			return in.nameRE != nil && in.nameRE.MatchString(in.preview)
		},
	},
	{
		name:   "automated_followup_content",
		field:  FieldContent,
		points: -30,
		match: func(in *evalInput) bool {
			return containsAny(in.preview, automatedFollowupPhrases)
		},
	},
	{
		name:   "informational_notice_content",
		field:  FieldContent,
		points: -15,
		match: func(in *evalInput) bool {
			return containsAny(in.preview, informationalNoticePhrases)
		},
	},
	{
		name:   "has_unsubscribe",
		field:  FieldContent,
		points: -40,
		match: func(in *evalInput) bool {
			return containsAny(in.preview, unsubscribePhrases)
		},
	},
}

// RuleNames returns the detector names in evaluation order
func RuleNames() []string {
	names := make([]string, 0, len(triageRules))
	for _, r := range triageRules {
		names = append(names, r.name)
	}
	return names
}

// RuleField returns the field a named detector inspects, for
// explanation output. Unknown names report FieldContent.
func RuleField(name string) SignalField {
	for _, r := range triageRules {
		if r.name == name {
			return r.field
		}
	}
	return FieldContent
}
