package classify

import "regexp"

// StatusGroup binds a status to the patterns that signal it. Groups are
// evaluated in slice order; the first group with any match wins, so
// rejection language beats an incidental "interview" in boilerplate.
type StatusGroup struct {
	Status   Status
	Patterns []regexp.Regexp
}

var statusGroups = []StatusGroup{
	{
		Status: StatusRejected,
		Patterns: []regexp.Regexp{
			*regexp.MustCompile(`(?i)\b(?:unfortunately|regret|regrettably|not\s+(?:moving|proceeding))\b`),
			*regexp.MustCompile(`(?i)\bnot\s+(?:selected|chosen|considered|pursue|proceed|move|shortlisted)\b`),
			*regexp.MustCompile(`(?i)\b(?:other\s+candidates|pursuing\s+other|different\s+direction)\b`),
			*regexp.MustCompile(`(?i)\b(?:not\s+suitable|not\s+a\s+fit|position\s+has\s+been\s+filled)\b`),
			*regexp.MustCompile(`(?i)\b(?:your\s+application\s+was\s+not|we\s+will\s+not\s+be)\b`),
			*regexp.MustCompile(`(?i)\bunsuccessful\b`),
			*regexp.MustCompile(`(?i)\breceived\s+a\s+large\s+number\s+of\s+applications\b`),
			*regexp.MustCompile(`(?i)\bcannot\s+proceed\s+with\s+your\s+application\b`),
			*regexp.MustCompile(`(?i)\bthank\s+you\s+for\s+your\s+interest\b.*\bbest\s+wishes\b`),
		},
	},
	{
		Status: StatusInterview,
		Patterns: []regexp.Regexp{
			*regexp.MustCompile(`(?i)\b(?:interview|schedule\s+a\s+(?:call|meeting)|like\s+to\s+speak|speak\s+with\s+you)\b`),
			*regexp.MustCompile(`(?i)\b(?:next\s+(?:step|stage)|move\s+forward|further\s+discuss)\b`),
			*regexp.MustCompile(`(?i)\b(?:availability|available\s+for)\b.*\b(?:interview|call|meet)\b`),
			*regexp.MustCompile(`(?i)\b(?:set\s+up\s+a|schedule\s+a|arranging\s+a)\b.*\b(?:interview|call|meeting)\b`),
			*regexp.MustCompile(`(?i)\b(?:invite\s+you\s+to|would\s+like\s+to\s+invite)\b`),
			*regexp.MustCompile(`(?i)\b(?:recruiter|hiring\s+manager|team)\s+would\s+like\s+to\b`),
			*regexp.MustCompile(`(?i)\bnext\s+round\b`),
			*regexp.MustCompile(`(?i)\bcall\s+details\b`),
			*regexp.MustCompile(`(?i)\bmeeting\s+invite\b`),
			*regexp.MustCompile(`(?i)\binterview\s+confirmation\b`),
		},
	},
	{
		Status: StatusAssignment,
		Patterns: []regexp.Regexp{
			*regexp.MustCompile(`(?i)\b(?:assignment|coding\s+(?:challenge|exercise|task)|take[\s-]?home)\b`),
			*regexp.MustCompile(`(?i)\b(?:technical\s+(?:assessment|task|exercise|challenge)|skills\s+assessment)\b`),
			*regexp.MustCompile(`(?i)\b(?:complete\s+(?:the\s+following|this\s+assignment)|submit\s+your\s+solution)\b`),
			*regexp.MustCompile(`(?i)\bassessment\s+(?:link|details|instructions)\b`),
			*regexp.MustCompile(`(?i)\bplease\s+(?:complete|solve|implement|code)\b`),
			*regexp.MustCompile(`(?i)\b(?:deadline|due\s+(?:date|by|in))\b.*\b(?:assignment|test|challenge|task)\b`),
			*regexp.MustCompile(`(?i)\bproject\s+(?:brief|details|instructions)\b`),
			*regexp.MustCompile(`(?i)\btechnical\s+evaluation\b`),
		},
	},
	{
		Status: StatusOffer,
		Patterns: []regexp.Regexp{
			*regexp.MustCompile(`(?i)\b(?:job\s+offer|offer\s+(?:letter|details|package)|employment\s+offer)\b`),
			*regexp.MustCompile(`(?i)\b(?:pleased\s+to\s+offer|happy\s+to\s+offer|formal\s+offer|extend\s+an\s+offer)\b`),
			*regexp.MustCompile(`(?i)\b(?:starting\s+(?:date|salary)|compensation\s+package|benefits\s+package)\b`),
			*regexp.MustCompile(`(?i)\b(?:accept\s+(?:this|the|our)\s+offer|offer\s+of\s+employment)\b`),
			*regexp.MustCompile(`(?i)\b(?:welcome\s+(?:to\s+the\s+team|aboard|onboard)|onboarding\s+process)\b`),
			*regexp.MustCompile(`(?i)\b(?:employment\s+agreement|contract\s+(?:attached|enclosed))\b`),
			*regexp.MustCompile(`(?i)\bcongratulations\b.*\b(?:position|role|joining|selected)\b`),
			*regexp.MustCompile(`(?i)\bwe\s+are\s+(?:pleased|delighted|happy|thrilled)\s+to\b.*\b(?:inform|tell|let\s+you\s+know)\b`),
		},
	},
}

// Generic acknowledgment language. Checked only after every status group
// fails; a match means the application is in flight with no decision yet.
var confirmationPatterns = []regexp.Regexp{
	*regexp.MustCompile(`(?i)\bapplication\s+(?:received|submitted|complete)\b`),
	*regexp.MustCompile(`(?i)\b(?:we\s+have\s+received|has\s+been\s+received|successfully\s+(?:submitted|received))\b`),
	*regexp.MustCompile(`(?i)\b(?:in\s+review|being\s+reviewed|under\s+(?:consideration|review))\b`),
	*regexp.MustCompile(`(?i)\b(?:acknowledge|acknowledging|receipt\s+of)\b`),
	*regexp.MustCompile(`(?i)\b(?:thank\s+you\s+for\s+applying|thanks\s+for\s+your\s+application)\b`),
}

// Strict allow-list for deciding whether an email is a genuine application
// confirmation at all. Deliberately narrow: a keyword bag here floods the
// tracker with newsletters and job alerts.
var applicationPatterns = []regexp.Regexp{
	*regexp.MustCompile(`(?i)thank\s+you\s+for\s+(?:your|submitting|completing)\s+(?:application|applying)`),
	*regexp.MustCompile(`(?i)(?:your|the)\s+application\s+(?:has\s+been|was)\s+(?:received|submitted|confirmed)`),
	*regexp.MustCompile(`(?i)we\s+(?:have|'ve)\s+received\s+your\s+application`),
	*regexp.MustCompile(`(?i)application\s+(?:confirmation|received|submitted|complete)`),
	*regexp.MustCompile(`(?i)confirmation\s+of\s+your\s+(?:job|position|role)\s+application`),
	*regexp.MustCompile(`(?i)we\s+are\s+currently\s+reviewing\s+your\s+application`),
	*regexp.MustCompile(`(?i)your\s+interest\s+in\s+(?:the|this|our)\s+(?:position|role|job|opportunity)`),
	*regexp.MustCompile(`(?i)in\s+response\s+to\s+your\s+(?:recent|job)\s+application`),
	*regexp.MustCompile(`(?i)thank\s+you\s+for\s+expressing\s+interest\s+in\s+(?:the|this|our)\s+(?:position|role|vacancy)`),
}

// Terms that are never company names. Matched case-insensitively as
// substrings of an extraction candidate.
var invalidCompanies = []string{
	"linkedin",
	"update",
	"alert",
	"notification",
	"message",
	"tel aviv",
	"new york",
	"reminder",
	"news",
}

// Personal mail providers and job boards, keyed by domain minus TLD.
// A sender domain in either set never names the hiring company.
var (
	webmailProviders = map[string]bool{
		"gmail":      true,
		"yahoo":      true,
		"hotmail":    true,
		"outlook":    true,
		"aol":        true,
		"icloud":     true,
		"protonmail": true,
		"mail":       true,
		"zoho":       true,
	}

	jobBoardDomains = map[string]bool{
		"linkedin": true,
		"indeed":   true,
		"monster":  true,
	}
)

// Company extraction, strategy 1: explicit phrasing in subject or body.
// Captures a capitalized phrase of one to three words.
var companyPhrasePatterns = []regexp.Regexp{
	*regexp.MustCompile(`[Tt]hank\s+you\s+for\s+applying\s+(?:to|at|with)\s+([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,2})`),
	*regexp.MustCompile(`[Tt]hank\s+you\s+for\s+your\s+(?:application|interest)\s+(?:to|at|in|with)\s+([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,2})`),
	*regexp.MustCompile(`(?:application|applying|applied)\s+(?:to|at|with)\s+([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,2})`),
}

// Strategy 2: sender display name, with or without a recruiting suffix.
var (
	displayNameTeamPattern = regexp.MustCompile(`^([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,2})\s+(?:Team|Recruiting|HR|Talent)$`)
	displayNameBarePattern = regexp.MustCompile(`^([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,2})$`)
)

// Role extraction phrasings, checked against subject first, then body.
var rolePatterns = []regexp.Regexp{
	*regexp.MustCompile(`(?i)your\s+application\s+for\s+(?:the\s+)?([A-Za-z][A-Za-z0-9 /&+-]{2,50}?)\s+(?:position|role)`),
	*regexp.MustCompile(`(?i)(?:position|role|job)\s+(?:as|for)\s+(?:an?\s+|the\s+)?([A-Za-z][A-Za-z0-9 /&+-]{2,50})`),
	*regexp.MustCompile(`(?i)applied\s+for\s+(?:the\s+|an?\s+)?([A-Za-z][A-Za-z0-9 /&+-]{2,50})`),
}

// A captured role phrase counts only if it names a recognized title
// keyword. Greedy prefix: the window extends to the LAST keyword, so a
// title that opens with one ("QA Automation Specialist") keeps its
// qualifiers instead of stopping at the first hit.
var roleKeywordPattern = regexp.MustCompile(`(?i)^(.*\b(?:engineer|developer|qa|manager|specialist|analyst))\b`)
