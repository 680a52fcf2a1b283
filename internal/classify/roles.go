package classify

import (
	"regexp"
	"strings"
)

var (
	qaPattern        = regexp.MustCompile(`(?i)\bqa\b|quality\s+assurance`)
	devPattern       = regexp.MustCompile(`(?i)\bdeveloper\b|\bdev\b|software\s+engineer`)
	fullStackPattern = regexp.MustCompile(`(?i)full[\s-]?stack`)
	frontendPattern  = regexp.MustCompile(`(?i)front[\s-]?end`)
	backendPattern   = regexp.MustCompile(`(?i)back[\s-]?end`)
	engineerPattern  = regexp.MustCompile(`(?i)\bengineer\b`)
)

// StandardizeRole maps a raw role string onto a small canonical
// vocabulary by keyword precedence. Unrecognized titles pass through
// cleaned but otherwise untouched, so specialized roles like "Data
// Scientist" are not forced into a bucket.
func StandardizeRole(raw string) string {
	cleaned := collapseWhitespace(raw)
	if cleaned == "" {
		return cleaned
	}

	hasQA := qaPattern.MatchString(cleaned)
	hasAutomation := strings.Contains(strings.ToLower(cleaned), "automation")

	switch {
	case hasQA && hasAutomation:
		return "QA Automation Engineer"
	case hasQA:
		return "QA Engineer"
	case hasAutomation:
		return "Automation Engineer"
	}

	if devPattern.MatchString(cleaned) {
		switch {
		case fullStackPattern.MatchString(cleaned):
			return "Full Stack Developer"
		case frontendPattern.MatchString(cleaned):
			return "Frontend Developer"
		case backendPattern.MatchString(cleaned):
			return "Backend Developer"
		}
	}

	lower := strings.ToLower(cleaned)
	if lower == "engineer" || lower == "software engineer" {
		return "Software Engineer"
	}

	return cleaned
}

// InferRole guesses a canonical role from free text when no explicit
// role phrasing was found. Returns "" if the text gives no signal.
func InferRole(text string) string {
	hasQA := qaPattern.MatchString(text)
	hasAutomation := strings.Contains(strings.ToLower(text), "automation")

	switch {
	case hasQA && hasAutomation:
		return "QA Automation Engineer"
	case hasQA:
		return "QA Engineer"
	case hasAutomation:
		return "Automation Engineer"
	}

	switch {
	case fullStackPattern.MatchString(text):
		return "Full Stack Developer"
	case frontendPattern.MatchString(text):
		return "Frontend Developer"
	case backendPattern.MatchString(text):
		return "Backend Developer"
	}

	if engineerPattern.MatchString(text) {
		return "Software Engineer"
	}
	return ""
}
