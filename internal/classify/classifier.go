package classify

import "strings"

// Status represents the lifecycle stage of a job application
type Status string

const (
	StatusPending    Status = "Pending"
	StatusRejected   Status = "Rejected"
	StatusInterview  Status = "Interview"
	StatusAssignment Status = "Assignment"
	StatusOffer      Status = "Offer"
)

// ValidStatus reports whether s is one of the fixed status values
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusRejected, StatusInterview, StatusAssignment, StatusOffer:
		return true
	}
	return false
}

// DetermineStatus maps email text to an application status. It is total:
// if nothing matches, the application is assumed to still be Pending.
func DetermineStatus(subject, body string) Status {
	text := CombinedText(subject, body)

	for _, group := range statusGroups {
		for _, pattern := range group.Patterns {
			if pattern.MatchString(text) {
				return group.Status
			}
		}
	}

	for _, pattern := range confirmationPatterns {
		if pattern.MatchString(text) {
			return StatusPending
		}
	}

	return StatusPending
}

// IsJobApplication decides whether an email is a genuine application
// confirmation. Only emails matching the strict allow-list pass; anything
// from LinkedIn is rejected outright regardless of phrasing, since its
// notification volume would otherwise dominate false positives.
func IsJobApplication(subject, body, sender string) bool {
	if strings.Contains(strings.ToLower(sender), "linkedin") ||
		strings.Contains(strings.ToLower(subject), "linkedin") {
		return false
	}

	text := CombinedText(subject, body)
	for _, pattern := range applicationPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// CombinedText lowercases and joins subject and body for pattern scans
func CombinedText(subject, body string) string {
	return strings.ToLower(subject + " " + body)
}
