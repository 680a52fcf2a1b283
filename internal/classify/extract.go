package classify

import "strings"

// ExtractCompany derives the hiring company from an email, trying
// strategies in order: explicit phrasing in the subject or body, the
// sender display name, the sender domain. Original-case text is required
// here since the phrase patterns rely on capitalization cues. Returns ""
// when no strategy yields a valid candidate.
func ExtractCompany(subject, body, fromName, fromAddr string) string {
	for _, src := range []string{subject, body} {
		for _, pattern := range companyPhrasePatterns {
			if m := pattern.FindStringSubmatch(src); m != nil {
				if name := cleanCompany(m[1]); ValidCompany(name) {
					return name
				}
			}
		}
	}

	if name := companyFromDisplayName(fromName); ValidCompany(name) {
		return name
	}

	if name := companyFromDomain(fromAddr); ValidCompany(name) {
		return name
	}

	return ""
}

// ValidCompany applies the acceptance gate for company candidates:
// minimum length 3 and no overlap with known non-company terms.
func ValidCompany(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return false
	}
	lower := strings.ToLower(name)
	for _, term := range invalidCompanies {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

func cleanCompany(name string) string {
	return strings.Trim(name, " .,")
}

// companyFromDisplayName matches the sender display name against
// "<Company> Team|Recruiting|HR|Talent" or a bare capitalized phrase.
func companyFromDisplayName(fromName string) string {
	name := fromName
	if idx := strings.Index(name, "<"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.Trim(name, " .\"'")
	if name == "" {
		return ""
	}

	if m := displayNameTeamPattern.FindStringSubmatch(name); m != nil {
		return cleanCompany(m[1])
	}
	if m := displayNameBarePattern.FindStringSubmatch(name); m != nil {
		return cleanCompany(m[1])
	}
	return ""
}

// companyFromDomain falls back to the sender address domain, minus TLD.
// Webmail providers and job boards never name the hiring company.
func companyFromDomain(fromAddr string) string {
	at := strings.LastIndex(fromAddr, "@")
	if at < 0 || at == len(fromAddr)-1 {
		return ""
	}
	host := strings.TrimSuffix(fromAddr[at+1:], ">")

	label := strings.ToLower(strings.Split(host, ".")[0])
	if label == "" || webmailProviders[label] || jobBoardDomains[label] {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// ExtractRole pulls the applied-for role from the subject or body. A
// phrase capture only counts when it names a recognized title keyword;
// otherwise keyword inference over the whole text is tried, and failing
// that the literal "Position" is returned so records never lack a role.
func ExtractRole(subject, body string) string {
	for _, src := range []string{subject, body} {
		for _, pattern := range rolePatterns {
			m := pattern.FindStringSubmatch(src)
			if m == nil {
				continue
			}
			candidate := strings.TrimSpace(m[1])
			if km := roleKeywordPattern.FindStringSubmatch(candidate); km != nil {
				return collapseWhitespace(km[1])
			}
		}
	}

	if role := InferRole(CombinedText(subject, body)); role != "" {
		return role
	}
	return "Position"
}
