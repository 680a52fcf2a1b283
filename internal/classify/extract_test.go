package classify

import "testing"

func TestExtractCompany(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		fromName string
		fromAddr string
		expected string
	}{
		{
			name:     "phrase in body",
			subject:  "Application received",
			body:     "Thank you for applying to Stripe. We will review your submission shortly.",
			fromName: "",
			fromAddr: "no-reply@notifications.example.com",
			expected: "Stripe",
		},
		{
			name:     "multi word phrase",
			subject:  "We got your application",
			body:     "Thank you for your interest in Globex Corporation. Our team will be in touch.",
			fromName: "",
			fromAddr: "noreply@workday.com",
			expected: "Globex Corporation",
		},
		{
			name:     "display name with recruiting suffix",
			subject:  "Your application",
			body:     "We received your application and will respond soon.",
			fromName: "Initech Recruiting",
			fromAddr: "talent@mail-relay.net",
			expected: "Initech",
		},
		{
			name:     "bare display name",
			subject:  "Application confirmation",
			body:     "Your application has been received.",
			fromName: "DataRobot",
			fromAddr: "hello@drsystems.io",
			expected: "DataRobot",
		},
		{
			name:     "sender domain fallback",
			subject:  "Thank you",
			body:     "Your application has been received.",
			fromName: "",
			fromAddr: "careers@Acme.com",
			expected: "Acme",
		},
		{
			name:     "webmail domain rejected",
			subject:  "Thanks",
			body:     "got it, will forward to the team",
			fromName: "",
			fromAddr: "recruiter@gmail.com",
			expected: "",
		},
		{
			name:     "job board domain rejected",
			subject:  "Application sent",
			body:     "Your application was submitted.",
			fromName: "",
			fromAddr: "apply@indeed.com",
			expected: "",
		},
		{
			name:     "denylisted display name and domain",
			subject:  "Reminder",
			body:     "",
			fromName: "Update",
			fromAddr: "update@update.com",
			expected: "",
		},
		{
			name:     "two character candidate rejected",
			subject:  "Thanks for applying",
			body:     "Your application has been received.",
			fromName: "Io",
			fromAddr: "team@io.com",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCompany(tt.subject, tt.body, tt.fromName, tt.fromAddr)
			if got != tt.expected {
				t.Errorf("ExtractCompany() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractRole(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		expected string
	}{
		{
			name:     "application for role phrasing",
			subject:  "Thank you for applying to Acme",
			body:     "We have received your application for the Backend Developer role and will be in touch.",
			expected: "Backend Developer",
		},
		{
			name:     "subject checked before body",
			subject:  "Your application for the QA Engineer position",
			body:     "We also have openings for a Data Analyst role.",
			expected: "QA Engineer",
		},
		{
			name:     "leading keyword keeps full title",
			subject:  "Your application for the QA Automation Specialist position",
			body:     "",
			expected: "QA Automation Specialist",
		},
		{
			name:     "position as phrasing",
			subject:  "Update on your candidacy",
			body:     "Regarding the position as Automation Specialist at our Berlin office.",
			expected: "Automation Specialist",
		},
		{
			name:     "applied for phrasing",
			subject:  "Application status",
			body:     "You applied for the Product Manager opening last week.",
			expected: "Product Manager",
		},
		{
			name:     "capture without title keyword is discarded",
			subject:  "Your application for the Basket Weaver position",
			body:     "We will review it shortly.",
			expected: "Position",
		},
		{
			name:     "keyword inference fallback",
			subject:  "Application received",
			body:     "Thanks for applying. Our automation practice will review your profile.",
			expected: "Automation Engineer",
		},
		{
			name:     "no signal defaults to Position",
			subject:  "Application received",
			body:     "We will get back to you.",
			expected: "Position",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRole(tt.subject, tt.body)
			if got != tt.expected {
				t.Errorf("ExtractRole() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidCompany(t *testing.T) {
	tests := []struct {
		name     string
		company  string
		expected bool
	}{
		{"normal company", "Acme", true},
		{"too short", "Io", false},
		{"empty", "", false},
		{"denylisted exact", "LinkedIn", false},
		{"denylisted substring", "Alert Systems", false},
		{"city name", "Tel Aviv Office", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCompany(tt.company); got != tt.expected {
				t.Errorf("ValidCompany(%q) = %v, want %v", tt.company, got, tt.expected)
			}
		})
	}
}
