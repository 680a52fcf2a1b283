package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/mailbox"
)

// Extraction is the structured result of analyzing one email. JobRelated
// false means the email should be skipped, not that extraction failed.
type Extraction struct {
	Company     string
	Role        string
	Status      classify.Status
	DateApplied string // YYYY-MM-DD
	JobRelated  bool
}

// Extractor turns a raw email into an Extraction. Implementations must
// produce output that survives Validate; the reconciler trusts nothing
// that hasn't passed the same gate.
type Extractor interface {
	Extract(ctx context.Context, email mailbox.Email) (*Extraction, error)
	Name() string
}

// Validate applies the shared acceptance gate to an extraction. Both the
// rule-based and the AI path go through here, so a hallucinated company
// name gets the same treatment as a bad regex capture.
func Validate(ext *Extraction) bool {
	if ext == nil || !ext.JobRelated {
		return false
	}
	if !classify.ValidCompany(ext.Company) {
		return false
	}
	if strings.TrimSpace(ext.Role) == "" {
		return false
	}
	return classify.ValidStatus(ext.Status)
}

// RuleExtractor is the deterministic pattern-based extraction path
type RuleExtractor struct{}

func (RuleExtractor) Name() string { return "rules" }

func (RuleExtractor) Extract(ctx context.Context, email mailbox.Email) (*Extraction, error) {
	if !classify.IsJobApplication(email.Subject, email.Body, email.From) {
		return &Extraction{JobRelated: false}, nil
	}

	company := classify.ExtractCompany(email.Subject, email.Body, email.FromName, email.From)
	if company == "" {
		return &Extraction{JobRelated: false}, nil
	}

	role := classify.StandardizeRole(classify.ExtractRole(email.Subject, email.Body))
	status := classify.DetermineStatus(email.Subject, email.Body)

	return &Extraction{
		Company:     company,
		Role:        role,
		Status:      status,
		DateApplied: appliedDate(email.ReceivedAt),
		JobRelated:  true,
	}, nil
}

// appliedDate formats the received date, defaulting to today when the
// message header carried no usable date
func appliedDate(received time.Time) string {
	if received.IsZero() {
		return time.Now().Format("2006-01-02")
	}
	return received.Format("2006-01-02")
}
