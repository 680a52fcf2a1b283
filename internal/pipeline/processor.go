package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/mailbox"
	"github.com/jobtrail/jobtrail/internal/store"
)

// OutcomeResult names what reconciliation did with one email
type OutcomeResult string

const (
	OutcomeNew      OutcomeResult = "new"       // Record inserted
	OutcomeUpdated  OutcomeResult = "updated"   // Status transition persisted
	OutcomeNoChange OutcomeResult = "no_change" // Same status already on file
	OutcomeInvalid  OutcomeResult = "invalid"   // Extraction failed the gate
	OutcomeSkipped  OutcomeResult = "skipped"   // Not a job application email
	OutcomeError    OutcomeResult = "error"     // Persistence or extraction error
)

// Outcome reports the reconciliation result for a single email
type Outcome struct {
	Result OutcomeResult `json:"result"`
	ID     int64         `json:"id,omitempty"`
	Date   string        `json:"date,omitempty"`
}

// ScanSummary aggregates one scan pass
type ScanSummary struct {
	Processed int `json:"processed"`
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// RecordStore is the persistence surface the reconciler needs
type RecordStore interface {
	FindByCompanyRole(company, role string) (*store.Application, error)
	Insert(app *store.Application) error
	UpdateStatus(id int64, status classify.Status, statusDate string) error
}

// Processor runs the per-email pipeline: extract, validate, reconcile.
// All writes go through the single scan goroutine, so the read-then-write
// sequence against the (company, role) key never races with itself.
type Processor struct {
	store     RecordStore
	extractor Extractor
	now       func() time.Time
}

func NewProcessor(st RecordStore, extractor Extractor) *Processor {
	return &Processor{
		store:     st,
		extractor: extractor,
		now:       time.Now,
	}
}

// ProcessEmail is the single-email entry point
func (p *Processor) ProcessEmail(ctx context.Context, email mailbox.Email) Outcome {
	// LinkedIn traffic is rejected before any extractor runs, including
	// the AI path: its notification volume drowns everything else.
	if strings.Contains(strings.ToLower(email.From), "linkedin") ||
		strings.Contains(strings.ToLower(email.Subject), "linkedin") {
		log.Printf("Skipping LinkedIn email: %s", email.Subject)
		return Outcome{Result: OutcomeSkipped}
	}

	ext, err := p.extractor.Extract(ctx, email)
	if err != nil {
		log.Printf("Extraction error for %q: %v", email.Subject, err)
		return Outcome{Result: OutcomeError}
	}

	if ext == nil || !ext.JobRelated {
		log.Printf("Not a job application email: %s", email.Subject)
		return Outcome{Result: OutcomeSkipped}
	}

	if !Validate(ext) {
		log.Printf("Extraction failed validation for %q (company=%q role=%q)", email.Subject, ext.Company, ext.Role)
		return Outcome{Result: OutcomeInvalid}
	}

	return p.reconcile(ext)
}

// reconcile merges an extraction into persisted state: insert-if-absent,
// update-if-status-changed, no-op otherwise. status_date moves only on a
// genuine transition, so re-scanning the same window converges.
func (p *Processor) reconcile(ext *Extraction) Outcome {
	today := p.now().Format("2006-01-02")

	existing, err := p.store.FindByCompanyRole(ext.Company, ext.Role)
	if err != nil {
		log.Printf("Lookup failed for %s/%s: %v", ext.Company, ext.Role, err)
		return Outcome{Result: OutcomeError}
	}

	if existing != nil {
		if existing.Status == ext.Status {
			return Outcome{Result: OutcomeNoChange, ID: existing.ID, Date: existing.StatusDate}
		}
		if err := p.store.UpdateStatus(existing.ID, ext.Status, today); err != nil {
			log.Printf("Status update failed for %s/%s: %v", ext.Company, ext.Role, err)
			return Outcome{Result: OutcomeError}
		}
		log.Printf("Updated %s / %s: %s -> %s", ext.Company, ext.Role, existing.Status, ext.Status)
		return Outcome{Result: OutcomeUpdated, ID: existing.ID, Date: today}
	}

	dateApplied := ext.DateApplied
	if dateApplied == "" {
		dateApplied = today
	}

	app := &store.Application{
		Company:       ext.Company,
		Role:          ext.Role,
		JobType:       "Remote",
		Country:       "Unknown",
		Source:        "Email",
		DateApplied:   dateApplied,
		ResumeVersion: ext.Role,
		Status:        ext.Status,
		StatusDate:    today,
	}
	if err := p.store.Insert(app); err != nil {
		log.Printf("Insert failed for %s/%s: %v", ext.Company, ext.Role, err)
		return Outcome{Result: OutcomeError}
	}

	log.Printf("New application: %s / %s (%s)", ext.Company, ext.Role, ext.Status)
	return Outcome{Result: OutcomeNew, ID: app.ID, Date: today}
}

// RunScan processes a batch of emails sequentially. Per-email failures
// are counted, never propagated; one bad message must not sink the pass.
func (p *Processor) RunScan(ctx context.Context, emails []mailbox.Email) ScanSummary {
	var summary ScanSummary
	for _, email := range emails {
		outcome := p.ProcessEmail(ctx, email)
		summary.Processed++
		switch outcome.Result {
		case OutcomeNew:
			summary.New++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeError:
			summary.Errors++
		}
	}
	log.Printf("Scan pass complete: %d processed, %d new, %d updated, %d errors",
		summary.Processed, summary.New, summary.Updated, summary.Errors)
	return summary
}
