package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jobtrail/jobtrail/internal/classify"
	"github.com/jobtrail/jobtrail/internal/mailbox"
	"github.com/jobtrail/jobtrail/internal/store"
)

type fakeStore struct {
	apps      map[string]*store.Application
	nextID    int64
	findErr   error
	insertErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{apps: make(map[string]*store.Application)}
}

func key(company, role string) string {
	return strings.ToLower(company) + "|" + strings.ToLower(role)
}

func (f *fakeStore) FindByCompanyRole(company, role string) (*store.Application, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	app, ok := f.apps[key(company, role)]
	if !ok {
		return nil, nil
	}
	copied := *app
	return &copied, nil
}

func (f *fakeStore) Insert(app *store.Application) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	app.ID = f.nextID
	copied := *app
	f.apps[key(app.Company, app.Role)] = &copied
	return nil
}

func (f *fakeStore) UpdateStatus(id int64, status classify.Status, statusDate string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, app := range f.apps {
		if app.ID == id {
			app.Status = status
			app.StatusDate = statusDate
			return nil
		}
	}
	return errors.New("not found")
}

// stubExtractor returns a fixed extraction, for exercising the gate and
// error paths independently of the pattern tables
type stubExtractor struct {
	ext    *Extraction
	err    error
	called int
}

func (s *stubExtractor) Extract(ctx context.Context, email mailbox.Email) (*Extraction, error) {
	s.called++
	return s.ext, s.err
}

func (s *stubExtractor) Name() string { return "stub" }

func confirmationEmail(domain string) mailbox.Email {
	return mailbox.Email{
		From:       "careers@" + domain,
		FromDomain: domain,
		Subject:    "Thank you for applying",
		Body:       "We have received your application for the Backend Developer role and will be in touch.",
		ReceivedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func fixedNow(p *Processor, day string) {
	t, _ := time.Parse("2006-01-02", day)
	p.now = func() time.Time { return t }
}

func TestProcessEmailIdempotence(t *testing.T) {
	fs := newFakeStore()
	p := NewProcessor(fs, RuleExtractor{})
	fixedNow(p, "2026-09-01")
	email := confirmationEmail("Acme.com")

	first := p.ProcessEmail(context.Background(), email)
	if first.Result != OutcomeNew {
		t.Fatalf("first pass = %s, want new", first.Result)
	}

	app := fs.apps[key("Acme", "Backend Developer")]
	if app == nil {
		t.Fatal("record not inserted under (Acme, Backend Developer)")
	}
	if app.Status != classify.StatusPending {
		t.Errorf("status = %s, want Pending", app.Status)
	}
	if app.ResumeVersion != "Backend Developer" {
		t.Errorf("resume_version = %q, want role", app.ResumeVersion)
	}
	if app.DateApplied != "2026-08-20" {
		t.Errorf("date_applied = %s, want 2026-08-20", app.DateApplied)
	}

	second := p.ProcessEmail(context.Background(), email)
	if second.Result != OutcomeNoChange {
		t.Errorf("second pass = %s, want no_change", second.Result)
	}
	if len(fs.apps) != 1 {
		t.Errorf("store has %d records, want 1", len(fs.apps))
	}
}

func TestStatusTransitionMovesStatusDate(t *testing.T) {
	fs := newFakeStore()
	fs.Insert(&store.Application{
		Company:    "Initech",
		Role:       "QA Engineer",
		Status:     classify.StatusPending,
		StatusDate: "2026-08-01",
	})

	p := NewProcessor(fs, RuleExtractor{})
	fixedNow(p, "2026-09-01")

	rejection := mailbox.Email{
		From:     "no-reply@mail-relay.net",
		FromName: "Initech Team",
		Subject:  "Application update",
		Body:     "In response to your recent application for the QA Engineer position: unfortunately we will not be proceeding.",
	}

	outcome := p.ProcessEmail(context.Background(), rejection)
	if outcome.Result != OutcomeUpdated {
		t.Fatalf("outcome = %s, want updated", outcome.Result)
	}

	app := fs.apps[key("Initech", "QA Engineer")]
	if app.Status != classify.StatusRejected {
		t.Errorf("status = %s, want Rejected", app.Status)
	}
	if app.StatusDate != "2026-09-01" {
		t.Errorf("status_date = %s, want 2026-09-01", app.StatusDate)
	}

	// Same signal again: no transition, status_date untouched
	again := p.ProcessEmail(context.Background(), rejection)
	if again.Result != OutcomeNoChange {
		t.Errorf("repeat outcome = %s, want no_change", again.Result)
	}
	if app.StatusDate != "2026-09-01" {
		t.Errorf("status_date churned to %s on no_change", app.StatusDate)
	}
}

func TestDenylistedSenderSkipped(t *testing.T) {
	fs := newFakeStore()
	p := NewProcessor(fs, RuleExtractor{})

	email := mailbox.Email{
		From:     "update@update.com",
		FromName: "Update",
		Subject:  "Reminder",
		Body:     "We have received your application.",
	}

	outcome := p.ProcessEmail(context.Background(), email)
	if outcome.Result != OutcomeSkipped {
		t.Errorf("outcome = %s, want skipped", outcome.Result)
	}
	if len(fs.apps) != 0 {
		t.Errorf("store has %d records, want 0", len(fs.apps))
	}
}

func TestLinkedInNeverReachesExtractor(t *testing.T) {
	stub := &stubExtractor{ext: &Extraction{JobRelated: true, Company: "Acme", Role: "Developer", Status: classify.StatusPending}}
	p := NewProcessor(newFakeStore(), stub)

	email := mailbox.Email{
		From:    "jobs-noreply@linkedin.com",
		Subject: "We have received your application",
		Body:    "We have received your application for the QA Engineer role.",
	}

	outcome := p.ProcessEmail(context.Background(), email)
	if outcome.Result != OutcomeSkipped {
		t.Errorf("outcome = %s, want skipped", outcome.Result)
	}
	if stub.called != 0 {
		t.Errorf("extractor called %d times for LinkedIn email, want 0", stub.called)
	}
}

func TestInvalidExtractionRejectedByGate(t *testing.T) {
	tests := []struct {
		name string
		ext  *Extraction
	}{
		{"short company", &Extraction{JobRelated: true, Company: "Io", Role: "Developer", Status: classify.StatusPending}},
		{"denylisted company", &Extraction{JobRelated: true, Company: "Alert Systems", Role: "Developer", Status: classify.StatusPending}},
		{"empty role", &Extraction{JobRelated: true, Company: "Acme", Role: " ", Status: classify.StatusPending}},
		{"bogus status", &Extraction{JobRelated: true, Company: "Acme", Role: "Developer", Status: classify.Status("Ghosted")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore()
			p := NewProcessor(fs, &stubExtractor{ext: tt.ext})
			outcome := p.ProcessEmail(context.Background(), mailbox.Email{From: "x@acme.com"})
			if outcome.Result != OutcomeInvalid {
				t.Errorf("outcome = %s, want invalid", outcome.Result)
			}
			if len(fs.apps) != 0 {
				t.Errorf("store has %d records, want 0", len(fs.apps))
			}
		})
	}
}

func TestPersistenceErrorIsolated(t *testing.T) {
	fs := newFakeStore()
	fs.insertErr = errors.New("disk full")
	p := NewProcessor(fs, RuleExtractor{})

	emails := []mailbox.Email{
		confirmationEmail("acme.com"),
		{From: "friend@gmail.com", Subject: "Lunch?", Body: "Tomorrow at noon?"},
	}

	summary := p.RunScan(context.Background(), emails)
	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
	if summary.Errors != 1 {
		t.Errorf("errors = %d, want 1", summary.Errors)
	}
	if summary.New != 0 {
		t.Errorf("new = %d, want 0", summary.New)
	}
}

func TestRunScanConvergence(t *testing.T) {
	fs := newFakeStore()
	p := NewProcessor(fs, RuleExtractor{})
	fixedNow(p, "2026-09-01")

	emails := []mailbox.Email{
		confirmationEmail("acme.com"),
		confirmationEmail("globex.com"),
		{From: "digest@jobsite.com", Subject: "Weekly job digest", Body: "Top positions this week."},
	}

	first := p.RunScan(context.Background(), emails)
	if first.New != 2 || first.Updated != 0 || first.Errors != 0 {
		t.Fatalf("first scan = %+v, want 2 new", first)
	}

	second := p.RunScan(context.Background(), emails)
	if second.New != 0 || second.Updated != 0 || second.Errors != 0 {
		t.Errorf("second scan = %+v, want 0 new and 0 updated", second)
	}
	if len(fs.apps) != 2 {
		t.Errorf("store has %d records, want 2", len(fs.apps))
	}
}
