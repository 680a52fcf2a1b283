package store

import (
	"path/filepath"
	"testing"

	"github.com/jobtrail/jobtrail/internal/classify"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndFind(t *testing.T) {
	s := newTestStore(t)

	app := &Application{
		Company:     "Acme",
		Role:        "Backend Developer",
		JobType:     "Remote",
		Country:     "Unknown",
		Source:      "Email",
		DateApplied: "2026-08-20",
		Status:      classify.StatusPending,
		StatusDate:  "2026-08-20",
	}
	if err := s.Insert(app); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if app.ID == 0 {
		t.Error("Insert() did not set ID")
	}

	found, err := s.FindByCompanyRole("acme", "BACKEND DEVELOPER")
	if err != nil {
		t.Fatalf("FindByCompanyRole() error: %v", err)
	}
	if found == nil {
		t.Fatal("FindByCompanyRole() returned nil for case-insensitive match")
	}
	if found.Company != "Acme" || found.Status != classify.StatusPending {
		t.Errorf("got company=%s status=%s, want Acme/Pending", found.Company, found.Status)
	}

	missing, err := s.FindByCompanyRole("Globex", "Backend Developer")
	if err != nil {
		t.Fatalf("FindByCompanyRole() error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown company, got %+v", missing)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)

	app := &Application{
		Company:    "Initech",
		Role:       "QA Engineer",
		Status:     classify.StatusPending,
		StatusDate: "2026-08-01",
	}
	if err := s.Insert(app); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	if err := s.UpdateStatus(app.ID, classify.StatusInterview, "2026-08-15"); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	found, err := s.Get(app.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found.Status != classify.StatusInterview {
		t.Errorf("status = %s, want Interview", found.Status)
	}
	if found.StatusDate != "2026-08-15" {
		t.Errorf("status_date = %s, want 2026-08-15", found.StatusDate)
	}

	if err := s.UpdateStatus(9999, classify.StatusOffer, "2026-08-15"); err == nil {
		t.Error("UpdateStatus() on missing id should fail")
	}
}

func TestDeleteAndList(t *testing.T) {
	s := newTestStore(t)

	for _, c := range []string{"Acme", "Globex"} {
		app := &Application{Company: c, Role: "Developer", Status: classify.StatusPending}
		if err := s.Insert(app); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	apps, err := s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(apps))
	}

	if err := s.Delete(apps[0].ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	apps, err = s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("List() returned %d records after delete, want 1", len(apps))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	records := []Application{
		{Company: "Acme", Role: "Developer", Status: classify.StatusPending},
		{Company: "Globex", Role: "QA Engineer", Status: classify.StatusPending},
		{Company: "Initech", Role: "Analyst", Status: classify.StatusRejected},
	}
	for i := range records {
		if err := s.Insert(&records[i]); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats[classify.StatusPending] != 2 || stats[classify.StatusRejected] != 1 {
		t.Errorf("Stats() = %v, want 2 Pending and 1 Rejected", stats)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetSetting("monitored_email")
	if err != nil {
		t.Fatalf("GetSetting() error: %v", err)
	}
	if v != "" {
		t.Errorf("unset setting = %q, want empty", v)
	}

	if err := s.SetSetting("monitored_email", "me@example.com"); err != nil {
		t.Fatalf("SetSetting() error: %v", err)
	}
	if err := s.SetSetting("monitored_email", "me2@example.com"); err != nil {
		t.Fatalf("SetSetting() overwrite error: %v", err)
	}

	v, err = s.GetSetting("monitored_email")
	if err != nil {
		t.Fatalf("GetSetting() error: %v", err)
	}
	if v != "me2@example.com" {
		t.Errorf("GetSetting() = %q, want me2@example.com", v)
	}
}
