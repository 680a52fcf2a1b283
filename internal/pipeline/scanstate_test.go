package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobtrail/jobtrail/internal/mailbox"
)

// blockingSource holds a scan open until released, so tests can observe
// the in-flight state deterministically
type blockingSource struct {
	release chan struct{}
	emails  []mailbox.Email
	err     error
}

func (s *blockingSource) FetchCandidateEmails(ctx context.Context, days int) ([]mailbox.Email, error) {
	if s.release != nil {
		<-s.release
	}
	return s.emails, s.err
}

func waitForIdle(t *testing.T, r *Runner) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := r.Status(); !snap.Scanning {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("scan did not finish in time")
	return Snapshot{}
}

func TestRunnerSingleFlight(t *testing.T) {
	source := &blockingSource{release: make(chan struct{})}
	runner := NewRunner(source, NewProcessor(newFakeStore(), RuleExtractor{}), 30)

	id, err := runner.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if id == "" {
		t.Error("Start() returned empty scan id")
	}

	if _, err := runner.Start(context.Background()); !errors.Is(err, ErrScanActive) {
		t.Errorf("second Start() error = %v, want ErrScanActive", err)
	}

	snap := runner.Status()
	if !snap.Scanning || snap.Phase != ScanRunning {
		t.Errorf("in-flight snapshot = %+v, want running", snap)
	}

	close(source.release)
	snap = waitForIdle(t, runner)
	if snap.Phase != ScanCompleted {
		t.Errorf("final phase = %s, want completed", snap.Phase)
	}

	// A new scan may start once the first one is done
	if _, err := runner.Start(context.Background()); err != nil {
		t.Errorf("Start() after completion error: %v", err)
	}
	waitForIdle(t, runner)
}

func TestRunnerProcessesEmails(t *testing.T) {
	source := &blockingSource{emails: []mailbox.Email{
		confirmationEmail("acme.com"),
		confirmationEmail("globex.com"),
	}}
	fs := newFakeStore()
	runner := NewRunner(source, NewProcessor(fs, RuleExtractor{}), 30)

	var completed []Snapshot
	runnerDone := make(chan struct{})
	runner.OnComplete(func(snap Snapshot) {
		completed = append(completed, snap)
		close(runnerDone)
	})

	if _, err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	select {
	case <-runnerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("completion hook not called")
	}

	snap := runner.Status()
	if snap.Summary.Processed != 2 || snap.Summary.New != 2 {
		t.Errorf("summary = %+v, want 2 processed and 2 new", snap.Summary)
	}
	if len(completed) != 1 {
		t.Errorf("completion hook called %d times, want 1", len(completed))
	}
	if len(fs.apps) != 2 {
		t.Errorf("store has %d records, want 2", len(fs.apps))
	}
}

func TestRunnerTransportFailure(t *testing.T) {
	source := &blockingSource{err: errors.New("imap login refused")}
	runner := NewRunner(source, NewProcessor(newFakeStore(), RuleExtractor{}), 30)

	if _, err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	snap := waitForIdle(t, runner)
	if snap.Phase != ScanFailed {
		t.Errorf("phase = %s, want error", snap.Phase)
	}
	if snap.Error == "" {
		t.Error("failed scan should surface an error message")
	}
}
