package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrail/jobtrail/internal/mailbox"
)

// ErrScanActive is returned when a scan is requested while one is running
var ErrScanActive = errors.New("a scan is already running")

// ScanPhase describes where a scan is in its lifecycle
type ScanPhase string

const (
	ScanIdle      ScanPhase = "idle"
	ScanRunning   ScanPhase = "running"
	ScanCompleted ScanPhase = "completed"
	ScanFailed    ScanPhase = "error"
)

// Snapshot is a point-in-time copy of scan state, safe to hand to
// callers and serialize
type Snapshot struct {
	ID         string      `json:"id,omitempty"`
	Phase      ScanPhase   `json:"status"`
	Scanning   bool        `json:"is_scanning"`
	StartedAt  time.Time   `json:"start_time"`
	FinishedAt time.Time   `json:"end_time"`
	Summary    ScanSummary `json:"result"`
	Error      string      `json:"error,omitempty"`
}

// MailSource abstracts where candidate emails come from
type MailSource interface {
	FetchCandidateEmails(ctx context.Context, days int) ([]mailbox.Email, error)
}

// Runner owns the scan lifecycle. State lives behind its mutex and is
// only read through Status snapshots; at most one scan runs at a time
// because the reconciler's read-then-write against the record store has
// no transactional isolation.
type Runner struct {
	source     MailSource
	processor  *Processor
	days       int
	onComplete func(Snapshot) // Called after a scan finishes, success or not

	mu    sync.Mutex
	state Snapshot
}

func NewRunner(source MailSource, processor *Processor, days int) *Runner {
	return &Runner{
		source:    source,
		processor: processor,
		days:      days,
		state:     Snapshot{Phase: ScanIdle},
	}
}

// OnComplete registers a completion hook (e.g., summary notification)
func (r *Runner) OnComplete(fn func(Snapshot)) {
	r.onComplete = fn
}

// Start launches a background scan and returns its id immediately.
// A second Start while a scan is in flight returns ErrScanActive.
func (r *Runner) Start(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state.Scanning {
		r.mu.Unlock()
		return "", ErrScanActive
	}
	id := uuid.New().String()
	r.state = Snapshot{
		ID:        id,
		Phase:     ScanRunning,
		Scanning:  true,
		StartedAt: time.Now(),
	}
	r.mu.Unlock()

	go r.run(ctx, id)
	return id, nil
}

// Status returns the current scan snapshot
func (r *Runner) Status() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) run(ctx context.Context, id string) {
	log.Printf("Scan %s started (last %d days)", id, r.days)

	emails, err := r.source.FetchCandidateEmails(ctx, r.days)
	if err != nil {
		// A transport failure aborts the whole pass; nothing was written
		log.Printf("Scan %s failed: %v", id, err)
		r.finish(Snapshot{Phase: ScanFailed, Error: err.Error()})
		return
	}

	summary := r.processor.RunScan(ctx, emails)
	r.finish(Snapshot{Phase: ScanCompleted, Summary: summary})
}

func (r *Runner) finish(result Snapshot) {
	r.mu.Lock()
	r.state.Phase = result.Phase
	r.state.Scanning = false
	r.state.FinishedAt = time.Now()
	r.state.Summary = result.Summary
	r.state.Error = result.Error
	snapshot := r.state
	r.mu.Unlock()

	if r.onComplete != nil {
		r.onComplete(snapshot)
	}
}
