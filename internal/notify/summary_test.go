package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/pipeline"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) Send(ctx context.Context, msg Message) Result {
	r.sent = append(r.sent, msg)
	return Result{Success: true, MessageID: "msg-1"}
}

func summaryConfig() config.NotifyConfig {
	return config.NotifyConfig{
		Enabled: true,
		From:    "jobtrail@example.com",
		To:      "me@example.com",
	}
}

func TestDeliverScanSummaryQuietScanSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	snap := pipeline.Snapshot{
		Summary: pipeline.ScanSummary{Processed: 12},
	}

	deliverScanSummary(context.Background(), summaryConfig(), snap, sender)

	if len(sender.sent) != 0 {
		t.Fatalf("quiet scan sent %d messages, want 0", len(sender.sent))
	}
}

func TestDeliverScanSummaryWithChanges(t *testing.T) {
	sender := &recordingSender{}
	snap := pipeline.Snapshot{
		Summary: pipeline.ScanSummary{Processed: 20, New: 3, Updated: 1},
	}

	deliverScanSummary(context.Background(), summaryConfig(), snap, sender)

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Subject != "Application scan: 3 new, 1 updated" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.To != "me@example.com" {
		t.Errorf("recipient = %q, want me@example.com", msg.To)
	}
	if !strings.Contains(msg.Body, "3") || !strings.Contains(msg.Body, "20") {
		t.Errorf("body missing counts: %q", msg.Body)
	}
}

func TestDeliverScanSummaryFailedScan(t *testing.T) {
	sender := &recordingSender{}
	snap := pipeline.Snapshot{
		Error: "mailbox connection failed: dial tcp: timeout",
	}

	deliverScanSummary(context.Background(), summaryConfig(), snap, sender)

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Subject != "Application scan failed" {
		t.Errorf("subject = %q, want failure subject", msg.Subject)
	}
	if !strings.Contains(msg.Body, "mailbox connection failed") {
		t.Errorf("body missing error detail: %q", msg.Body)
	}
}

func TestSendScanSummaryDisabled(t *testing.T) {
	// Must return without touching any provider; a sender would fail on
	// the empty config anyway.
	SendScanSummary(context.Background(), config.NotifyConfig{}, pipeline.Snapshot{
		Summary: pipeline.ScanSummary{New: 5},
	})
}
