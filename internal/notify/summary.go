package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log"
	"text/template"
	"time"

	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/pipeline"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

var summaryTemplate = template.Must(template.ParseFS(embeddedTemplates, "templates/scan_summary.tmpl"))

type summaryData struct {
	Date    string
	Summary pipeline.ScanSummary
	Error   string
}

// RenderScanSummary builds the notification email body for one scan
func RenderScanSummary(snap pipeline.Snapshot) (string, error) {
	data := summaryData{
		Date:    time.Now().Format("January 2, 2006"),
		Summary: snap.Summary,
		Error:   snap.Error,
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render scan summary: %w", err)
	}
	return buf.String(), nil
}

// SendScanSummary emails the scan result to the configured recipient.
// Quiet scans (nothing new, nothing updated, no errors) send nothing.
func SendScanSummary(ctx context.Context, cfg config.NotifyConfig, snap pipeline.Snapshot) {
	if !cfg.Enabled {
		return
	}

	sender, err := NewSender(cfg)
	if err != nil {
		log.Printf("Notification sender unavailable: %v", err)
		return
	}

	deliverScanSummary(ctx, cfg, snap, sender)
}

func deliverScanSummary(ctx context.Context, cfg config.NotifyConfig, snap pipeline.Snapshot, sender Sender) {
	s := snap.Summary
	if snap.Error == "" && s.New == 0 && s.Updated == 0 && s.Errors == 0 {
		return
	}

	body, err := RenderScanSummary(snap)
	if err != nil {
		log.Printf("Notification render failed: %v", err)
		return
	}

	subject := fmt.Sprintf("Application scan: %d new, %d updated", s.New, s.Updated)
	if snap.Error != "" {
		subject = "Application scan failed"
	}

	result := sender.Send(ctx, Message{
		To:      cfg.To,
		From:    cfg.From,
		Subject: subject,
		Body:    body,
	})
	if !result.Success {
		log.Printf("Notification send failed via %s: %v", sender.Name(), result.Error)
		return
	}
	log.Printf("Scan summary sent to %s via %s", cfg.To, sender.Name())
}
