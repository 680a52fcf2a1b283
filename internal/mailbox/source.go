package mailbox

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jobtrail/jobtrail/internal/config"
)

// Source fetches candidate emails for one scan pass. Each call opens a
// fresh IMAP session and closes it before returning, so the connection
// never outlives the scan that needed it.
type Source struct {
	cfg    config.InboxConfig
	target string // Optional additional address; the login address always matches
}

// NewSource creates a scan-scoped mail source. target narrows candidates
// to messages addressed to that mailbox (e.g., a dedicated applications
// alias); leave it empty to consider everything in the folder.
func NewSource(cfg config.InboxConfig, target string) *Source {
	return &Source{cfg: cfg, target: strings.ToLower(strings.TrimSpace(target))}
}

// FetchCandidateEmails returns decoded messages from the lookback window
func (s *Source) FetchCandidateEmails(ctx context.Context, days int) ([]Email, error) {
	monitor := NewMonitor(s.cfg)
	if err := monitor.Connect(ctx); err != nil {
		return nil, fmt.Errorf("mailbox connection failed: %w", err)
	}
	defer monitor.Disconnect()

	emails, err := monitor.FetchRecentEmails(ctx, days)
	if err != nil {
		return nil, err
	}

	if s.target == "" {
		return emails, nil
	}

	login := strings.ToLower(s.cfg.Email)
	var candidates []Email
	for _, email := range emails {
		if addressedTo(email, login) || addressedTo(email, s.target) {
			candidates = append(candidates, email)
		}
	}

	log.Printf("%d of %d emails addressed to monitored account", len(candidates), len(emails))
	return candidates, nil
}

func addressedTo(email Email, addr string) bool {
	for _, to := range email.To {
		if to == addr {
			return true
		}
	}
	return false
}
