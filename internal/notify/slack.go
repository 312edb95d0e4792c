// Package notify posts newly raised critical alerts to a Slack webhook.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/slack-go/slack"
	"github.com/ukydev/fleetdash/internal/models"
)

// Notifier is told about every fresh alert snapshot.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.Alert) error
}

// Nop ignores every snapshot.
type Nop struct{}

func (Nop) Notify(context.Context, []models.Alert) error { return nil }

// Slack posts critical alerts that were not critical in the previous
// snapshot. An alert that clears and comes back is posted again.
type Slack struct {
	webhookURL string

	mu   sync.Mutex
	seen map[string]bool
}

// NewSlack returns a Slack notifier, or Nop when webhookURL is empty.
func NewSlack(webhookURL string) Notifier {
	if webhookURL == "" {
		return Nop{}
	}
	return &Slack{webhookURL: webhookURL, seen: make(map[string]bool)}
}

func (s *Slack) Notify(ctx context.Context, alerts []models.Alert) error {
	s.mu.Lock()
	current := make(map[string]bool)
	var fresh []models.Alert
	for _, a := range alerts {
		if a.Type != models.AlertCritical {
			continue
		}
		current[a.ID] = true
		if !s.seen[a.ID] {
			fresh = append(fresh, a)
		}
	}
	previous := s.seen
	s.seen = current
	s.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, Message(fresh)); err != nil {
		// allow the next snapshot to retry the same alerts
		s.mu.Lock()
		for _, a := range fresh {
			if !previous[a.ID] {
				delete(s.seen, a.ID)
			}
		}
		s.mu.Unlock()
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

// Message builds the webhook payload for alerts, one attachment each.
func Message(alerts []models.Alert) *slack.WebhookMessage {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":rotating_light: %d new critical fleet alert(s)", len(alerts)),
	}
	for _, a := range alerts {
		att := slack.Attachment{
			Color:  "danger",
			Title:  a.Title,
			Text:   a.Description,
			Footer: "FleetDash",
			Ts:     json.Number(strconv.FormatInt(a.Timestamp.Unix(), 10)),
		}
		if a.LicensePlate != "" {
			att.Fields = []slack.AttachmentField{{Title: "Vehicle", Value: a.LicensePlate, Short: true}}
		}
		msg.Attachments = append(msg.Attachments, att)
	}
	return msg
}
