// Package notify delivers optional run-completion notifications.
package notify

import (
	"fmt"

	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/notify/providers"
)

// Sender defines the interface for notification delivery
type Sender interface {
	Send(subject, body string) error
}

// Notifier wraps a configured sender.
type Notifier struct {
	sender Sender
}

// New creates a notifier with the given sender
func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// NewFromConfig creates a notifier based on configuration. An empty provider
// means notifications are off: both return values are nil.
func NewFromConfig(cfg config.NotifyConfig) (*Notifier, error) {
	var sender Sender

	switch cfg.Provider {
	case "":
		return nil, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook provider needs webhook_url")
		}
		sender = providers.NewWebhookSender(cfg.WebhookURL)
	case "smtp":
		if cfg.SMTPHost == "" || cfg.ToAddr == "" {
			return nil, fmt.Errorf("smtp provider needs smtp_host and to_address")
		}
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
			cfg.ToAddr,
		)
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Provider)
	}

	return New(sender), nil
}

// Send delivers a notification. Safe to call on a nil notifier, so callers
// need no guard when notifications are off.
func (n *Notifier) Send(subject, body string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	return n.sender.Send(subject, body)
}
