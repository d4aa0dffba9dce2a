package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type Config struct {
	Domain    string
	APIKey    string
	APIBase   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

func (c *Config) IsConfigured() bool {
	return c != nil && c.Domain != "" && c.APIKey != "" && c.FromEmail != ""
}

func (c *Config) from() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail)
}

type MailgunSender struct {
	cfg    *Config
	client *mailgun.MailgunImpl
}

// NewMailgunSender returns nil when Mailgun is not configured.
func NewMailgunSender(cfg *Config) *MailgunSender {
	if !cfg.IsConfigured() {
		return nil
	}

	client := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		client.SetAPIBase(cfg.APIBase)
	}

	return &MailgunSender{cfg: cfg, client: client}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", errors.New("mailer: recipient is required")
	}

	message := s.client.NewMessage(s.cfg.from(), msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, id, err := s.client.Send(sendCtx, message)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	return id, nil
}
