package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPTransport sends HTML mail through a relay. STARTTLS is used when the
// relay offers it.
type SMTPTransport struct {
	from     string
	sendMail func(ctx context.Context, m *mail.Msg) error
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPTransport{
		from: cfg.From,
		sendMail: func(ctx context.Context, m *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, m)
		},
	}, nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("smtp: recipient is required")
	}

	m := mail.NewMsg()
	if err := m.From(t.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if err := t.sendMail(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
