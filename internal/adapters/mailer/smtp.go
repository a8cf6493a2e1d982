package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

// Config задаёт параметры SMTP.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
	// BCCSelf добавляет SMTP-пользователя в скрытую копию каждого письма.
	BCCSelf bool
}

// SMTP реализует domain.Mailer через STARTTLS и PLAIN-авторизацию.
type SMTP struct {
	cfg Config
}

var _ domain.Mailer = (*SMTP)(nil)

// NewSMTP создаёт почтовый транспорт.
func NewSMTP(cfg Config) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTP{cfg: cfg}
}

// Send отправляет одно письмо. Каждое письмо использует отдельное соединение.
func (s *SMTP) Send(ctx context.Context, msg domain.Message) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("smtp: %w: host and sender are required", domain.ErrConfiguration)
	}
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp: create client: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	start := time.Now()
	err = client.DialAndSendWithContext(sendCtx, m)
	metrics.ObserveNetworkRequest("mailer", "send", s.cfg.Host, start, err)
	if err != nil {
		return fmt.Errorf("smtp: send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTP) buildMessage(msg domain.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: sender %q: %w", s.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp: recipient %q: %w", msg.To, err)
	}
	if s.cfg.BCCSelf && s.cfg.User != "" && s.cfg.User != msg.To {
		if err := m.Bcc(s.cfg.User); err != nil {
			return nil, fmt.Errorf("smtp: bcc %q: %w", s.cfg.User, err)
		}
	}
	m.Subject(msg.Subject)
	if msg.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	} else {
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}
