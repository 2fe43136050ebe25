// Package mailer delivers registration codes by e-mail.
package mailer

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/wneessen/go-mail"
)

const (
	otpSubject = "Your OTP for TaskFlow - Email Verification"
	senderName = "TaskFlow"
)

//go:embed templates/*
var templates embed.FS

var (
	otpHTML = htmltemplate.Must(htmltemplate.ParseFS(templates, "templates/otp.html"))
	otpText = texttemplate.Must(texttemplate.ParseFS(templates, "templates/otp.txt"))
)

type otpData struct {
	OTP     string
	Minutes int
}

// Config describes the outgoing SMTP server.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Validity is quoted in the message body.
	Validity time.Duration
}

// sender is the part of *mail.Client the mailer needs.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends OTP messages over SMTP.
type SMTPMailer struct {
	client   sender
	from     string
	validity time.Duration
	logger   logging.Logger
}

// NewSMTPMailer builds an SMTP mailer. Authentication is enabled when a
// username is configured; TLS is used when the server offers it.
func NewSMTPMailer(cfg Config, logger logging.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
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

	return newSMTPMailer(client, cfg, logger), nil
}

func newSMTPMailer(client sender, cfg Config, logger logging.Logger) *SMTPMailer {
	return &SMTPMailer{
		client:   client,
		from:     cfg.From,
		validity: cfg.Validity,
		logger:   logger.With("module", "mailer"),
	}
}

// SendOTP renders and sends the registration code to email.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, otp string) error {
	msg, err := m.buildOTPMessage(email, otp)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error(ctx, "failed to send otp email", "to", email, "error", err)
		return fmt.Errorf("send otp email: %w", err)
	}

	m.logger.Info(ctx, "otp email sent", "to", email)
	return nil
}

func (m *SMTPMailer) buildOTPMessage(email, otp string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	var err error
	if strings.Contains(m.from, "<") {
		err = msg.From(m.from)
	} else {
		err = msg.FromFormat(senderName, m.from)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", email, err)
	}
	msg.Subject(otpSubject)

	data := otpData{OTP: otp, Minutes: minutes(m.validity)}
	if err := msg.SetBodyHTMLTemplate(otpHTML, data); err != nil {
		return nil, fmt.Errorf("render otp email: %w", err)
	}
	if err := msg.AddAlternativeTextTemplate(otpText, data); err != nil {
		return nil, fmt.Errorf("render otp email: %w", err)
	}

	return msg, nil
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 10
	}
	return int(d.Round(time.Minute) / time.Minute)
}

// LogMailer is used when no SMTP server is configured. It only logs.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, otp string) error {
	m.logger.Info(ctx, "smtp disabled, otp email not sent", "to", email)
	m.logger.Debug(ctx, "otp for development", "to", email, "otp", otp)
	return nil
}
