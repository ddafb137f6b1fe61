package reminder

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"ms-calendar/internal/config"
	"ms-calendar/internal/models"

	"github.com/wneessen/go-mail"
)

//go:embed templates/reminder.html
var templateFiles embed.FS

var reminderTemplate = template.Must(template.ParseFS(templateFiles, "templates/reminder.html"))

// Mailer sends one reminder for one booking.
type Mailer interface {
	SendReminder(ctx context.Context, event models.Event) error
}

// Subject is the reminder subject line for a booking title.
func Subject(title string) string {
	return "📸 Event Reminder – " + title
}

// RenderReminder renders the HTML body for event.
func RenderReminder(event models.Event, studio string) (string, error) {
	var buf bytes.Buffer
	err := reminderTemplate.Execute(&buf, struct {
		models.Event
		Studio string
	}{event, studio})
	if err != nil {
		return "", fmt.Errorf("render reminder: %w", err)
	}
	return buf.String(), nil
}

type SMTPMailer struct {
	Config config.EmailConfig
	// dial overrides the network send in tests
	dial func(ctx context.Context, msg *mail.Msg) error
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	m := &SMTPMailer{Config: cfg}
	m.dial = m.dialAndSend
	return m
}

func (m *SMTPMailer) SendReminder(ctx context.Context, event models.Event) error {
	msg, err := m.buildMessage(event)
	if err != nil {
		return err
	}
	return m.dial(ctx, msg)
}

func (m *SMTPMailer) buildMessage(event models.Event) (*mail.Msg, error) {
	body, err := RenderReminder(event, m.Config.FromName)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.Config.FromName, m.Config.SMTPUsername); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.Config.SMTPUsername, err)
	}
	if err := msg.To(event.CustomerEmail); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", event.CustomerEmail, err)
	}
	msg.Subject(Subject(event.Title))
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	port, err := strconv.Atoi(m.Config.SMTPPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP port %q: %w", m.Config.SMTPPort, err)
	}
	client, err := mail.NewClient(m.Config.SMTPHost,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Config.SMTPUsername),
		mail.WithPassword(m.Config.SMTPPassword),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reminder to %s: %w", msg.GetToString(), err)
	}
	return nil
}
