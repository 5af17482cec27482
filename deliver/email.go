package deliver

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dshills/tripgraph/planner"
)

// EmailConfig holds SMTP settings. Credentials come from the
// environment; never hardcode them in source.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address. Defaults to Username.
	From string
}

func (c EmailConfig) from() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// EmailSender dispatches itineraries over SMTP.
type EmailSender struct {
	cfg EmailConfig

	// send allows tests to intercept the SMTP call.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates an EmailSender.
func NewEmailSender(cfg EmailConfig) (*EmailSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("deliver: smtp host and port are required")
	}
	if cfg.from() == "" {
		return nil, fmt.Errorf("deliver: sender address is required")
	}
	return &EmailSender{cfg: cfg, send: smtp.SendMail}, nil
}

// Send emails the itinerary to the given recipients.
func (e *EmailSender) Send(state planner.PlanState, to []string, subject string) error {
	if len(to) == 0 {
		return fmt.Errorf("deliver: at least one recipient is required")
	}
	if subject == "" {
		subject = defaultSubject(state)
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	msg := buildMessage(e.cfg.from(), to, subject, RenderItinerary(state))
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, e.cfg.from(), to, msg); err != nil {
		return fmt.Errorf("failed to send itinerary email: %w", err)
	}
	return nil
}

func defaultSubject(state planner.PlanState) string {
	dest := state.RequestFacets.Destination
	if dest == "" {
		return "Your travel itinerary"
	}
	return fmt.Sprintf("Your %s itinerary", dest)
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
