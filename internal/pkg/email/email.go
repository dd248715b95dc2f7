package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/config"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

type emailNotifier struct {
	cfg       config.SMTPConfig
	templates *template.Template
}

// NewNotifier creates the SMTP-backed notification dispatcher.
func NewNotifier(cfg config.SMTPConfig) (notification.Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailNotifier{
		cfg:       cfg,
		templates: tmpl,
	}, nil
}

type punchEmailData struct {
	EmployeeName string
	Time         string
	Location     string
}

// SendAttendancePunch sends the clock-in or clock-out notification email.
func (s *emailNotifier) SendAttendancePunch(ctx context.Context, to, employeeName string, direction device.Direction, punchedAt time.Time, location string) error {
	var tmplName, subject string
	switch direction {
	case device.DirectionIn:
		tmplName = "clock_in.html"
		subject = fmt.Sprintf("Clock In Notification - %s", employeeName)
	case device.DirectionOut:
		tmplName = "clock_out.html"
		subject = fmt.Sprintf("Clock Out Notification - %s", employeeName)
	default:
		return fmt.Errorf("no notification template for direction %q", direction)
	}

	data := punchEmailData{
		EmployeeName: employeeName,
		Time:         punchedAt.Format("Mon, 02 Jan 2006 15:04:05"),
		Location:     location,
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, tmplName, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(ctx, to, subject, body.String())
}

func (s *emailNotifier) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := smtp.SendMail(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
