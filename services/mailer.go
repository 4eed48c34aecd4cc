package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/domodwyer/mailyak/v3"
	"go.uber.org/zap"
)

// Delivery is one outgoing message. AttachmentPath is optional; a path
// that does not exist is skipped rather than failing the send.
type Delivery struct {
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// DeliveryResult reports the outcome of a send. A failed delivery never
// invalidates the report that was generated before it.
type DeliveryResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Mailer delivers reports.
type Mailer interface {
	Send(ctx context.Context, d Delivery) DeliveryResult
	Configured() bool
}

// SMTPConfig holds the SMTP account used for delivery.
type SMTPConfig struct {
	Server       string
	Port         int
	FallbackPort int
	Username     string
	Password     string
	From         string
	Timeout      time.Duration
}

// MsgNotConfigured is returned when no SMTP credentials are set.
const MsgNotConfigured = "SMTP credentials not configured. Please set SMTP_USERNAME and SMTP_PASSWORD environment variables."

// SMTPMailer sends mail with mailyak. It tries STARTTLS on the configured
// port first and implicit TLS on the fallback port second.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *zap.Logger
	send   func(*mailyak.MailYak) error
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send:   func(m *mailyak.MailYak) error { return m.Send() },
	}
}

// Configured reports whether both username and password are present.
func (s *SMTPMailer) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != ""
}

// password strips the spaces Gmail shows in app passwords.
func (s *SMTPMailer) password() string {
	return strings.ReplaceAll(s.cfg.Password, " ", "")
}

func (s *SMTPMailer) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.Username
}

// Send delivers d. Errors are folded into the result message.
func (s *SMTPMailer) Send(ctx context.Context, d Delivery) DeliveryResult {
	if !s.Configured() {
		return DeliveryResult{OK: false, Message: MsgNotConfigured}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.password(), s.cfg.Server)

	primary := mailyak.New(net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port)), auth)
	if err := s.compose(primary, d); err != nil {
		return DeliveryResult{OK: false, Message: fmt.Sprintf("Error sending email: %v", err)}
	}

	err := s.sendWithTimeout(ctx, primary)
	if err == nil {
		s.logger.Info("email sent", zap.String("to", d.To), zap.Int("port", s.cfg.Port))
		return DeliveryResult{OK: true, Message: "Email sent successfully to " + d.To}
	}
	s.logger.Warn("smtp send failed, trying implicit TLS", zap.Int("port", s.cfg.Port), zap.Error(err))

	if s.cfg.FallbackPort == 0 || s.cfg.FallbackPort == s.cfg.Port {
		return classifySendError(err)
	}

	fallback, ferr := mailyak.NewWithTLS(
		net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.FallbackPort)),
		auth,
		&tls.Config{ServerName: s.cfg.Server, MinVersion: tls.VersionTLS12},
	)
	if ferr != nil {
		return classifySendError(ferr)
	}
	if ferr := s.compose(fallback, d); ferr != nil {
		return DeliveryResult{OK: false, Message: fmt.Sprintf("Error sending email: %v", ferr)}
	}
	if ferr := s.sendWithTimeout(ctx, fallback); ferr != nil {
		s.logger.Error("smtp fallback failed", zap.Int("port", s.cfg.FallbackPort), zap.Error(ferr))
		return classifySendError(ferr)
	}

	s.logger.Info("email sent", zap.String("to", d.To), zap.Int("port", s.cfg.FallbackPort))
	return DeliveryResult{OK: true, Message: "Email sent successfully to " + d.To}
}

// compose fills m from d: plain body always, HTML part when the body looks
// like markup, attachment when the file exists.
func (s *SMTPMailer) compose(m *mailyak.MailYak, d Delivery) error {
	m.To(d.To)
	m.From(s.from())
	m.Subject(d.Subject)
	m.Plain().Set(d.Body)

	lower := strings.ToLower(d.Body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<br>") {
		m.HTML().Set(d.Body)
	}

	if d.AttachmentPath == "" {
		return nil
	}
	data, err := os.ReadFile(d.AttachmentPath)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("attachment missing, sending without it", zap.String("path", d.AttachmentPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	m.AttachWithMimeType(filepath.Base(d.AttachmentPath), bytes.NewReader(data), attachmentMime(d.AttachmentPath))
	return nil
}

func attachmentMime(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// sendWithTimeout bounds a blocking send by the configured timeout and ctx.
// mailyak has no deadline of its own, so an abandoned send finishes in the
// background.
func (s *SMTPMailer) sendWithTimeout(ctx context.Context, m *mailyak.MailYak) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send timed out: %w", ctx.Err())
	}
}

const msgTimeout = "Connection timeout. Please check: 1) Your firewall/antivirus settings, 2) Network connection, 3) Try disabling VPN if active"

// classifySendError turns a transport error into a user-facing result.
func classifySendError(err error) DeliveryResult {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		if tpErr.Code == 535 || tpErr.Code == 534 {
			return DeliveryResult{OK: false, Message: "SMTP authentication failed. Please check your email credentials."}
		}
		return DeliveryResult{OK: false, Message: fmt.Sprintf("SMTP error: %v", err)}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) ||
		strings.Contains(strings.ToLower(err.Error()), "timed out") {
		return DeliveryResult{OK: false, Message: msgTimeout}
	}
	return DeliveryResult{OK: false, Message: fmt.Sprintf("Error sending email: %v", err)}
}

// EstimateEmail builds the subject and body of the report delivery mail.
func EstimateEmail(opts ReportOptions, summary PriceSummary) (string, string) {
	subject := fmt.Sprintf("%s - %s", opts.Title, opts.ProjectName)
	body := fmt.Sprintf(
		"Please find attached the road safety cost estimate for %s.\n\n"+
			"Interventions priced: %d\n"+
			"Subtotal: %s\n"+
			"GST: %s\n"+
			"Grand total (incl. GST): %s\n",
		opts.ProjectName,
		summary.TotalItems,
		FormatRs(summary.TotalCost),
		FormatRs(summary.TotalGST),
		FormatRs(summary.TotalWithGST),
	)
	if opts.Consultant != "" {
		body += "\nPrepared by: " + opts.Consultant + "\n"
	}
	return subject, body
}
