// Package mail sends ledger notifications over SMTP with gomail.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/joy095/ledger/config"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/services/ledger_service"
	gomail "gopkg.in/gomail.v2"
)

// Directory resolves the email address of a user.
type Directory interface {
	EmailOf(ctx context.Context, userID uuid.UUID) (string, error)
}

var (
	withdrawalTemplate = template.Must(template.New("withdrawal").Parse(`<p>Hello,</p>
<p>Your withdrawal request of <strong>&#8377;{{.Amount}}</strong> to {{.Destination}} has been <strong>{{.Status}}</strong>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>Net amount: &#8377;{{.Net}} (fee &#8377;{{.Fee}})</p>`))

	batchTemplate = template.Must(template.New("batch").Parse(`<p>Payout batch <strong>{{.Reference}}</strong> finished as <strong>{{.Status}}</strong>.</p>
<p>{{.Providers}} providers, total &#8377;{{.Total}}.</p>
{{if .Failed}}<p>{{.Failed}} lines failed and can be re-driven from the admin console.</p>{{end}}`))
)

// Mailer implements ledger_service.Notifier.
type Mailer struct {
	from      string
	admin     string
	directory Directory
	send      func(m *gomail.Message) error
}

var _ ledger_service.Notifier = (*Mailer)(nil)

func NewMailer(cfg config.SMTPConfig, adminEmail string, directory Directory) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Mailer{
		from:      cfg.From,
		admin:     adminEmail,
		directory: directory,
		send:      func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

func render(t *template.Template, data any) (string, error) {
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		logger.ErrorLogger.Errorf("Failed to execute email template %s: %v", t.Name(), err)
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

func (m *Mailer) deliver(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.send(msg); err != nil {
		logger.ErrorLogger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	logger.InfoLogger.Infof("Sent %q to %s", subject, to)
	return nil
}

// WithdrawalDecided tells the worker that an administrator acted on their request.
func (m *Mailer) WithdrawalDecided(ctx context.Context, w *ledger_models.WithdrawalRequest) error {
	to, err := m.directory.EmailOf(ctx, w.WorkerID)
	if err != nil {
		return fmt.Errorf("lookup worker email: %w", err)
	}
	reason := ""
	if w.FailureReason != nil {
		reason = *w.FailureReason
	}
	body, err := render(withdrawalTemplate, map[string]any{
		"Amount":      w.Amount.StringFixed(2),
		"Net":         w.NetAmount.StringFixed(2),
		"Fee":         w.WithdrawalCharges.StringFixed(2),
		"Destination": w.DestinationID,
		"Status":      w.Status,
		"Reason":      reason,
	})
	if err != nil {
		return err
	}
	return m.deliver(to, fmt.Sprintf("Withdrawal %s", w.Status), body)
}

// BatchFinalised reports a finished payout batch to the operations mailbox.
func (m *Mailer) BatchFinalised(_ context.Context, b *ledger_models.PayoutBatch) error {
	if m.admin == "" {
		return nil
	}
	failed := 0
	for _, d := range b.Details {
		if d.Status == ledger_models.DetailFailed {
			failed++
		}
	}
	body, err := render(batchTemplate, map[string]any{
		"Reference": b.BatchReference,
		"Status":    b.Status,
		"Providers": b.TotalProviders,
		"Total":     b.TotalAmount.StringFixed(2),
		"Failed":    failed,
	})
	if err != nil {
		return err
	}
	return m.deliver(m.admin, fmt.Sprintf("Payout batch %s %s", b.BatchReference, b.Status), body)
}
