// Package mail delivers transactional e-mail.
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"coursemart/internal/core/domain"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// SendGridMailer sends messages through the SendGrid v3 API
type SendGridMailer struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendGridMailer creates a mailer; host may be empty for the public API
func NewSendGridMailer(key, host, appName, fromEmail string) *SendGridMailer {
	if host == "" {
		host = defaultHost
	}
	return &SendGridMailer{
		key:        key,
		host:       host,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendGridMailer) prepare(msg domain.MailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)

	if msg.Text != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	for _, at := range msg.Attachments {
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(at.Data))
		a.SetType(at.ContentType)
		a.SetFilename(at.Filename)
		a.SetDisposition("attachment")
		v3.AddAttachment(a)
	}

	return v3
}

// Send delivers one message
func (m *SendGridMailer) Send(ctx context.Context, msg domain.MailMessage) error {
	req := sendgrid.GetRequest(m.key, endpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer drops messages after logging them; used when no API key is set
type LogMailer struct{}

// Send logs the message envelope
func (LogMailer) Send(_ context.Context, msg domain.MailMessage) error {
	log.Printf("📧 mail disabled, dropping %q to %s (%d attachment(s))", msg.Subject, msg.ToEmail, len(msg.Attachments))
	return nil
}
