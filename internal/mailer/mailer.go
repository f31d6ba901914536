package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Mailer sends one rendered email. Implementations render the named template
// with the given props; failures are reported to the caller, which decides
// whether to retry.
type Mailer interface {
	Send(to, subject, templateName string, props map[string]interface{}) error
}

// SMTPConfig carries the dial settings for the outbound mail account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a Mailer on a plain SMTP account.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, templateName string, props map[string]interface{}) error {
	body, err := renderTemplate(templateName, props)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// Email bodies keyed by notification kind. Unknown kinds fall back to the
// generic template so a new notification kind never blocks delivery.
var bodyTemplates = map[string]string{
	"payment_pending": `<p>Hello,</p>
<p>Payment is pending for your request for <b>{{.quantity}} x {{.product_name}}</b>.
Please settle the attached invoice to keep your request moving.</p>`,

	"payment_confirmed": `<p>Hello,</p>
<p>We received your payment — your request for <b>{{.quantity}} x {{.product_name}}</b>
has been approved and is moving to fulfillment.</p>`,

	"order_fulfilled": `<p>Hello,</p>
<p>Your request for <b>{{.quantity}} x {{.product_name}}</b> has been fulfilled
and is being prepared for shipment.</p>`,

	"order_shipped": `<p>Hello,</p>
<p>Your order for <b>{{.product_name}}</b> has shipped.</p>
<p>Tracking number: <b>{{.tracking_number}}</b></p>`,

	"order_rejected": `<p>Hello,</p>
<p>Unfortunately your request for <b>{{.quantity}} x {{.product_name}}</b> was rejected.
Contact support if you believe this is an error.</p>`,

	"unavailable": `<p>Hello,</p>
<p><b>{{.product_name}}</b> is no longer available. Our team will contact you
about your open request shortly.</p>`,

	"resolution_complete": `<p>Hello,</p>
<p>Your request for <b>{{.product_name}}</b> has been resolved. Thank you for
your patience.</p>`,
}

const genericTemplate = `<p>Hello,</p>
<p>There is an update on your request for <b>{{.product_name}}</b>. Log in to
the portal for details.</p>`

func renderTemplate(name string, props map[string]interface{}) (string, error) {
	raw, ok := bodyTemplates[name]
	if !ok {
		raw = genericTemplate
	}

	tmpl, err := template.New(name).Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, props); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
