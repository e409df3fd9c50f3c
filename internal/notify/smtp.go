package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/settings"
)

// ErrUnsupportedRecipient is returned when the identifier is not an email address.
var ErrUnsupportedRecipient = errors.New("notify: recipient is not an email address")

const smtpImplicitTLSPort = 465

var subjectTemplates = map[string]*template.Template{
	"signup":    template.Must(template.New("signup").Parse("{{.SiteName}} - Confirm your email")),
	"login":     template.Must(template.New("login").Parse("{{.SiteName}} - Your sign-in code")),
	"screening": template.Must(template.New("screening").Parse("{{.SiteName}} - Your screening verification code")),
	"interview": template.Must(template.New("interview").Parse("{{.SiteName}} - Your interview access code")),
}

var bodyTemplate = template.Must(template.New("body").Parse(`Hello,

Your {{.SiteName}} verification code is:

    {{.Code}}

{{if eq .Purpose "login"}}Use it to sign in to the admin dashboard.{{else if eq .Purpose "signup"}}Use it to finish creating your account.{{else if eq .Purpose "screening"}}Use it to continue your screening application.{{else}}Use it to join your interview.{{end}}
The code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this message.

The {{.SiteName}} Team
`))

// SMTPNotifier emails codes through an SMTP relay.
type SMTPNotifier struct {
	cfg     config.SMTPConfig
	timeout time.Duration
	now     func() time.Time
}

// NewSMTPNotifier constructs an SMTPNotifier.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:     cfg,
		timeout: 15 * time.Second,
		now:     time.Now,
	}
}

// SendOTP renders and sends the code email. Port 465 uses implicit TLS, other ports STARTTLS when offered.
func (n *SMTPNotifier) SendOTP(ctx context.Context, d Delivery) error {
	if !strings.Contains(d.Identifier, "@") {
		return ErrUnsupportedRecipient
	}
	msg, errRender := n.render(d)
	if errRender != nil {
		return errRender
	}
	if errSend := n.send(ctx, d.Identifier, msg); errSend != nil {
		return fmt.Errorf("notify: smtp send: %w", errSend)
	}
	return nil
}

// render builds the RFC 5322 message for d.
func (n *SMTPNotifier) render(d Delivery) ([]byte, error) {
	subjectTmpl, ok := subjectTemplates[d.Purpose]
	if !ok {
		return nil, fmt.Errorf("notify: unknown purpose %q", d.Purpose)
	}
	if strings.TrimSpace(d.SiteName) == "" {
		d.SiteName = settings.SiteName()
	}
	minutes := int(d.ExpiresAt.Sub(n.now()).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	data := struct {
		Delivery
		Minutes int
	}{Delivery: d, Minutes: minutes}

	var subject bytes.Buffer
	if errExec := subjectTmpl.Execute(&subject, data); errExec != nil {
		return nil, errExec
	}
	var body bytes.Buffer
	if errExec := bodyTemplate.Execute(&body, data); errExec != nil {
		return nil, errExec
	}

	headers := []string{
		"From: " + n.from(),
		"To: " + d.Identifier,
		"Subject: " + subject.String(),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
	}
	msg := strings.Join(headers, "\r\n") + strings.ReplaceAll(body.String(), "\n", "\r\n")
	return []byte(msg), nil
}

func (n *SMTPNotifier) from() string {
	if from := strings.TrimSpace(n.cfg.From); from != "" {
		return from
	}
	return n.cfg.Username
}

func (n *SMTPNotifier) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	dialCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	tlsConfig := &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}
	var conn net.Conn
	var errDial error
	if n.cfg.Port == smtpImplicitTLSPort {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, errDial = dialer.DialContext(dialCtx, "tcp", addr)
	} else {
		var dialer net.Dialer
		conn, errDial = dialer.DialContext(dialCtx, "tcp", addr)
	}
	if errDial != nil {
		return errDial
	}
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, errClient := smtp.NewClient(conn, n.cfg.Host)
	if errClient != nil {
		_ = conn.Close()
		return errClient
	}
	defer func() { _ = client.Close() }()

	if n.cfg.Port != smtpImplicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if errTLS := client.StartTLS(tlsConfig); errTLS != nil {
				return errTLS
			}
		}
	}
	if n.cfg.Username != "" {
		if errAuth := client.Auth(smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)); errAuth != nil {
			return errAuth
		}
	}
	if errMail := client.Mail(n.from()); errMail != nil {
		return errMail
	}
	if errRcpt := client.Rcpt(to); errRcpt != nil {
		return errRcpt
	}
	w, errData := client.Data()
	if errData != nil {
		return errData
	}
	if _, errWrite := w.Write(msg); errWrite != nil {
		return errWrite
	}
	if errClose := w.Close(); errClose != nil {
		return errClose
	}
	return client.Quit()
}
