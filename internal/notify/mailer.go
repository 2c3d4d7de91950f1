package notify

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Mailer delivers lifecycle notifications. Implementations must be safe for
// concurrent use. Delivery failures never affect the transition that
// triggered them; callers log and continue.
type Mailer interface {
	// SendVerificationCode delivers a newly issued or rotated code to the
	// mosque contact address.
	SendVerificationCode(to, mosqueName, code string, expiresAt time.Time) error
	// SendStatusUpdate informs an applicant about a lifecycle status change.
	SendStatusUpdate(to, name, status, reason string) error
	// SendBreachAlert warns the incumbent admin that their mosque's code was
	// rotated after a reuse attempt.
	SendBreachAlert(to, mosqueName, newCode string, expiresAt time.Time) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a Mailer over the given SMTP relay.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPMailer) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("notify: send %q to %s: %w", subject, to, err)
	}
	return nil
}

// SendVerificationCode delivers a new verification code.
func (s *SMTPMailer) SendVerificationCode(to, mosqueName, code string, expiresAt time.Time) error {
	body := fmt.Sprintf(`
		<h3>Verification code for %s</h3>
		<p>The current admin verification code is <strong>%s</strong>.</p>
		<p>It is valid until %s. Any previous code is no longer accepted.</p>
	`, mosqueName, code, expiresAt.Format("2 Jan 2006 15:04 MST"))
	return s.send(to, fmt.Sprintf("Verification code for %s", mosqueName), body)
}

// SendStatusUpdate informs an applicant about a status change.
func (s *SMTPMailer) SendStatusUpdate(to, name, status, reason string) error {
	body := fmt.Sprintf(`
		<h3>Application update</h3>
		<p>Assalamu alaikum %s,</p>
		<p>Your mosque admin application status is now: <strong>%s</strong>.</p>
	`, name, status)
	if reason != "" {
		body += fmt.Sprintf("<p>Note from the reviewer: %s</p>", reason)
	}
	return s.send(to, "Your mosque admin application", body)
}

// SendBreachAlert warns the incumbent admin after a breach rotation.
func (s *SMTPMailer) SendBreachAlert(to, mosqueName, newCode string, expiresAt time.Time) error {
	body := fmt.Sprintf(`
		<h3>Security notice for %s</h3>
		<p>Someone presented your mosque's verification code while your
		account is active, so the code was rotated automatically.</p>
		<p>The new code is <strong>%s</strong>, valid until %s.</p>
	`, mosqueName, newCode, expiresAt.Format("2 Jan 2006 15:04 MST"))
	return s.send(to, fmt.Sprintf("Verification code rotated for %s", mosqueName), body)
}

// NoopMailer discards all notifications. Used when SMTP is not configured
// and in tests.
type NoopMailer struct{}

// SendVerificationCode implements Mailer.
func (NoopMailer) SendVerificationCode(to, mosqueName, code string, expiresAt time.Time) error {
	log.Debugf("notify: drop verification code mail to %s (smtp disabled)", to)
	return nil
}

// SendStatusUpdate implements Mailer.
func (NoopMailer) SendStatusUpdate(to, name, status, reason string) error {
	log.Debugf("notify: drop status mail to %s (smtp disabled)", to)
	return nil
}

// SendBreachAlert implements Mailer.
func (NoopMailer) SendBreachAlert(to, mosqueName, newCode string, expiresAt time.Time) error {
	log.Debugf("notify: drop breach alert mail to %s (smtp disabled)", to)
	return nil
}
