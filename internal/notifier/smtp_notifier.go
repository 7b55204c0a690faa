package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends messages as multipart emails with a plain-text and an HTML part.
type SMTPNotifier struct {
	sender mailSender
	from   string
	logger zerolog.Logger
}

// NewSMTPNotifier creates an SMTPNotifier from the notification configuration.
func NewSMTPNotifier(cfg config.NotificationConfig, logger zerolog.Logger) *SMTPNotifier {
	username := cfg.SMTPUsername
	if username == "" {
		username = cfg.SenderEmail
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, username, cfg.SMTPPassword)
	return newSMTPNotifier(dialer, cfg.SenderEmail, logger)
}

func newSMTPNotifier(sender mailSender, from string, logger zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		sender: sender,
		from:   from,
		logger: logger.With().Str("component", "SMTPNotifier").Logger(),
	}
}

// Send delivers msg. An authentication failure is returned wrapping ErrAuthentication.
func (n *SMTPNotifier) Send(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.Address)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	m.AddAlternative("text/html", htmlBody(msg.Body))
	for _, path := range msg.Attachments {
		m.Attach(path)
	}

	if err := n.sender.DialAndSend(m); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return fmt.Errorf("failed to send email to %s: %w", msg.Address, err)
	}

	n.logger.Info().Str("to", msg.Address).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

// escapedMailtoLink matches a contact link after html.EscapeString has run over it.
var escapedMailtoLink = regexp.MustCompile(`&lt;a href=&#34;mailto:([^&<>\s]+)&#34;&gt;([^&<>\s]+)&lt;/a&gt;`)

// htmlBody escapes body for the text/html part, restores mailto contact links
// and turns newlines into breaks. Fetched robots.txt content never renders as markup.
func htmlBody(body string) string {
	escaped := html.EscapeString(body)
	escaped = escapedMailtoLink.ReplaceAllString(escaped, `<a href="mailto:$1">$2</a>`)
	return strings.ReplaceAll(escaped, "\n", "<br>\n")
}

func isAuthError(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "authentication failed")
}
