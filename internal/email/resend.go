package email

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/resend/resend-go/v2"
)

// outgoing is one rendered notification ready for delivery.
type outgoing struct {
	to       string
	subject  string
	template string
	html     string
}

// tag is the Resend tag value for the template, e.g. "eventCreated". Tag
// values only allow letters, digits, underscores and dashes.
func (m outgoing) tag() string {
	return strings.TrimSuffix(m.template, path.Ext(m.template))
}

// deliver hands a rendered message to Resend and returns the provider's
// email id. A rate-limited send is reported, not retried.
func (n *Notifier) deliver(ctx context.Context, msg outgoing) (string, error) {
	if n.client == nil {
		return "", errors.New("resend client not initialized")
	}

	sent, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.config.From,
		To:      []string{msg.to},
		Subject: msg.subject,
		Html:    msg.html,
		Tags:    []resend.Tag{{Name: "template", Value: msg.tag()}},
	})
	if err != nil {
		var limited *resend.RateLimitError
		if errors.As(err, &limited) {
			return "", fmt.Errorf("resend rate limited (limit %s, remaining %s, reset in %ss): %w",
				limited.Limit, limited.Remaining, limited.Reset, err)
		}
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
