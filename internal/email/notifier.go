package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/zeelus/server/internal/config"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

const sendTimeout = 15 * time.Second

const (
	subjectSignup       = "Welcome to Zeelus!"
	subjectLogin        = "Welcome Back to Zeelus!"
	subjectEventCreated = "Event Creation"
	subjectEventUpdated = "Event Updated"
)

type signupData struct {
	Name       string
	Email      string
	SignupDate string
	Year       int
}

type loginData struct {
	Name      string
	Email     string
	LoginTime string
	Year      int
}

type eventData struct {
	CreatorName string
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string
	Year        int
}

// Notifier renders and sends account and event notifications. Sends run in
// the background; failures are logged and never reach the caller.
type Notifier struct {
	config    config.EmailConfig
	templates *template.Template
	client    *resend.Client
	logger    zerolog.Logger
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewNotifier(cfg config.EmailConfig, logger zerolog.Logger) (*Notifier, error) {
	var client *resend.Client
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return newNotifier(cfg, client, logger)
}

func newNotifier(cfg config.EmailConfig, client *resend.Client, logger zerolog.Logger) (*Notifier, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Notifier{
		config:    cfg,
		templates: templates,
		client:    client,
		logger:    logger.With().Str("component", "email").Logger(),
		now:       time.Now,
	}, nil
}

func (n *Notifier) NotifySignup(user users.User) {
	now := n.now()
	n.dispatch(user.Email, subjectSignup, "signup.html", signupData{
		Name:       user.Name,
		Email:      user.Email,
		SignupDate: now.Format("Mon Jan 02 2006"),
		Year:       now.Year(),
	})
}

func (n *Notifier) NotifyLogin(user users.User) {
	now := n.now()
	n.dispatch(user.Email, subjectLogin, "login.html", loginData{
		Name:      user.Name,
		Email:     user.Email,
		LoginTime: now.UTC().Format("2006-01-02 15:04:05 MST"),
		Year:      now.Year(),
	})
}

func (n *Notifier) NotifyEventCreated(user users.User, event events.Event) {
	n.dispatch(user.Email, subjectEventCreated, "eventCreated.html", n.eventData(user, event))
}

func (n *Notifier) NotifyEventUpdated(user users.User, event events.Event) {
	n.dispatch(user.Email, subjectEventUpdated, "eventUpdated.html", n.eventData(user, event))
}

// Wait blocks until every in-flight send has finished or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) eventData(user users.User, event events.Event) eventData {
	return eventData{
		CreatorName: user.Name,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date.Format("Mon Jan 02 2006"),
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		Year:        n.now().Year(),
	}
}

// dispatch renders synchronously so template bugs surface in the log next to
// the request, then sends in a goroutine tracked by Wait.
func (n *Notifier) dispatch(to, subject, templateName string, data any) {
	logger := n.logger.With().Str("to", to).Str("template", templateName).Logger()

	if err := validateEmailAddress(to); err != nil {
		logger.Warn().Err(err).Msg("invalid recipient, skipping email")
		metrics.EmailsSent.WithLabelValues(templateName, "skipped").Inc()
		return
	}

	body, err := n.render(templateName, data)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render email template")
		return
	}

	if !n.config.Enabled {
		logger.Info().Str("subject", subject).Msg("email service disabled, skipping email")
		metrics.EmailsSent.WithLabelValues(templateName, "skipped").Inc()
		return
	}

	msg := outgoing{to: to, subject: subject, template: templateName, html: body}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		id, err := n.deliver(ctx, msg)
		if err != nil {
			logger.Error().Err(err).Msg("failed to send email")
			metrics.EmailsSent.WithLabelValues(templateName, "failed").Inc()
			return
		}
		logger.Info().Str("email_id", id).Msg("email sent")
		metrics.EmailsSent.WithLabelValues(templateName, "sent").Inc()
	}()
}

func (n *Notifier) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := n.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
