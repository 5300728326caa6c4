// Package contact relays contact-form messages to EmailJS.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/httputil"
	"github.com/wonny/imi/pkg/logger"
	"github.com/wonny/imi/pkg/redis"
)

// FailureMessage is the user-visible text shown when the relay fails
const FailureMessage = "Something went wrong sending your message. Please try again later."

var (
	ErrInvalidMessage     = errors.New("invalid contact message")
	ErrRelayFailed        = errors.New(FailureMessage)
	ErrRelayNotConfigured = errors.New("contact relay not configured")
)

// Message is a contact-form submission
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Validate rejects empty name/message and malformed e-mail
func (m Message) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidMessage)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(m.Email))
	if err != nil || addr.Name != "" {
		return fmt.Errorf("%w: email is malformed", ErrInvalidMessage)
	}
	return nil
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	AccessToken    string         `json:"accessToken,omitempty"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	Title   string `json:"title"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Relay sends messages through the EmailJS REST API
// ⭐ SSOT: 메일 전송은 Relay에서만
type Relay struct {
	cfg    config.EmailJSConfig
	http   *httputil.Client
	logger *logger.Logger
	now    func() time.Time
}

// NewRelay creates a relay; limiter may be nil
func NewRelay(cfg config.EmailJSConfig, log *logger.Logger, limiter *redis.RateLimiter) *Relay {
	hc := httputil.NewWithTimeout(log, 10*time.Second).WithRetry(1, 500*time.Millisecond)
	if limiter != nil {
		hc = hc.WithRateLimiter(limiter, redis.EmailJSRateLimit)
	}
	return &Relay{
		cfg:    cfg,
		http:   hc,
		logger: log.WithField("component", "contact"),
		now:    time.Now,
	}
}

// Send validates and relays m. The caller only ever sees the sentinels.
func (r *Relay) Send(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !r.cfg.Configured() {
		return ErrRelayNotConfigured
	}

	title := m.Title
	if title == "" {
		title = "Contact form"
	}

	req := sendRequest{
		ServiceID:   r.cfg.ServiceID,
		TemplateID:  r.cfg.TemplateID,
		UserID:      r.cfg.PublicKey,
		AccessToken: r.cfg.AccessToken,
		TemplateParams: templateParams{
			Title:   title,
			Name:    strings.TrimSpace(m.Name),
			Email:   strings.TrimSpace(m.Email),
			Message: m.Message,
			Time:    r.now().UTC().Format(time.RFC1123),
		},
	}

	if err := r.http.DoJSON(ctx, http.MethodPost, r.cfg.BaseURL+"/api/v1.0/email/send", req, nil); err != nil {
		r.logger.WithError(err).Error("EmailJS send failed")
		return ErrRelayFailed
	}

	r.logger.WithField("name", req.TemplateParams.Name).Info("Contact message relayed")
	return nil
}
