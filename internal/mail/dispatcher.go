// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jotstack/jotstack/internal/config"
	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/metrics"
)

// ErrMailUnavailable is returned while the circuit is open. Handlers map it
// to 503 in production.
var ErrMailUnavailable = errors.New("mail delivery temporarily unavailable")

// Dispatcher sends transactional mail through a channel behind a circuit
// breaker and an outbound rate limit.
type Dispatcher struct {
	channel Channel
	cb      *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter

	frontendURL string
}

// NewDispatcher wraps the channel. The limiter smooths bursts toward the
// SMTP relay; the breaker stops hammering a relay that is failing.
func NewDispatcher(channel Channel, cfg *config.SMTPConfig) *Dispatcher {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mail",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("mail: circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Dispatcher{
		channel:     channel,
		cb:          cb,
		limiter:     rate.NewLimiter(rate.Limit(5), 10), // 5 msg/s sustained, burst 10
		frontendURL: cfg.FrontendURL,
	}
}

// SendOTP delivers a verification code. minutes is the code's TTL, shown to
// the recipient.
func (d *Dispatcher) SendOTP(ctx context.Context, to, name, code string, minutes int) error {
	return d.send(ctx, "otp", otpMessage(to, name, code, minutes))
}

// SendWelcome delivers the post-verification welcome email.
func (d *Dispatcher) SendWelcome(ctx context.Context, to, name string) error {
	return d.send(ctx, "welcome", welcomeMessage(to, name, d.frontendURL))
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg *Message) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limit: %w", err)
	}

	_, err := d.cb.Execute(func() (struct{}, error) {
		return struct{}{}, d.channel.Send(ctx, msg)
	})
	if err != nil {
		metrics.MailFailures.WithLabelValues(d.channel.Name(), kind).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrMailUnavailable
		}
		return fmt.Errorf("send %s mail: %w", kind, err)
	}

	metrics.MailSent.WithLabelValues(d.channel.Name(), kind).Inc()
	return nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
