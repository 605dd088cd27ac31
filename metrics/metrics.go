// Package metrics exposes prometheus counters for the authentication
// surface: login outcomes through the activity stream, and session
// validation outcomes through a validator decorator.
package metrics

import (
	"context"
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/middleware/jwtware"
)

// Collector owns the registry and the counters. One instance per
// process, wired into the activity sink and the session guard.
type Collector struct {
	registry *prometheus.Registry

	logins        *prometheus.CounterVec
	validations   *prometheus.CounterVec
	registrations prometheus.Counter
	logouts       prometheus.Counter
	supersessions prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: registry,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edumarket_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edumarket_session_validations_total",
			Help: "Session validations by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edumarket_registrations_total",
			Help: "Accounts created.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edumarket_logouts_total",
			Help: "Sessions revoked by their owner.",
		}),
		supersessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edumarket_session_supersessions_total",
			Help: "Sessions displaced by a newer login on the same device class.",
		}),
	}

	registry.MustRegister(c.logins, c.validations, c.registrations, c.logouts, c.supersessions)

	return c
}

// Handler serves the registry in the prometheus text format, adapted
// for fiber.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}

// Sink adapts the collector to the activity stream. Chain it with the
// persisting sink so metrics and the audit trail see the same events.
func (c *Collector) Sink() auth.ActivitySink {
	return auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		switch event.EventType {
		case auth.ActivityEventLoginSuccess:
			c.logins.WithLabelValues("success").Inc()
		case auth.ActivityEventLoginFailure:
			c.logins.WithLabelValues("failure").Inc()
		case auth.ActivityEventLogout:
			c.logouts.Inc()
		case auth.ActivityEventSessionSuperseded:
			c.supersessions.Inc()
		case auth.ActivityEventRegistration:
			c.registrations.Inc()
		}
		return nil
	})
}

// InstrumentValidator decorates the session guard's validator, counting
// every validation by outcome before passing the result through.
func (c *Collector) InstrumentValidator(next jwtware.SessionValidator) jwtware.SessionValidator {
	return instrumentedValidator{next: next, collector: c}
}

type instrumentedValidator struct {
	next      jwtware.SessionValidator
	collector *Collector
}

func (v instrumentedValidator) Validate(c *fiber.Ctx, raw string) (jwtware.AuthClaims, error) {
	claims, err := v.next.Validate(c, raw)
	v.collector.validations.WithLabelValues(validationOutcome(err)).Inc()
	return claims, err
}

func validationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, auth.ErrTokenMissing):
		return "missing"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrSessionSuperseded):
		return "superseded"
	default:
		return "rejected"
	}
}
