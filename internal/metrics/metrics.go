// Package metrics exposes the domain counters shared by the services.
package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "balancehub"

var (
	once sync.Once

	registrations  *prometheus.CounterVec
	verifications  *prometheus.CounterVec
	passwordResets *prometheus.CounterVec
	catFactsSent   *prometheus.CounterVec
)

func initCollectors() {
	once.Do(func() {
		registrations = register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_registration_total",
			Help:      "User registrations by outcome",
		}, []string{"status"}))

		verifications = register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_verifications_total",
			Help:      "Email verification attempts by outcome",
		}, []string{"status"}))

		passwordResets = register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_total",
			Help:      "Password reset requests and completions by outcome",
		}, []string{"status"}))

		catFactsSent = register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cat_facts_sent_total",
			Help:      "Daily cat fact emails by outcome",
		}, []string{"status"}))
	})
}

func register(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

// Registration counts a registration attempt. status is success or duplicate.
func Registration(status string) {
	initCollectors()
	registrations.WithLabelValues(status).Inc()
}

// Verification counts an email verification attempt.
func Verification(status string) {
	initCollectors()
	verifications.WithLabelValues(status).Inc()
}

// PasswordReset counts a password reset event.
func PasswordReset(status string) {
	initCollectors()
	passwordResets.WithLabelValues(status).Inc()
}

// CatFactSent counts one delivery attempt of the daily fact.
func CatFactSent(status string) {
	initCollectors()
	catFactsSent.WithLabelValues(status).Inc()
}
