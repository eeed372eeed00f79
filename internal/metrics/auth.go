package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package so services and HTTP
// packages can share counters without import cycles.

var (
	LoginsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accountd_logins_total",
		Help: "Logins exitosos",
	})

	LoginFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accountd_login_failures_total",
		Help: "Intentos de login fallidos",
	})

	ActivationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accountd_activations_total",
		Help: "Cuentas activadas",
	})

	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accountd_emails_sent_total",
		Help: "Emails enviados por tipo",
	}, []string{"kind"})

	ChallengesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accountd_passwordless_challenges_issued_total",
		Help: "Challenges passwordless emitidos",
	})

	ChallengesRedeemedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accountd_passwordless_challenges_redeemed_total",
		Help: "Challenges passwordless canjeados",
	})
)

// Register registers the auth metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LoginsTotal,
		LoginFailuresTotal,
		ActivationsTotal,
		EmailsSentTotal,
		ChallengesIssuedTotal,
		ChallengesRedeemedTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
