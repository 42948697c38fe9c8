package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(usersRegisteredTotal, loginAttemptsTotal) }

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Accounts created through registration.",
		},
	)

	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"}, // 'success', 'failure', 'limited'
	)
)

func IncUserRegistered() { usersRegisteredTotal.Inc() }

func IncLoginAttempt(result string) {
	loginAttemptsTotal.WithLabelValues(norm(result)).Inc()
}
