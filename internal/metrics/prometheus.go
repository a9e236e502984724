package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Collectors are created eagerly so the services can record before (or
// without) registration; InitCustomMetrics only exposes them.
var (
	SignInTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_auth_signins_total",
		Help: "Sign-in attempts by method and outcome.",
	}, []string{"method", "outcome"})

	SignUpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_auth_signups_total",
		Help: "Sign-up attempts by outcome.",
	}, []string{"outcome"})

	ProfilesCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_profiles_created_total",
		Help: "Profile records created, by provenance.",
	}, []string{"provider"})

	RedirectOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_redirect_completions_total",
		Help: "Redirect completion outcomes at process start.",
	}, []string{"outcome"})

	SessionEmissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interview_session_emissions_total",
		Help: "Session values delivered to observers.",
	})

	ActiveSubscriptionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "interview_session_subscriptions",
		Help: "Currently registered session observers.",
	})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// InitCustomMetrics registers the collectors with reg.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}
	collectors := map[string]prometheus.Collector{
		"SignInTotal":              SignInTotal,
		"SignUpTotal":              SignUpTotal,
		"ProfilesCreatedTotal":     ProfilesCreatedTotal,
		"RedirectOutcomesTotal":    RedirectOutcomesTotal,
		"SessionEmissionsTotal":    SessionEmissionsTotal,
		"ActiveSubscriptionsGauge": ActiveSubscriptionsGauge,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}
	log.Debug().Msg("Custom Prometheus metrics registered.")
}
