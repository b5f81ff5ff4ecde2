package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActivityEvents counts recorder calls by action and result ("ok" or "error").
	ActivityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlib_activity_events_total",
			Help: "Total number of activity log writes by action and result.",
		},
		[]string{"action", "result"},
	)

	// FallbackResponses counts read requests served from static mock data.
	FallbackResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlib_fallback_responses_total",
			Help: "Total number of responses served from fallback data because the database was unavailable.",
		},
		[]string{"resource"},
	)

	ReviewsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptlib_reviews_submitted_total",
		Help: "Total number of reviews accepted.",
	})

	PromptUsesTracked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptlib_prompt_uses_total",
		Help: "Total number of successful usage increments.",
	})
)
