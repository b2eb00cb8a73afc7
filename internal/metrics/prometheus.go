package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitonboard/backend/pkg/circuitbreaker"
)

var (
	WorkoutDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitonboard_workout_generation_duration_seconds",
			Help:    "Workout generation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"bucket"},
	)

	WorkoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_workout_total",
			Help: "Total number of workout generations",
		},
		[]string{"status"},
	)

	ConfidenceScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitonboard_confidence_score",
			Help:    "Overall confidence of scored workouts",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"level"},
	)

	FactorScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitonboard_confidence_factor_score",
			Help:    "Individual confidence factor scores",
			Buckets: []float64{0.2, 0.4, 0.6, 0.8, 1.0},
		},
		[]string{"factor"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CandidateCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitonboard_exercise_candidates_count",
			Help:    "Number of exercise graph candidates per generation",
			Buckets: []float64{0, 1, 5, 10, 15, 25},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_feedback_total",
			Help: "Total workout feedback submissions",
		},
		[]string{"helpful"},
	)

	UserSatisfaction = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitonboard_satisfaction_rating",
			Help: "Average user rating of generated workouts",
		},
	)

	WaiversSigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_waivers_signed_total",
			Help: "Total signed waivers",
		},
		[]string{"medical_flags"},
	)

	SelectionChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_selection_changes_total",
			Help: "Hierarchical selection edits",
		},
		[]string{"catalog", "op"},
	)

	GraphExercises = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitonboard_graph_exercises_total",
			Help: "Exercises in the exercise graph",
		},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitonboard_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	DependencyRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitonboard_dependency_retries_total",
			Help: "Retried calls to the plan model and the exercise graph",
		},
		[]string{"dependency"},
	)
)

// Durable counters live in Redis next to the collectors above, so their
// totals survive restarts and are shared between instances.
const (
	CounterWorkoutsGenerated = "workouts_generated"
	CounterCacheHits         = "workout_cache_hits"
	CounterCacheMisses       = "workout_cache_misses"
	CounterWaiversSigned     = "waivers_signed"
)

var DurableCounters = []string{
	CounterWorkoutsGenerated,
	CounterCacheHits,
	CounterCacheMisses,
	CounterWaiversSigned,
}

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WorkoutDuration,
			WorkoutTotal,
			ConfidenceScore,
			FactorScore,
			LLMTokensUsed,
			CandidateCount,
			CacheHits,
			CacheMisses,
			FeedbackTotal,
			UserSatisfaction,
			WaiversSigned,
			SelectionChanges,
			GraphExercises,
			BreakerState,
			DependencyRetries,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// BreakerStateChanged matches circuitbreaker.Config.OnStateChange.
func BreakerStateChanged(name string, _ circuitbreaker.State, to circuitbreaker.State) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}

// RetryObserver matches retry.Config.OnRetry.
func RetryObserver(dependency string) func(int, error) {
	retries := DependencyRetries.WithLabelValues(dependency)
	return func(int, error) { retries.Inc() }
}

func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
