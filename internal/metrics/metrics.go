package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the escalator's collectors. A nil *Recorder records nothing.
type Recorder struct {
	invocations        *prometheus.CounterVec
	updateDuration     *prometheus.HistogramVec
	permissionsGranted prometheus.Counter
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escalator_invocations_total",
			Help: "Total number of function invocations grouped by outcome",
		}, []string{"outcome"}),
		updateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escalator_remote_update_duration_seconds",
			Help:    "Latency of document permission updates against the database API",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		permissionsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escalator_permissions_granted_total",
			Help: "Total number of permission entries added to documents",
		}),
	}
	reg.MustRegister(r.invocations, r.updateDuration, r.permissionsGranted)
	return r
}

// IncInvocation counts one finished invocation. Outcome is "success",
// "skipped" or an error code.
func (r *Recorder) IncInvocation(outcome string) {
	if r == nil {
		return
	}
	r.invocations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveUpdate(d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.updateDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (r *Recorder) AddGranted(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.permissionsGranted.Add(float64(n))
}

// Handler serves the gatherer's metrics in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
