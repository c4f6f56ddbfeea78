package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics aggregates the viewer's instrumentation.
type metrics struct {
	requests       *prometheus.CounterVec
	papersAssigned prometheus.Gauge
	papersTotal    prometheus.Gauge
}

func newMetrics(reg *prometheus.Registry) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confplan",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by path and status.",
		}, []string{"path", "status"}),
		papersAssigned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "confplan",
			Name:      "papers_assigned",
			Help:      "Papers placed into sessions in the served programme.",
		}),
		papersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "confplan",
			Name:      "papers_total",
			Help:      "Papers in the input set of the served programme.",
		}),
	}
}

// middleware counts every request after it completes.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.requests.WithLabelValues(c.FullPath(), strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// observeProgram publishes the assignment counts from the programme
// metadata. JSON round-trips numbers as float64.
func (m *metrics) observeProgram(meta map[string]any) {
	if v, ok := toFloat(meta["papers_assigned"]); ok {
		m.papersAssigned.Set(v)
	}
	if v, ok := toFloat(meta["papers_total"]); ok {
		m.papersTotal.Set(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
