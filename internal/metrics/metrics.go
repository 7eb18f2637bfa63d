package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RoutesComputed *prometheus.CounterVec
	OracleErrors   prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	DeliveredStops prometheus.Gauge
	RouteStops     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RoutesComputed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "roteirizador_routes_computed_total",
			Help: "Total number of route pipeline runs.",
		}, []string{"status"}),
		OracleErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "roteirizador_oracle_errors_total",
			Help: "Total number of errors received from the sequencing oracle.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roteirizador_oracle_request_duration_seconds",
			Help:    "Duration of requests to the sequencing oracle.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		DeliveredStops: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "roteirizador_delivered_stops",
			Help: "Number of stops marked delivered on the current route.",
		}),
		RouteStops: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "roteirizador_route_stops",
			Help: "Number of stops on the current route.",
		}),
	}
}
