package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus instruments.
type Metrics struct {
	IngestAccepted      prometheus.Counter
	IngestRejected      prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	SensorOnline        prometheus.Gauge
}

// New registers the relay metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IngestAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemon_ingest_accepted_total",
			Help: "Readings accepted by the /update endpoint.",
		}),
		IngestRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemon_ingest_rejected_total",
			Help: "Pushes rejected as malformed.",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemon_notifications_sent_total",
			Help: "Successful liveness notifications.",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemon_notifications_failed_total",
			Help: "Liveness notification deliveries that failed.",
		}),
		SensorOnline: factory.NewGauge(prometheus.GaugeOpts{
			Name: "telemon_sensor_online",
			Help: "1 while the sensor is considered online, 0 otherwise.",
		}),
	}
}

// RecordIngest counts one ingest attempt.
func (m *Metrics) RecordIngest(accepted bool) {
	if accepted {
		m.IngestAccepted.Inc()
	} else {
		m.IngestRejected.Inc()
	}
}

// RecordDelivery counts one notification delivery attempt.
func (m *Metrics) RecordDelivery(ok bool) {
	if ok {
		m.NotificationsSent.Inc()
	} else {
		m.NotificationsFailed.Inc()
	}
}

// RecordStatus reflects a liveness transition.
func (m *Metrics) RecordStatus(online bool) {
	if online {
		m.SensorOnline.Set(1)
	} else {
		m.SensorOnline.Set(0)
	}
}
