package stats

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus expõe os eventos como weather_gateway_pipeline_events_total{outcome}.
//
// A chave do cliente não vira label (cardinalidade).
type Prometheus struct {
	events *prometheus.CounterVec
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_gateway",
			Name:      "pipeline_events_total",
			Help:      "Total pipeline outcomes by stage.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(p.events)
	// inicializa as séries para aparecerem zeradas no /metrics
	for _, o := range Outcomes {
		p.events.WithLabelValues(string(o))
	}
	return p
}

func (p *Prometheus) Record(_ context.Context, ev Event) error {
	p.events.WithLabelValues(string(ev.Outcome)).Inc()
	return nil
}
