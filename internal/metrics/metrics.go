package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registrations *prometheus.CounterVec
	ContactsAdded prometheus.Counter
	SpamReports   prometheus.Counter
	Searches      *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spamid_registrations_total",
			Help: "Registrations by outcome: created for new numbers, upgraded for former placeholders",
		}, []string{"outcome"}),
		ContactsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "spamid_contacts_added_total",
			Help: "Total number of contact edges created",
		}),
		SpamReports: factory.NewCounter(prometheus.CounterOpts{
			Name: "spamid_spam_reports_total",
			Help: "Total number of spam reports accepted",
		}),
		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spamid_searches_total",
			Help: "Searches served by mode",
		}, []string{"mode"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spamid_rejections_total",
			Help: "Requests rejected with a domain error, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementRegistrations(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementContactsAdded() {
	if m == nil {
		return
	}
	m.ContactsAdded.Inc()
}

func (m *Metrics) IncrementSpamReports() {
	if m == nil {
		return
	}
	m.SpamReports.Inc()
}

func (m *Metrics) IncrementSearches(mode string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncrementRejections(kind string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(kind).Inc()
}
