package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records the dispatch pipeline outcomes.
type DispatchMetrics struct {
	offersOpened  *prometheus.CounterVec
	claims        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	offersOpened := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_offers_opened_total",
		Help: "Candidate offers opened, labeled by candidate role.",
	}, []string{"role"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_claims_total",
		Help: "Offer claim attempts by outcome (won/lost).",
	}, []string{"role", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_status_transitions_total",
		Help: "Service request status transitions by target status.",
	}, []string{"status"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_settlements_total",
		Help: "Settlement runs by delivery type.",
	}, []string{"delivery_type"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notifications_total",
		Help: "Notification deliveries by channel (socket/push/none/failed).",
	}, []string{"channel"})
	reg.MustRegister(offersOpened, claims, transitions, settlements, notifications)
	return &DispatchMetrics{
		offersOpened:  offersOpened,
		claims:        claims,
		transitions:   transitions,
		settlements:   settlements,
		notifications: notifications,
	}
}

// AddOffersOpened records freshly opened candidate offers.
func (d *DispatchMetrics) AddOffersOpened(role string, count int) {
	if d == nil || d.offersOpened == nil || count <= 0 {
		return
	}
	d.offersOpened.WithLabelValues(normalizeLabel(role)).Add(float64(count))
}

// IncClaim records a claim attempt outcome.
func (d *DispatchMetrics) IncClaim(role, outcome string) {
	if d == nil || d.claims == nil {
		return
	}
	d.claims.WithLabelValues(normalizeLabel(role), normalizeLabel(outcome)).Inc()
}

// IncTransition records a status transition.
func (d *DispatchMetrics) IncTransition(status string) {
	if d == nil || d.transitions == nil {
		return
	}
	d.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncSettlement records a completed settlement run.
func (d *DispatchMetrics) IncSettlement(deliveryType string) {
	if d == nil || d.settlements == nil {
		return
	}
	d.settlements.WithLabelValues(normalizeLabel(deliveryType)).Inc()
}

// IncNotification records which channel carried a notification.
func (d *DispatchMetrics) IncNotification(channel string) {
	if d == nil || d.notifications == nil {
		return
	}
	d.notifications.WithLabelValues(normalizeLabel(channel)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
