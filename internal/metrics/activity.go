package metrics

import "github.com/prometheus/client_golang/prometheus"

// ActivityMetrics counts user-facing domain events.
type ActivityMetrics struct {
	Recipes       *prometheus.CounterVec
	Relations     *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	Registrations prometheus.Counter
	CartDownloads *prometheus.CounterVec
}

// NewActivityMetrics creates and registers activity metrics on the given registry.
func NewActivityMetrics(reg prometheus.Registerer) *ActivityMetrics {
	m := &ActivityMetrics{
		Recipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_total",
			Help:      "Recipe writes, by action (create, update, delete).",
		}, []string{"action"}),
		Relations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relation_changes_total",
			Help:      "Favorite, cart and subscription changes, by relation and action.",
		}, []string{"relation", "action"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Token login attempts, by result.",
		}, []string{"result"}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Number of registered users.",
		}),
		CartDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_downloads_total",
			Help:      "Shopping list downloads, by format.",
		}, []string{"format"}),
	}

	reg.MustRegister(m.Recipes, m.Relations, m.Logins, m.Registrations, m.CartDownloads)
	return m
}
