package storm

import "github.com/prometheus/client_golang/prometheus"

// storeMetrics wraps the optional prometheus counters published by a
// Store. A nil registerer at construction time yields a storeMetrics
// whose observe* methods are no-ops, so callers never need to nil-check
// it.
type storeMetrics struct {
	storeTotal   prometheus.Counter
	getTotal     prometheus.Counter
	updateTotal  prometheus.Counter
	deleteTotal  prometheus.Counter
	bytesWritten prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	if reg == nil {
		return &storeMetrics{}
	}
	m := &storeMetrics{
		storeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm",
			Name:      "store_total",
			Help:      "Number of items persisted via Store.Store.",
		}),
		getTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm",
			Name:      "get_total",
			Help:      "Number of items retrieved via Store.Get.",
		}),
		updateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm",
			Name:      "update_total",
			Help:      "Number of items re-persisted via Store.Update.",
		}),
		deleteTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm",
			Name:      "delete_total",
			Help:      "Number of items removed via Store.Delete.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm",
			Name:      "bytes_written_total",
			Help:      "Total payload bytes written to the data file.",
		}),
	}
	reg.MustRegister(m.storeTotal, m.getTotal, m.updateTotal, m.deleteTotal, m.bytesWritten)
	return m
}

func (m *storeMetrics) observeStore(n int64) {
	if m == nil || m.storeTotal == nil {
		return
	}
	m.storeTotal.Inc()
	m.bytesWritten.Add(float64(n))
}

func (m *storeMetrics) observeGet() {
	if m == nil || m.getTotal == nil {
		return
	}
	m.getTotal.Inc()
}

func (m *storeMetrics) observeUpdate(n int64) {
	if m == nil || m.updateTotal == nil {
		return
	}
	m.updateTotal.Inc()
	m.bytesWritten.Add(float64(n))
}

func (m *storeMetrics) observeDelete() {
	if m == nil || m.deleteTotal == nil {
		return
	}
	m.deleteTotal.Inc()
}
