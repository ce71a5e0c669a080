package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records document store activity. A nil *StoreMetrics is a
// valid no-op recorder.
type StoreMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures prometheus.Counter
	documents       prometheus.Gauge
	uploads         *prometheus.CounterVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return nil
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_store_mutations_total",
		Help: "Document store mutations by operation.",
	}, []string{"op"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_store_persist_failures_total",
		Help: "Collection writes that did not reach durable storage.",
	})
	documents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "document_store_documents",
		Help: "Documents currently held in memory.",
	})
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_uploads_total",
		Help: "Upload attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(mutations, persistFailures, documents, uploads)
	return &StoreMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		documents:       documents,
		uploads:         uploads,
	}
}

// IncMutation counts one add/delete/transition.
func (m *StoreMetrics) IncMutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

// IncPersistFailure counts a failed collection write.
func (m *StoreMetrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

// SetDocuments records the collection size.
func (m *StoreMetrics) SetDocuments(n int) {
	if m == nil {
		return
	}
	m.documents.Set(float64(n))
}

// IncUpload counts an upload attempt with its outcome
// (uploaded, cancelled, failed, busy).
func (m *StoreMetrics) IncUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}
