// Package metrics exposes ingestion counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ingest outcome labels.
const (
	ResultStored            = "stored"
	ResultMalformed         = "malformed"
	ResultDuplicateMatch    = "duplicate_match"
	ResultDuplicateGrouping = "duplicate_grouping"
	ResultError             = "error"
)

// Ingest holds the counters updated by the ingestion pipeline.
type Ingest struct {
	Reports    *prometheus.CounterVec
	Records    prometheus.Counter
	Identities prometheus.Counter
}

// NewIngest creates the ingest counters and registers them on reg. A nil reg
// leaves them unregistered.
func NewIngest(reg prometheus.Registerer) *Ingest {
	m := &Ingest{
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roundtable",
			Name:      "ingest_reports_total",
			Help:      "Match reports submitted for ingestion, by outcome.",
		}, []string{"result"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roundtable",
			Name:      "ingest_records_total",
			Help:      "Player match records written.",
		}),
		Identities: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roundtable",
			Name:      "ingest_identities_created_total",
			Help:      "Player identities created implicitly during ingestion.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Reports, m.Records, m.Identities)
	}
	return m
}

// Observe records one ingest outcome.
func (m *Ingest) Observe(result string, records, identities int) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues(result).Inc()
	m.Records.Add(float64(records))
	m.Identities.Add(float64(identities))
}
