package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var catalogMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filesig_catalog_mutations_total",
	Help: "Catalog mutations by operation and result",
}, []string{"op", "result"})

var catalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filesig_catalog_lookups_total",
	Help: "Extension lookups by result",
}, []string{"result"})

var fileChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filesig_file_checks_total",
	Help: "File checks by outcome",
}, []string{"status"})

var catalogExtensions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "filesig_catalog_extensions",
	Help: "Number of distinct extensions in the catalog",
})

var snapshotsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filesig_snapshots_total",
	Help: "Snapshot attempts by result",
}, []string{"result"})
