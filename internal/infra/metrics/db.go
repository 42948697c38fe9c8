package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(dbPoolConns, dbPoolAcquireWait, dbPoolEmptyAcquires) }

// PoolStats is a point-in-time snapshot of the Postgres connection pool.
type PoolStats struct {
	Total, Idle, InUse, Max int32
	AcquireWait            time.Duration
	EmptyAcquires          int64
}

var dbPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_pool_connections",
		Help: "Connections in the Postgres pool by state.",
	},
	[]string{"state"}, // total|idle|in_use|max
)

var dbPoolAcquireWait = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "db_pool_acquire_wait_seconds",
	Help: "Cumulative time spent waiting for a pooled connection.",
})

var dbPoolEmptyAcquires = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "db_pool_empty_acquires",
	Help: "Cumulative acquires that had to wait because the pool was empty.",
})

func SetDBPoolStats(s PoolStats) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(s.InUse))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolAcquireWait.Set(s.AcquireWait.Seconds())
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
}
