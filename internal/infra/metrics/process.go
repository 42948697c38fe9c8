package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo, cacheLookupsTotal) }

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "press_build_info",
			Help: "Always 1; labels carry the running build.",
		},
		[]string{"version", "commit", "go_version"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Read-through cache lookups by cache and outcome.",
		},
		[]string{"cache", "result"}, // result: hit|miss|bypass
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

// IncCacheRequest counts one lookup. Unknown results are folded into "miss"
// so the label set stays fixed.
func IncCacheRequest(cache, result string) {
	switch result = norm(result); result {
	case "hit", "miss", "bypass":
	default:
		result = "miss"
	}
	cacheLookupsTotal.WithLabelValues(norm(cache), result).Inc()
}
