package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	backendUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lifeos",
		Subsystem: "shell",
		Name:      "backend_up",
		Help:      "Whether a backend process handle is currently tracked (1=tracked, 0=idle).",
	})

	backendSpawns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lifeos",
		Subsystem: "shell",
		Name:      "backend_spawns_total",
		Help:      "Total number of backend processes spawned.",
	})

	backendSpawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lifeos",
		Subsystem: "shell",
		Name:      "backend_spawn_failures_total",
		Help:      "Total number of backend spawn attempts that failed.",
	})

	backendTerminations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lifeos",
		Subsystem: "shell",
		Name:      "backend_terminations_total",
		Help:      "Total number of termination signals delivered to the backend.",
	})

	notifications = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lifeos",
		Subsystem: "shell",
		Name:      "notifications_total",
		Help:      "Total number of notifications forwarded to the operating system.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lifeos",
		Subsystem: "shell",
		Name:      "build_info",
		Help:      "Build metadata for the running shell binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(backendUp, backendSpawns, backendSpawnFailures, backendTerminations, notifications, buildInfo)
}

// Registry returns the Prometheus registry containing all shell metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetBackendUp records whether a backend handle is tracked.
func SetBackendUp(up bool) {
	value := 0.0
	if up {
		value = 1.0
	}
	backendUp.Set(value)
}

// IncBackendSpawn increments the spawn counter.
func IncBackendSpawn() {
	backendSpawns.Inc()
}

// IncBackendSpawnFailure increments the spawn failure counter.
func IncBackendSpawnFailure() {
	backendSpawnFailures.Inc()
}

// IncBackendTermination increments the termination counter.
func IncBackendTermination() {
	backendTerminations.Inc()
}

// IncNotification increments the notification counter.
func IncNotification() {
	notifications.Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
