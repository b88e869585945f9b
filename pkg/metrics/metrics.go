package metrics

import (
	"defenceblocker/pkg/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gauges describing the last generation run
type Metrics struct {
	registry       *prometheus.Registry
	rules          *prometheus.GaugeVec
	targetRules    *prometheus.GaugeVec
	feedHosts      *prometheus.GaugeVec
	exclusions     prometheus.Gauge
	duration       prometheus.Gauge
	published      prometheus.Gauge
	lastSuccessful prometheus.Gauge
}

// New returns Metrics registered on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defenceblocker_rules",
				Help: "Rules in the generated document by kind",
			},
			[]string{"kind"},
		),
		targetRules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defenceblocker_target_fuzzy_rules",
				Help: "Fuzzy rules generated per protected domain",
			},
			[]string{"target"},
		),
		feedHosts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defenceblocker_feed_hosts",
				Help: "Hosts kept from each feed after normalization",
			},
			[]string{"feed"},
		),
		exclusions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "defenceblocker_exclusion_hosts",
			Help: "Hosts excluded from every fuzzy rule, whitelist feed and protected domains merged",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "defenceblocker_run_duration_seconds",
			Help: "Duration of the last generation run",
		}),
		published: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "defenceblocker_published",
			Help: "1 if the last run published a new document",
		}),
		lastSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "defenceblocker_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
	m.registry.MustRegister(m.rules, m.targetRules, m.feedHosts, m.exclusions, m.duration, m.published, m.lastSuccessful)
	return m
}

// Observe records a run summary
func (m *Metrics) Observe(s *model.Summary) {
	m.rules.WithLabelValues("exact").Set(1)
	m.rules.WithLabelValues("fuzzy").Set(float64(s.FuzzyRules))
	for target, n := range s.RulesPerTarget {
		m.targetRules.WithLabelValues(target).Set(float64(n))
	}
	m.feedHosts.WithLabelValues("blacklist").Set(float64(s.Blacklisted))
	m.feedHosts.WithLabelValues("whitelist").Set(float64(s.WhitelistFeed))
	m.exclusions.Set(float64(s.Whitelisted))
	m.duration.Set(s.Duration.Seconds())
	if s.Published {
		m.published.Set(1)
	} else {
		m.published.Set(0)
	}
	m.lastSuccessful.SetToCurrentTime()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
