package room

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_commits_total",
			Help: "Successful versioned room writes",
		},
		[]string{"game_type", "op"},
	)
	Conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_version_conflicts_total",
			Help: "Conditional writes that lost the version race",
		},
		[]string{"op"},
	)
	RuleViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_rule_violations_total",
			Help: "Player actions rejected by game rules",
		},
		[]string{"game_type"},
	)
	ActiveClocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reaction_clocks_active",
			Help: "Reaction rooms with a running clock",
		},
	)
)

func init() {
	prometheus.MustRegister(Commits)
	prometheus.MustRegister(Conflicts)
	prometheus.MustRegister(RuleViolations)
	prometheus.MustRegister(ActiveClocks)
}
