package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storyJobsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adventure_story_jobs_accepted_total",
			Help: "Total number of accepted story generation jobs.",
		},
	)
	choicesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_choices_resolved_total",
			Help: "Total number of resolved story choices.",
		},
		[]string{"status"},
	)
)
