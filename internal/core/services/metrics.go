package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus pipeline metrics.
var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_messages_total",
			Help: "Total number of processed messages, by pipeline route.",
		},
		[]string{"route"},
	)
	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linebot_pipeline_duration_seconds",
			Help:    "Message pipeline duration in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_searches_total",
			Help: "Total number of web searches, by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal)
	prometheus.MustRegister(pipelineDuration)
	prometheus.MustRegister(searchesTotal)
}
