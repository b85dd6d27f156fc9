package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askdgp_queries_total",
		Help: "Number of user queries processed.",
	})
	exactHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askdgp_retrieval_exact_hits_total",
		Help: "Queries answered from the exact substring pass.",
	})
	fuzzyFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askdgp_retrieval_fuzzy_fallbacks_total",
		Help: "Queries that fell back to fuzzy matching.",
	})
	emptyRetrievals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askdgp_retrieval_empty_total",
		Help: "Queries for which no relevant information was found.",
	})
	ticketsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askdgp_tickets_logged_total",
		Help: "Ticket summaries generated for escalation.",
	})
	composerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askdgp_composer_failures_total",
		Help: "Generation failures surfaced as error turns.",
	})
	composeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "askdgp_compose_duration_seconds",
		Help:    "End-to-end duration of one query/response cycle.",
		Buckets: prometheus.DefBuckets,
	})
)
