// Package metrics holds Prometheus instruments used across the routing
// pipeline.  All collectors are registered with the global registry, so
// importing this package anywhere is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoutesCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_cache_hits_total",
			Help: "Cumulative number of routes cache lookups that hit.",
		})

	RoutesCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_cache_misses_total",
			Help: "Cumulative number of routes cache lookups that missed.",
		})

	RoutesCacheClearsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_cache_clears_total",
			Help: "Cumulative number of bulk routes cache invalidations.",
		})

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "published_requests_total",
			Help: "Prepared requests partitioned by outcome (content, redirect, notfound).",
		}, []string{"outcome"})

	FinderHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_finder_hits_total",
			Help: "Content finder successes partitioned by finder name.",
		}, []string{"finder"})

	LoopBreakerTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_loop_breaker_total",
			Help: "Number of requests aborted by the redirect/not-found loop bound.",
		})

	DomainReloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_reloads_total",
			Help: "Cumulative number of domain table reloads.",
		})

	ContentRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_refresh_total",
			Help: "Cumulative number of published content tree refreshes.",
		})
)

func init() {
	prometheus.MustRegister(
		RoutesCacheHitsTotal,
		RoutesCacheMissesTotal,
		RoutesCacheClearsTotal,
		RequestsTotal,
		FinderHitsTotal,
		LoopBreakerTotal,
		DomainReloadsTotal,
		ContentRefreshTotal,
	)
}
