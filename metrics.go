package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics exposed by the application.

// httpRequestsTotal tracks HTTP requests partitioned by path pattern, method
// and status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vaichover_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// providerRequestsTotal tracks outbound provider fetches by provider, dataset
// and outcome (ok, error, cache_hit).
var providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vaichover_provider_requests_total",
	Help: "Total number of provider fetches by provider, dataset and outcome.",
}, []string{"provider", "dataset", "outcome"})

// cacheOpsTotal tracks cache operations by op and outcome.
var cacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vaichover_cache_ops_total",
	Help: "Total number of cache operations by op and outcome.",
}, []string{"op", "outcome"})
