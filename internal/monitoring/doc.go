/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the batch
service, tracking HTTP requests, pipeline runs, validation outcomes, and
build worker activity.

# Features

- HTTP request metrics (latency, throughput)
- Validation metrics (items checked, accepted, rejected by reason)
- Build worker utilization
- Run lifecycle metrics (active, totals, failures, duration)
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Wire into the pipeline as an observer
	ctrl := pipeline.NewController(check, action, logger,
		pipeline.WithObserver(metrics))

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
