/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the warden
service, tracking HTTP requests, dispatched commands, game driver calls,
snapshot activity, and system metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Command metrics (per verb, per outcome)
- Game driver call metrics (duration, status)
- Session lifecycle metrics (active gauge, starts, stops)
- Snapshot metrics (per trigger, failures, store size)
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.SetSessionActive(true)
	metrics.RecordSnapshot("scheduled")

	// Time driver operations
	timer := monitoring.NewTimer(metrics, "save_code")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
