// Package main is the entry point for the batch build service.
//
// This application validates and ships batches of CAD drawings through an
// external console tool, streaming per-worker log events to connected
// clients and, optionally, over NATS to a standalone listener.
//
// Architecture:
//
//	Client (REST/WebSocket) → Service → Console tool (check + build scripts)
//	                                  → NATS log subject → logagent
//
// The server provides:
//   - REST API for starting, aborting, and inspecting batch runs
//   - WebSocket streaming of aggregated worker logs
//   - Prometheus metrics
//   - Rate limiting
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
