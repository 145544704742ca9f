// Package main is the standalone log listener.
//
// It subscribes to the NATS subject the batch service publishes its log
// events on and renders them to stdout, giving an operator a live console
// for runs happening in another process (or on another machine).
//
// Usage:
//
//	NATS_URL=nats://broker:4222 LOG_SUBJECT=batchd.logs ./logagent
//
// Signals:
//   - SIGINT, SIGTERM: drain and exit
package main
