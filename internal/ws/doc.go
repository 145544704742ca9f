// Package ws streams aggregated log events to browser clients.
//
// The Hub is registered as a sink on the log aggregator; every event the
// pipeline emits is fanned out to each connected WebSocket client as a
// JSON frame. The stream is one-way and lossy per client: a client that
// cannot keep up misses events instead of slowing the pipeline down.
package ws
