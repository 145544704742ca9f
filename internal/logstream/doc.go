/*
Package logstream funnels log events produced by many isolated workers into
a single ordered consumer without the producers sharing memory or blocking.

# Overview

Transport is a zapcore.Core: any component given a zap logger built on it
produces Events that are queued and forwarded asynchronously, one dispatch
goroutine per attached sink. Events are fully rendered at the producer
(message formatted, fields flattened to strings) so they can cross process
boundaries as-is.

Aggregator is the single consumer. It reads events from a source channel and
redispatches each one to every configured sink (console, WebSocket console,
NATS publisher) until its stop signal fires. Hosted in-process or, via the
bus subpackage, in a dedicated listener process.

# Delivery guarantees

Emit never blocks the caller: a saturated queue drops the event. Close
drains pending events with a bounded timeout; events emitted after Close
begins are best-effort. Logging never causes pipeline failure.
*/
package logstream
