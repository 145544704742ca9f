// Package server assembles the batch build service: configuration, the
// log transport and aggregator, the drafting tool adapters, the pipeline
// controller, and the Gin router with its middleware chain.
//
// Construction order matters: the log transport comes up first so every
// later component can log through it, and Close tears things down in
// reverse so queued log events drain before the sinks go away.
package server
