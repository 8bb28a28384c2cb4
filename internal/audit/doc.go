// Package audit consumes the structured events emitted by the resilient
// call layer. Every event becomes a log record with a unique event ID;
// operationally urgent events (circuit transitions to open, exhausted
// fallback chains) are additionally forwarded to an alert notifier.
//
// The package implements the resilient.EventSink contract: Emit never
// blocks the caller's hot path. Alert delivery happens on a background
// worker fed by a bounded queue; when the queue is full, alerts are
// dropped and counted rather than backpressuring admission checks.
package audit
