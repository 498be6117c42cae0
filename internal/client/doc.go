// Package client implements the resilient publishing pipeline to the
// dashboard.
//
// A Client owns exactly one WebSocket connection at a time and drives it
// through a connect → handshake → stream → reconnect-with-backoff cycle.
// Outbound traffic flows through a FIFO queue drained by a periodic send
// loop that batches envelopes; heartbeats and pong replies bypass the queue
// and are written directly. Inbound frames are decoded and dispatched to a
// small fixed handler table (ping, config_update, command).
//
// Delivery is best-effort, at-most-once: a failed send is never retried,
// the next periodic publish re-establishes current state.
package client
