// Package publisher formats trading-domain data and publishes it through
// the dashboard client: portfolio snapshots, trade signals, risk alerts,
// and model performance. It keeps bounded caches of recent signals and
// alerts for status queries and runs a periodic system-status loop.
package publisher
