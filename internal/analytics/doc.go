// Package analytics holds the backing engines behind the broadcast topics:
// the data collector and its record sources, the project analyzer, the
// portfolio optimizer, and the risk analyzer. The scoring itself is kept
// deliberately small; the contracts and failure modes are what the
// broadcast core depends on.
package analytics
