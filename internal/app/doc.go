// Package app is the lifecycle manager. It owns startup and shutdown
// ordering for the backing engines and the broadcast loops, and the
// per-engine readiness flags.
package app
