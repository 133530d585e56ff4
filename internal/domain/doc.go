// Package domain holds the core types and interfaces shared across the
// service: topics, snapshots, the engine contracts, and sentinel errors.
package domain
