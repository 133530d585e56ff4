// Package broadcast implements the per-topic push loops and the
// per-connection WebSocket writer.
//
// Each topic runs an independent Loop on its own interval. A Loop fetches a
// snapshot from its source and fans it out to the topic's subscribers from
// the session registry. Per-connection write goroutines with bounded
// deadlines keep slow clients from stalling a cycle.
package broadcast
