// Package redis adapts a go-redis client to the queue.Store interface. It is
// a typed I/O layer only: every method maps to a single Redis command and
// imposes no queue semantics of its own.
package redis
