package queue

import "context"

// Store is the minimal typed I/O surface the Manager needs from a remote
// key-value store with lists and sorted sets. Implementations impose no queue
// semantics; every call is a remote operation that may fail transiently.
type Store interface {
	// HashSet merges fields into the hash at key, creating it if needed.
	HashSet(ctx context.Context, key string, fields map[string]string) error
	// HashGetAll returns every field of the hash at key; an empty map if absent.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)

	// ListPush inserts value at the head of the list.
	ListPush(ctx context.Context, key, value string) error
	// ListMove atomically pops the tail of src and pushes it onto the head of
	// dst. ok is false when src is empty.
	ListMove(ctx context.Context, src, dst string) (value string, ok bool, err error)
	// ListRemove deletes every occurrence of value and returns how many were removed.
	ListRemove(ctx context.Context, key, value string) (int64, error)
	ListLen(ctx context.Context, key string) (int64, error)
	// ListRange returns elements start..stop inclusive, head first. Negative
	// indexes count from the tail.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	SortedSetAdd(ctx context.Context, key, member string, score float64) error
	// SortedSetRangeByScore returns up to limit members with score <= max,
	// lowest score first.
	SortedSetRangeByScore(ctx context.Context, key string, max float64, limit int64) ([]string, error)
	// SortedSetRemove reports whether member was present and removed.
	SortedSetRemove(ctx context.Context, key, member string) (bool, error)
	SortedSetCard(ctx context.Context, key string) (int64, error)
	// SortedSetScore reads the score of member; ok is false when it is absent.
	SortedSetScore(ctx context.Context, key, member string) (score float64, ok bool, err error)

	Increment(ctx context.Context, key string) (int64, error)
	// Counter reads a counter; missing counters read as zero.
	Counter(ctx context.Context, key string) (int64, error)

	Ping(ctx context.Context) error
}

// Key layout shared by every Store implementation.

func jobKey(id string) string { return "job:" + id }
func readyKey(q Name) string { return "queue:" + string(q) + ":ready" }
func processingKey(q Name) string { return "queue:" + string(q) + ":processing" }
func delayedKey(q Name) string { return "queue:" + string(q) + ":delayed" }
func failedKey(q Name) string { return "queue:" + string(q) + ":failed" }
func counterKey(q Name, c string) string { return "queue:" + string(q) + ":stats:" + c }

// Lifetime counters kept per queue.
const (
	counterEnqueued     = "enqueued"
	counterCompleted    = "completed"
	counterRetried      = "retried"
	counterDeadLettered = "dead_lettered"
)
