// Package queue implements a durable job queue over a shared key-value store
// with lists and sorted sets. Each named queue has a ready list, a processing
// list of leased jobs, a delayed set of retries scored by due time, and a
// dead-letter list of jobs that exhausted their attempts. Job records live in
// their own hashes and are never deleted.
//
// The Manager is stateless: every operation is a sequence of Store calls, and
// the atomic ready-to-processing list move is the only mutual exclusion, so
// any number of worker processes can poll the same queue.
package queue
