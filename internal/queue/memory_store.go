package queue

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store with the same list, hash and sorted-set
// semantics as the Redis adapter. Every method holds a single mutex, which
// makes ListMove and SortedSetRemove atomic across goroutines.
type MemoryStore struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	lists    map[string][]string // index 0 is the head
	zsets    map[string]map[string]float64
	counters map[string]int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes:   make(map[string]map[string]string),
		lists:    make(map[string][]string),
		zsets:    make(map[string]map[string]float64),
		counters: make(map[string]int64),
	}
}

func (s *MemoryStore) HashSet(ctx context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (s *MemoryStore) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) ListPush(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append([]string{value}, s.lists[key]...)
	return nil
}

func (s *MemoryStore) ListMove(ctx context.Context, src, dst string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lists[src]
	if len(l) == 0 {
		return "", false, nil
	}
	v := l[len(l)-1]
	s.lists[src] = l[:len(l)-1]
	s.lists[dst] = append([]string{v}, s.lists[dst]...)
	return v, true, nil
}

func (s *MemoryStore) ListRemove(ctx context.Context, key, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lists[key]
	kept := l[:0:0]
	var removed int64
	for _, v := range l {
		if v == value {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	s.lists[key] = kept
	return removed, nil
}

func (s *MemoryStore) ListLen(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.lists[key])), nil
}

func (s *MemoryStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lists[key]
	n := int64(len(l))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

func (s *MemoryStore) SortedSetAdd(ctx context.Context, key, member string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zsets[key]
	if !ok {
		z = make(map[string]float64)
		s.zsets[key] = z
	}
	z[member] = score
	return nil
}

func (s *MemoryStore) SortedSetRangeByScore(ctx context.Context, key string, max float64, limit int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type entry struct {
		member string
		score  float64
	}
	var due []entry
	for m, sc := range s.zsets[key] {
		if sc <= max {
			due = append(due, entry{m, sc})
		}
	}
	// Ties order lexicographically, as in Redis.
	sort.Slice(due, func(i, j int) bool {
		if due[i].score != due[j].score {
			return due[i].score < due[j].score
		}
		return due[i].member < due[j].member
	})
	if limit > 0 && int64(len(due)) > limit {
		due = due[:limit]
	}

	out := make([]string, len(due))
	for i, e := range due {
		out[i] = e.member
	}
	return out, nil
}

func (s *MemoryStore) SortedSetRemove(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z := s.zsets[key]
	if _, ok := z[member]; !ok {
		return false, nil
	}
	delete(z, member)
	return true, nil
}

func (s *MemoryStore) SortedSetCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.zsets[key])), nil
}

func (s *MemoryStore) SortedSetScore(ctx context.Context, key, member string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.zsets[key][member]
	return sc, ok, nil
}

func (s *MemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[key]++
	return s.counters[key], nil
}

func (s *MemoryStore) Counter(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
