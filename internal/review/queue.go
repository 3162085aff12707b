package review

import (
	"container/heap"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swiftfreight/quote-engine/internal/models"
)

var (
	ErrQueueFull    = errors.New("review queue full")
	ErrItemNotFound = errors.New("review item not found")
	ErrItemResolved = errors.New("review item already resolved")
)

type itemState int

const (
	stateQueued itemState = iota
	stateClaimed
	stateResolved
)

type queueEntry struct {
	item  models.ReviewQueueItem
	state itemState
	seq   uint64
	index int // heap index, -1 once popped
}

// Queue is the bounded, priority-ordered review queue. Dequeue order is
// priority descending, then enqueue time ascending; a claim is atomic so
// no two reviewer sessions receive the same item.
type Queue struct {
	mu       sync.Mutex
	capacity int
	seq      uint64
	heap     entryHeap
	byID     map[string]*queueEntry
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{
		capacity: capacity,
		byID:     map[string]*queueEntry{},
	}
}

// Enqueue adds a queued quote. A full queue is an error: dropping a
// priced quote would leave it without its one routing transition.
func (q *Queue) Enqueue(quoteID string, priority models.ReviewPriority, at time.Time) (models.ReviewQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Claimed-but-undecided items still occupy capacity.
	if len(q.byID) >= q.capacity {
		return models.ReviewQueueItem{}, ErrQueueFull
	}

	q.seq++
	entry := &queueEntry{
		item: models.ReviewQueueItem{
			ID:         uuid.NewString(),
			QuoteID:    quoteID,
			Priority:   priority,
			EnqueuedAt: at,
		},
		state: stateQueued,
		seq:   q.seq,
	}
	heap.Push(&q.heap, entry)
	q.byID[entry.item.ID] = entry
	return entry.item, nil
}

// Claim pops the highest-priority unclaimed item for a reviewer session.
// The second return is false when the queue is empty.
func (q *Queue) Claim(reviewer string) (models.ReviewQueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.heap.Len() > 0 {
		entry := heap.Pop(&q.heap).(*queueEntry)
		if entry.state != stateQueued {
			continue
		}
		entry.state = stateClaimed
		entry.item.ClaimedBy = reviewer
		return entry.item, true
	}
	return models.ReviewQueueItem{}, false
}

// Resolve records the reviewer decision and removes the item. Items may
// be resolved by id without a prior claim (e.g. a direct decision call).
func (q *Queue) Resolve(itemID string, decision models.ReviewDecision) (models.ReviewQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.byID[itemID]
	if !ok {
		return models.ReviewQueueItem{}, ErrItemNotFound
	}
	if entry.state == stateResolved {
		return models.ReviewQueueItem{}, ErrItemResolved
	}
	entry.state = stateResolved
	entry.item.Decision = &decision
	delete(q.byID, itemID)
	if entry.index >= 0 {
		heap.Remove(&q.heap, entry.index)
	}
	return entry.item, nil
}

// Get returns an unresolved item by id.
func (q *Queue) Get(itemID string) (models.ReviewQueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.byID[itemID]
	if !ok {
		return models.ReviewQueueItem{}, false
	}
	return entry.item, true
}

// Pending lists unclaimed items in dequeue order without claiming them.
func (q *Queue) Pending() []models.ReviewQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*queueEntry, 0, q.heap.Len())
	for _, e := range q.heap {
		if e.state == stateQueued {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})
	out := make([]models.ReviewQueueItem, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

func entryLess(a, b *queueEntry) bool {
	if ra, rb := a.item.Priority.Rank(), b.item.Priority.Rank(); ra != rb {
		return ra > rb
	}
	if !a.item.EnqueuedAt.Equal(b.item.EnqueuedAt) {
		return a.item.EnqueuedAt.Before(b.item.EnqueuedAt)
	}
	return a.seq < b.seq
}

type entryHeap []*queueEntry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return entryLess(h[i], h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x any)        { e := x.(*queueEntry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
