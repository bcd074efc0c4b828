// Package reconcile re-appends history events whose append failed after the
// status write committed, and checks that driver status matches history.
package reconcile

import (
	"sync"

	"vetting/internal/history/models"
	id "vetting/pkg/domain"
)

// DefaultCapacity bounds the in-process backlog.
const DefaultCapacity = 4096

type entry struct {
	event  models.Event
	rounds int
}

// Queue is a bounded FIFO of pending appends. It never evicts: when full,
// TryEnqueue reports false and the caller escalates.
type Queue struct {
	mu       sync.Mutex
	entries  []entry
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	// inFlight counts dequeued entries per driver until their append settles.
	inFlight map[id.DriverID]int
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		entries:  make([]entry, capacity),
		capacity: capacity,
		inFlight: make(map[id.DriverID]int),
	}
}

// TryEnqueue adds e unless the queue is full.
func (q *Queue) TryEnqueue(e models.Event) bool {
	return q.push(entry{event: e})
}

func (q *Queue) push(en entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count >= q.capacity {
		return false
	}
	q.entries[q.head] = en
	q.head = (q.head + 1) % q.capacity
	q.count++
	return true
}

func (q *Queue) dequeueBatch(n int) []entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	n = min(n, q.count)
	out := make([]entry, n)
	for i := range n {
		out[i] = q.entries[q.tail]
		q.entries[q.tail] = entry{}
		q.tail = (q.tail + 1) % q.capacity
		q.inFlight[out[i].event.DriverID]++
	}
	q.count -= n
	return out
}

// settle releases an entry taken by dequeueBatch. Callers requeue a failed
// entry before settling it so Pending never reports a gap.
func (q *Queue) settle(driverID id.DriverID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := q.inFlight[driverID]; n > 1 {
		q.inFlight[driverID] = n - 1
	} else {
		delete(q.inFlight, driverID)
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Pending reports whether an append for driverID is waiting or in flight.
func (q *Queue) Pending(driverID id.DriverID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight[driverID] > 0 {
		return true
	}
	for i := 0; i < q.count; i++ {
		if q.entries[(q.tail+i)%q.capacity].event.DriverID == driverID {
			return true
		}
	}
	return false
}
