package presence

type queuedMessage struct {
	topic   string
	payload []byte
}

// offlineQueue is a fixed-capacity ring buffer of outbound messages
// accumulated while the connection is down. When full, the oldest entry
// is dropped. Not safe for concurrent use; the Manager holds its lock.
type offlineQueue struct {
	entries []queuedMessage
	head    int
	size    int
}

func newOfflineQueue(capacity int) *offlineQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &offlineQueue{entries: make([]queuedMessage, capacity)}
}

// push appends msg, reporting whether an older entry was dropped to make room.
func (q *offlineQueue) push(msg queuedMessage) (dropped bool) {
	if q.size == len(q.entries) {
		// overwrite the oldest
		q.entries[q.head] = msg
		q.head = (q.head + 1) % len(q.entries)
		return true
	}
	q.entries[(q.head+q.size)%len(q.entries)] = msg
	q.size++
	return false
}

// drain empties the queue, returning entries oldest first.
func (q *offlineQueue) drain() []queuedMessage {
	out := make([]queuedMessage, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.entries[(q.head+i)%len(q.entries)])
	}
	q.head, q.size = 0, 0
	return out
}

func (q *offlineQueue) len() int { return q.size }
