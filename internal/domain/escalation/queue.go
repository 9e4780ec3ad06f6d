package escalation

// Queue is a bounded, priority-ordered ticket queue. Insertion is stable
// within a priority band (FIFO) and every mutation renumbers positions to
// a dense 1..N in the same step. The queue is not safe for concurrent use;
// the owning service serializes access.
type Queue struct {
	maxSize int
	items   []*Ticket
}

// NewQueue creates a queue bounded at maxSize entries.
func NewQueue(maxSize int) *Queue {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Queue{maxSize: maxSize}
}

// Len returns the number of queued tickets.
func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns the queued tickets in position order.
func (q *Queue) Items() []*Ticket {
	out := make([]*Ticket, len(q.items))
	copy(out, q.items)
	return out
}

// Insert places the ticket after all entries of equal or higher priority.
// When the queue is full, the oldest ticket of the lowest-priority band is
// dropped to make room and returned; if the incoming ticket ranks below
// everything already queued, it is rejected instead.
func (q *Queue) Insert(t *Ticket) (dropped *Ticket, ok bool) {
	if len(q.items) >= q.maxSize {
		victim := q.evictionVictim(t)
		if victim < 0 {
			return nil, false
		}
		dropped = q.items[victim]
		dropped.QueuePosition = 0
		q.items = append(q.items[:victim], q.items[victim+1:]...)
	}

	idx := len(q.items)
	for i, queued := range q.items {
		if t.Priority.Rank() < queued.Priority.Rank() {
			idx = i
			break
		}
	}
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = t
	q.renumber()
	return dropped, true
}

// Remove deletes the ticket with the given id and renumbers.
func (q *Queue) Remove(ticketID string) *Ticket {
	for i, t := range q.items {
		if t.ID == ticketID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			t.QueuePosition = 0
			q.renumber()
			return t
		}
	}
	return nil
}

// evictionVictim finds the oldest entry in the lowest-priority band, but
// only if the incoming ticket outranks or equals that band.
func (q *Queue) evictionVictim(incoming *Ticket) int {
	if len(q.items) == 0 {
		return -1
	}
	lowest := q.items[len(q.items)-1].Priority
	if incoming.Priority.Rank() > lowest.Rank() {
		return -1
	}
	// FIFO within band: the first item of the band is its oldest.
	for i, t := range q.items {
		if t.Priority == lowest {
			return i
		}
	}
	return len(q.items) - 1
}

func (q *Queue) renumber() {
	for i, t := range q.items {
		t.QueuePosition = i + 1
	}
}
