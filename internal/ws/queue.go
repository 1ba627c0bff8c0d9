package ws

import "time"

// WaitingEntry lives only inside the queue; it is removed the instant it is
// matched or the client cancels/disconnects.
type WaitingEntry struct {
	IdentityID string
	Client     *Client
	PartySize  int
	EnqueuedAt time.Time
}

// WaitQueue is a FIFO matchmaking queue grouped by desired party size.
// Matching is synchronous and deterministic given the call sequence; the
// caller (hub) provides the locking.
type WaitQueue struct {
	entries []*WaitingEntry
}

func NewWaitQueue() *WaitQueue {
	return &WaitQueue{}
}

// Enqueue appends an entry and scans for a full party of the same size in
// arrival order. A matched group is removed atomically and returned; nil
// means the entry stays queued. Re-enqueueing an identity replaces its
// previous entry.
func (q *WaitQueue) Enqueue(e *WaitingEntry) []*WaitingEntry {
	q.Remove(e.IdentityID)
	q.entries = append(q.entries, e)

	var group []*WaitingEntry
	for _, ent := range q.entries {
		if ent.PartySize == e.PartySize {
			group = append(group, ent)
			if len(group) == e.PartySize {
				break
			}
		}
	}
	if len(group) < e.PartySize {
		return nil
	}

	for _, ent := range group {
		q.Remove(ent.IdentityID)
	}
	return group
}

// Remove drops the entry for an identity. Removing an identity that is not
// queued is a no-op, not an error.
func (q *WaitQueue) Remove(identityID string) bool {
	for i, ent := range q.entries {
		if ent.IdentityID == identityID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *WaitQueue) Len() int {
	return len(q.entries)
}
