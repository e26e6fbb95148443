package lfg

// TicketType is a fixed wire constant carried on every ticket; the original
// protocol reserves it to distinguish ticket packets from other uses of the
// same numeric id space.
const TicketType uint32 = 3

// Ticket is the registry's handle for a single queued requester.
type Ticket struct {
	ID          uint32
	Type        uint32 // always TicketType
	CreatedAt   int64  // epoch seconds
	RequesterID RequesterID
}

// QueueEntry is the scheduler's per-ticket bookkeeping.
type QueueEntry struct {
	Ticket  Ticket
	Request *JoinRequest
	// CurrentActivityID is non-zero when this entry is already running an
	// instance from a prior match (post-match retention).
	CurrentActivityID uint32
	Comment           string
	InstanceCompleted bool
	NeedsStatusPush   bool
}

// SetComment sets the entry's free-text comment. Independent of the
// raid-browser feature that historically read it.
func (e *QueueEntry) SetComment(c string) { e.Comment = c }

// Retained reports whether this entry must keep its JoinRequest alive past
// a leave/removal because it still references a running instance.
func (e *QueueEntry) Retained() bool {
	return e.CurrentActivityID != 0 && !e.InstanceCompleted
}
