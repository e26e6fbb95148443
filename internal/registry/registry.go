// Package registry is the Ticket Registry: it assigns monotonically
// increasing ticket ids, owns the JoinRequest and Ticket maps keyed by
// requester, and is the authoritative answer to "is this requester
// currently in the system." The map-of-state-plus-explicit-lifecycle shape
// follows the teacher's job manager: one map is the single source of
// truth, looked up by id, mutated only through named transitions.
package registry

import (
	"fmt"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// Registry owns per-requester JoinRequest and Ticket state. It is not safe
// for concurrent use; callers serialize access.
type Registry struct {
	nextTicketID uint32
	overflowed   bool

	requests map[lfg.RequesterID]*lfg.JoinRequest
	tickets  map[lfg.RequesterID]lfg.Ticket
	// byTicketID indexes tickets the other direction, for leave-by-ticket.
	byTicketID map[uint32]lfg.RequesterID
}

// New returns an empty Registry whose ticket counter starts at zero.
func New() *Registry {
	return &Registry{
		requests:   make(map[lfg.RequesterID]*lfg.JoinRequest),
		tickets:    make(map[lfg.RequesterID]lfg.Ticket),
		byTicketID: make(map[uint32]lfg.RequesterID),
	}
}

// HasActiveRequest reports whether requesterID currently owns a JoinRequest.
func (r *Registry) HasActiveRequest(requesterID lfg.RequesterID) bool {
	_, ok := r.requests[requesterID]
	return ok
}

// HasActiveTicket reports whether requesterID currently owns a ticket.
func (r *Registry) HasActiveTicket(requesterID lfg.RequesterID) bool {
	_, ok := r.tickets[requesterID]
	return ok
}

// PutRequest installs req as requesterID's active JoinRequest, replacing
// any existing one.
func (r *Registry) PutRequest(requesterID lfg.RequesterID, req *lfg.JoinRequest) {
	r.requests[requesterID] = req
}

// Request returns requesterID's active JoinRequest, if any.
func (r *Registry) Request(requesterID lfg.RequesterID) (*lfg.JoinRequest, bool) {
	req, ok := r.requests[requesterID]
	return req, ok
}

// PurgeRequest removes requesterID's JoinRequest.
func (r *Registry) PurgeRequest(requesterID lfg.RequesterID) {
	delete(r.requests, requesterID)
}

// GenerateTicketID draws the next id from the monotonically increasing
// counter. It panics if doing so would overflow a 32-bit id space; ticket
// id overflow is a fatal condition, not a recoverable error, matching the
// original source's hard assertion.
func (r *Registry) GenerateTicketID() uint32 {
	if r.overflowed || r.nextTicketID == ^uint32(0) {
		r.overflowed = true
		panic(fmt.Sprintf("dungeonfinder: ticket id counter overflowed at %d", r.nextTicketID))
	}
	id := r.nextTicketID
	r.nextTicketID++
	return id
}

// NewTicket mints a ticket for requesterID at createdAt (epoch seconds) and
// records it as the requester's active ticket.
func (r *Registry) NewTicket(requesterID lfg.RequesterID, createdAt int64) lfg.Ticket {
	t := lfg.Ticket{
		ID:          r.GenerateTicketID(),
		Type:        lfg.TicketType,
		CreatedAt:   createdAt,
		RequesterID: requesterID,
	}
	r.tickets[requesterID] = t
	r.byTicketID[t.ID] = requesterID
	return t
}

// TicketByID returns the requester owning ticketID, if the ticket is live.
func (r *Registry) TicketByID(ticketID uint32) (lfg.RequesterID, bool) {
	requesterID, ok := r.byTicketID[ticketID]
	return requesterID, ok
}

// Ticket returns requesterID's active ticket, if any.
func (r *Registry) Ticket(requesterID lfg.RequesterID) (lfg.Ticket, bool) {
	t, ok := r.tickets[requesterID]
	return t, ok
}

// RemoveTicket deletes requesterID's ticket from both indices.
func (r *Registry) RemoveTicket(requesterID lfg.RequesterID) {
	if t, ok := r.tickets[requesterID]; ok {
		delete(r.byTicketID, t.ID)
	}
	delete(r.tickets, requesterID)
}

// Stats reports the number of live requests and tickets, for the admin
// surface and metrics.
type Stats struct {
	ActiveRequests int
	ActiveTickets  int
}

func (r *Registry) Stats() Stats {
	return Stats{ActiveRequests: len(r.requests), ActiveTickets: len(r.tickets)}
}
