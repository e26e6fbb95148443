// Package rolecheck implements the bounded, per-party role-check
// negotiation: every group member picks a role mask consistent with their
// class, and the coordinator either enqueues the party once every member
// confirms a valid role set, or aborts it on timeout, an illegal choice, or
// an explicit cancel.
//
// The coordinator holds no timers or goroutines of its own; it is driven
// entirely by Tick(delta), matching the no-suspension-point requirement on
// the core's entry points.
package rolecheck

import (
	"github.com/stonehall/dungeonfinder/internal/host"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// TimeoutMS is the fixed role-check duration: two minutes.
const TimeoutMS int64 = 120_000

type active struct {
	groupID   lfg.GroupID
	request   *lfg.JoinRequest
	slots     []uint32
	remaining int64
}

// Coordinator tracks every in-flight role check, keyed by group id. It is
// not safe for concurrent use; callers serialize access the same way the
// rest of the core does.
type Coordinator struct {
	byGroup map[lfg.GroupID]*active
}

// New returns an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{byGroup: make(map[lfg.GroupID]*active)}
}

// Active reports whether a role check is currently running for groupID.
func (c *Coordinator) Active(groupID lfg.GroupID) bool {
	_, ok := c.byGroup[groupID]
	return ok
}

// Count reports the number of role checks currently in flight, for the
// admin surface and metrics.
func (c *Coordinator) Count() int { return len(c.byGroup) }

func memberSnapshot(req *lfg.JoinRequest) map[lfg.PlayerID]lfg.MemberRole {
	out := make(map[lfg.PlayerID]lfg.MemberRole, len(req.MemberRoles))
	for id, m := range req.MemberRoles {
		out[id] = *m
	}
	return out
}

// Launch starts a role check for req and returns the initial
// role-check-update notification (Initializing, beginning=true).
func (c *Coordinator) Launch(groupID lfg.GroupID, req *lfg.JoinRequest, slots []uint32) lfg.RoleCheckUpdateMsg {
	c.byGroup[groupID] = &active{groupID: groupID, request: req, slots: slots, remaining: TimeoutMS}
	return lfg.RoleCheckUpdateMsg{
		GroupID:     groupID,
		State:       lfg.RoleCheckInitializing,
		IsBeginning: true,
		Slots:       slots,
		Members:     memberSnapshot(req),
	}
}

// Transition describes the role-check-update a caller should emit, and
// whether the role check has reached a terminal state.
type Transition struct {
	Update   lfg.RoleCheckUpdateMsg
	Terminal bool
	Request  *lfg.JoinRequest
}

func (c *Coordinator) update(a *active, state lfg.RoleCheckState) lfg.RoleCheckUpdateMsg {
	return lfg.RoleCheckUpdateMsg{
		GroupID: a.groupID,
		State:   state,
		Slots:   a.slots,
		Members: memberSnapshot(a.request),
	}
}

func (c *Coordinator) terminate(groupID lfg.GroupID, a *active, state lfg.RoleCheckState) Transition {
	delete(c.byGroup, groupID)
	return Transition{Update: c.update(a, state), Terminal: true, Request: a.request}
}

// SelectionResult is the outcome of SelectRole.
type SelectionResult struct {
	// Accepted is false when the mask is illegal for the player's class;
	// in that case no state changed and no notification should be emitted
	// beyond the caller's own cheat log.
	Accepted      bool
	Chosen        lfg.RoleChosenMsg
	Transition    Transition
	HasTransition bool
	// Finished is true when the transition is the success path (every
	// member confirmed a valid role set); the caller should enqueue a
	// ticket for Transition.Request.
	Finished bool
}

// SelectRole records playerID's role choice within groupID's role check.
// Per the state table: an illegal-for-class mask is rejected outright (no
// state change, logged by the caller as a possible cheat); an empty mask
// fails the check with NoRole; a non-empty mask is recorded and, once every
// member has confirmed, the set is validated.
func (c *Coordinator) SelectRole(groupID lfg.GroupID, playerID lfg.PlayerID, class host.ClassID, mask lfg.RoleMask) SelectionResult {
	a, ok := c.byGroup[groupID]
	if !ok {
		return SelectionResult{}
	}
	if HasInvalidRoles(class, mask) {
		return SelectionResult{}
	}

	chosen := lfg.RoleChosenMsg{Player: playerID, RoleMask: mask}

	if mask == lfg.RoleNone {
		return SelectionResult{
			Accepted:      true,
			Chosen:        chosen,
			Transition:    c.terminate(groupID, a, lfg.RoleCheckNoRole),
			HasTransition: true,
		}
	}

	member, exists := a.request.MemberRoles[playerID]
	if !exists {
		member = &lfg.MemberRole{}
		a.request.MemberRoles[playerID] = member
	}
	member.RoleMask = mask
	member.Confirmed = true

	if !a.request.AllConfirmed() {
		return SelectionResult{
			Accepted:      true,
			Chosen:        chosen,
			Transition:    Transition{Update: c.update(a, lfg.RoleCheckInitializing)},
			HasTransition: true,
		}
	}

	masks := make([]lfg.RoleMask, 0, len(a.request.MemberRoles))
	for _, m := range a.request.MemberRoles {
		masks = append(masks, m.RoleMask)
	}
	if !IsRoleCheckValid(masks) {
		return SelectionResult{
			Accepted:      true,
			Chosen:        chosen,
			Transition:    c.terminate(groupID, a, lfg.RoleCheckWrongRoles),
			HasTransition: true,
		}
	}

	trans := c.terminate(groupID, a, lfg.RoleCheckFinished)
	return SelectionResult{Accepted: true, Chosen: chosen, Transition: trans, HasTransition: true, Finished: true}
}

// Cancel aborts groupID's role check, e.g. because its leader left. It is a
// no-op if no role check is active.
func (c *Coordinator) Cancel(groupID lfg.GroupID) (Transition, bool) {
	a, ok := c.byGroup[groupID]
	if !ok {
		return Transition{}, false
	}
	return c.terminate(groupID, a, lfg.RoleCheckAborted), true
}

// Tick advances every active role check's timer by deltaMS and returns a
// Transition for each one that just expired. Expirations are collected
// before any map mutation, so the sweep is safe against the map changing
// size mid-iteration.
func (c *Coordinator) Tick(deltaMS int64) []Transition {
	var expiredGroups []lfg.GroupID
	for groupID, a := range c.byGroup {
		a.remaining -= deltaMS
		if a.remaining <= 0 {
			expiredGroups = append(expiredGroups, groupID)
		}
	}

	transitions := make([]Transition, 0, len(expiredGroups))
	for _, groupID := range expiredGroups {
		a := c.byGroup[groupID]
		transitions = append(transitions, c.terminate(groupID, a, lfg.RoleCheckMissingRole))
	}
	return transitions
}
