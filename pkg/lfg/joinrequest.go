package lfg

// JoinRequest is the per-requester transient state that exists between a
// join attempt and its resolution (ticket issued, role check aborted, or
// leave). It is never persisted.
type JoinRequest struct {
	RequesterID RequesterID

	// SelectedActivities are the activity ids the player chose, before
	// random expansion or lock pruning.
	SelectedActivities map[uint32]struct{}

	// ResolvedActivities is SelectedActivities after random expansion (if
	// any) and after locked ids have been removed.
	ResolvedActivities map[uint32]struct{}

	// RandomActivityID is non-zero iff the requester picked a single
	// random activity; in that case ResolvedActivities is exactly the
	// catalog's precomputed expansion of this id.
	RandomActivityID uint32

	// MemberRoles maps player id to that player's role selection. A solo
	// requester has exactly one entry; a group has one entry per member
	// with exactly one RoleLeader bit set among them.
	MemberRoles map[PlayerID]*MemberRole
}

// NewJoinRequest builds an empty JoinRequest for requesterID.
func NewJoinRequest(requesterID RequesterID) *JoinRequest {
	return &JoinRequest{
		RequesterID:        requesterID,
		SelectedActivities: make(map[uint32]struct{}),
		ResolvedActivities: make(map[uint32]struct{}),
		MemberRoles:        make(map[PlayerID]*MemberRole),
	}
}

// IsGroup reports whether this request has more than one member, i.e.
// whether it must pass through role-check before queueing.
func (r *JoinRequest) IsGroup() bool { return len(r.MemberRoles) > 1 }

// AllConfirmed reports whether every member's role is confirmed.
func (r *JoinRequest) AllConfirmed() bool {
	for _, m := range r.MemberRoles {
		if !m.Confirmed {
			return false
		}
	}
	return true
}
