package lfg

// NotificationSink is the injected capability that carries outbound
// messages to the presentation layer. It has one method per notification
// kind so the core stays testable without a live network stack. The core
// assumes every method is non-blocking and best-effort: if a call blocks or
// errors, the core does not retry.
type NotificationSink interface {
	JoinResult(msg JoinResultMsg)
	StatusUpdate(msg StatusUpdateMsg)
	RoleCheckUpdate(msg RoleCheckUpdateMsg)
	RoleChosen(msg RoleChosenMsg)
	QueueStatus(msg QueueStatusMsg)
}

// JoinResultMsg is produced once for a join attempt rejected before queueing,
// once (RolecheckFailed) for a role check that fails, and once (OK) when a
// solo join is enqueued. A group whose role check finishes is reported
// through status updates instead, and a role check cancelled by a leave
// produces no JoinResultMsg.
type JoinResultMsg struct {
	RequesterID RequesterID
	Result      JoinResult
	// DetailCode carries the role-check terminal state when Result is
	// ResultRolecheckFailed; it is zero otherwise.
	DetailCode RoleCheckState
	Ticket     Ticket
	// Locks is the per-player lock map attached when the result stems from
	// a lock failure, keyed by the external slot code.
	Locks map[PlayerID]map[uint32]Lock
}

// StatusUpdateMsg reports a ticket's queue membership transition.
type StatusUpdateMsg struct {
	Ticket    Ticket
	Reason    UpdateReason
	IsParty   bool
	Joined    bool
	LFGJoined bool
	Queued    bool
	Comment   string
	Slots     []uint32
}

// RoleCheckUpdateMsg reports a non-terminal or terminal role-check
// transition with the latest per-member table.
type RoleCheckUpdateMsg struct {
	GroupID     GroupID
	State       RoleCheckState
	IsBeginning bool
	Slots       []uint32
	Members     map[PlayerID]MemberRole
}

// RoleChosenMsg accompanies every individual role selection.
type RoleChosenMsg struct {
	Player   PlayerID
	RoleMask RoleMask
}

// QueueStatusMsg is the periodic per-ticket status push.
type QueueStatusMsg struct {
	Ticket               Ticket
	TimeInQueueSeconds   int64
	AvgWaitSeconds       int64
	AvgWaitByRole        [3]int64
	RemainingNeededRoles [3]int
}

// DecodeSlotActivityID extracts the activity id from an external slot code:
// the low 24 bits.
func DecodeSlotActivityID(slot uint32) uint32 { return slot & 0x00FFFFFF }
