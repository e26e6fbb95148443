package lfg

// JoinResult is the outcome code carried on a join-result notification. The
// numeric values match the wire literals of the system this core replaces,
// preserved here for client compatibility even though nothing in this
// module parses the wire format itself.
type JoinResult uint32

const (
	ResultOK                  JoinResult = 0x00
	ResultJoinFailed          JoinResult = 0x1B
	ResultGroupFull           JoinResult = 0x1C
	ResultInternalError       JoinResult = 0x1E
	ResultNotMeetRequirements JoinResult = 0x1F
	ResultMixedRaidAndDungeon JoinResult = 0x20
	ResultMultipleRealms      JoinResult = 0x21
	ResultDisconnected        JoinResult = 0x22
	ResultPartyInfoFailed     JoinResult = 0x23
	ResultDungeonInvalid      JoinResult = 0x24
	ResultDeserter            JoinResult = 0x25
	ResultPartyDeserter       JoinResult = 0x26
	ResultRandomCooldown      JoinResult = 0x27
	ResultPartyRandomCooldown JoinResult = 0x28
	ResultTooManyMembers      JoinResult = 0x29
	ResultUsingBattleground   JoinResult = 0x2A
	ResultRolecheckFailed     JoinResult = 0x2B
)

func (r JoinResult) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultJoinFailed:
		return "JoinFailed"
	case ResultGroupFull:
		return "GroupFull"
	case ResultInternalError:
		return "InternalError"
	case ResultNotMeetRequirements:
		return "NotMeetRequirements"
	case ResultMixedRaidAndDungeon:
		return "MixedRaidAndDungeon"
	case ResultMultipleRealms:
		return "MultipleRealms"
	case ResultDisconnected:
		return "Disconnected"
	case ResultPartyInfoFailed:
		return "PartyInfoFailed"
	case ResultDungeonInvalid:
		return "DungeonInvalid"
	case ResultDeserter:
		return "Deserter"
	case ResultPartyDeserter:
		return "PartyDeserter"
	case ResultRandomCooldown:
		return "RandomCooldown"
	case ResultPartyRandomCooldown:
		return "PartyRandomCooldown"
	case ResultTooManyMembers:
		return "TooManyMembers"
	case ResultUsingBattleground:
		return "UsingBattleground"
	case ResultRolecheckFailed:
		return "RolecheckFailed"
	default:
		return "Unknown"
	}
}

// RoleCheckState is the closed sum of states a role check can be in. The
// four non-Initializing-non-Finished values are terminal failures; their
// numeric value doubles as the detail_code on a RolecheckFailed join-result.
type RoleCheckState int

const (
	RoleCheckInitializing RoleCheckState = iota
	RoleCheckNoRole
	RoleCheckMissingRole
	RoleCheckWrongRoles
	RoleCheckAborted
	RoleCheckFinished
)

func (s RoleCheckState) String() string {
	switch s {
	case RoleCheckInitializing:
		return "Initializing"
	case RoleCheckNoRole:
		return "NoRole"
	case RoleCheckMissingRole:
		return "MissingRole"
	case RoleCheckWrongRoles:
		return "WrongRoles"
	case RoleCheckAborted:
		return "Aborted"
	case RoleCheckFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Terminal reports whether this state ends the role check (success or
// failure); Initializing is the only non-terminal state.
func (s RoleCheckState) Terminal() bool { return s != RoleCheckInitializing }

// UpdateReason is the reason code on a status-update notification.
type UpdateReason int

const (
	UpdateJoinQueueInitial UpdateReason = iota
	UpdateJoinQueue
	UpdateAddedToQueue
	UpdateRemovedFromQueue
)

func (r UpdateReason) String() string {
	switch r {
	case UpdateJoinQueueInitial:
		return "JoinQueueInitial"
	case UpdateJoinQueue:
		return "JoinQueue"
	case UpdateAddedToQueue:
		return "AddedToQueue"
	case UpdateRemovedFromQueue:
		return "RemovedFromQueue"
	default:
		return "Unknown"
	}
}

// LFGJoined reports the lfg_joined flag carried on a status-update: true
// for every reason except RemovedFromQueue.
func (r UpdateReason) LFGJoined() bool { return r != UpdateRemovedFromQueue }

// JoinedQueued reports the joined/queued pair a status-update carries for
// this reason.
func (r UpdateReason) JoinedQueued() (joined, queued bool) {
	switch r {
	case UpdateJoinQueueInitial:
		return true, false
	case UpdateJoinQueue, UpdateAddedToQueue:
		return true, true
	default:
		return false, false
	}
}
