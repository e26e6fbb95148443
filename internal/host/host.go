// Package host declares the abstract player/group API the core reads from.
// The core never mutates anything reached through these interfaces; it only
// observes host state to make eligibility, role-legality, and base
// eligibility decisions.
package host

import "github.com/stonehall/dungeonfinder/pkg/lfg"

// ClassID identifies a player's class for role-legality checks.
type ClassID int

const (
	ClassWarrior ClassID = iota
	ClassPaladin
	ClassHunter
	ClassRogue
	ClassPriest
	ClassDeathKnight
	ClassShaman
	ClassMage
	ClassWarlock
	ClassDruid
)

// Faction identifies a player's side for faction-specific quest gating.
type Faction int

const (
	FactionAlliance Faction = iota
	FactionHorde
)

// SavedInstance records that a player is bound to a map at a difficulty
// from a prior kill, the source of raid-lock checks.
type SavedInstance struct {
	MapID      uint32
	Difficulty lfg.Difficulty
}

// AccessRequirement is the access-control record for a gated activity:
// required achievement, a faction-specific quest, and up to two alternative
// required items.
type AccessRequirement struct {
	RequiredAchievement   uint32
	RequiredQuestAlliance uint32
	RequiredQuestHorde    uint32
	RequiredItem1         uint32
	RequiredItem2         uint32
}

// PlayerView is the read-only per-player surface the core consults.
type PlayerView interface {
	ID() lfg.PlayerID
	Class() ClassID
	Faction() Faction
	Level() int
	Expansion() int
	ItemLevel() int
	HasJoinDungeonFinderPermission() bool

	// GroupID is zero for a solo player.
	GroupID() lfg.GroupID

	// InRestrictedState reports whether the player is in a battleground,
	// arena, or another queue — any of which blocks a new join.
	InRestrictedState() bool
	HasDeserterDebuff() bool
	HasRandomCooldownDebuff() bool
	IsGMFrozen() bool
	IsConnected() bool

	SavedInstances() []SavedInstance
	HasAchievement(id uint32) bool
	HasCompletedQuest(id uint32) bool
	HasItem(id uint32) bool
}

// GroupView is the read-only per-group surface the core consults for party
// joins.
type GroupView interface {
	ID() lfg.GroupID
	LeaderID() lfg.PlayerID
	Members() []lfg.PlayerID
	MemberCount() int
}

// MapPolicy answers whether a map is globally or subsystem-specifically
// disabled, and the default entrance trigger for a map when a catalog row
// supplies no coordinates.
type MapPolicy interface {
	MapDisabled(mapID uint32) bool
	DefaultEntrance(mapID uint32) (lfg.Entrance, bool)
	// KnownActivity reports whether activityID exists in the game's master
	// activity store, independent of whether the Dungeon-Finder catalog
	// has loaded a row for it.
	KnownActivity(activityID uint32) bool
}

// AccessRequirements resolves the access-control record for an activity, if
// one exists.
type AccessRequirements interface {
	RequirementFor(activityID uint32) (AccessRequirement, bool)
}

// PlayerResolver looks up a live PlayerView by id. The core holds no player
// state of its own; every entry point resolves through this at call time.
type PlayerResolver interface {
	Player(id lfg.PlayerID) (PlayerView, bool)
}

// GroupResolver looks up a live GroupView by id.
type GroupResolver interface {
	Group(id lfg.GroupID) (GroupView, bool)
}
