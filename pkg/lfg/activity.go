// Package lfg defines the domain model shared by every Dungeon-Finder
// component: activities, the static catalog shape, lock reasons, role
// masks, join requests, tickets, and the wire notification envelopes.
//
// Types in this package carry no behavior beyond small accessors; the
// components under internal/ own the state machines that operate on them.
package lfg

// ActivityType classifies an Activity for eligibility and catalog queries.
type ActivityType int

const (
	ActivityDungeon ActivityType = iota
	ActivityRaid
	ActivityWorld
	ActivityHeroic
	ActivityRandom
)

func (t ActivityType) String() string {
	switch t {
	case ActivityDungeon:
		return "dungeon"
	case ActivityRaid:
		return "raid"
	case ActivityWorld:
		return "world"
	case ActivityHeroic:
		return "heroic"
	case ActivityRandom:
		return "random"
	default:
		return "unknown"
	}
}

// Difficulty is ordered: Normal is the baseline, every later value is
// strictly harder. Only the ordering matters to the eligibility evaluator.
type Difficulty int

const (
	DifficultyNormal Difficulty = iota
	DifficultyHeroic
	DifficultyEpic
)

// Flag is a bitset over an Activity's auxiliary properties.
type Flag uint32

const (
	// FlagSeasonal marks an activity as only available during its mapped
	// holiday, per the season policy.
	FlagSeasonal Flag = 1 << iota
	// FlagLFRA and FlagLFRB are the two raid-only "looking for raid" wings.
	// In the catalog's available-list query raids are always included;
	// either flag makes a dungeon-type activity included too.
	FlagLFRA
	FlagLFRB
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Activity is an immutable record describing an instantiable cooperative
// content piece. It is never mutated after the Catalog loads it.
type Activity struct {
	ID                uint32
	MapID             uint32
	Difficulty        Difficulty
	Type              ActivityType
	MinLevel          int
	MaxLevel          int
	RequiredExpansion int
	Flags             Flag
	ExternalSlotCode  uint32
	RandomParentID    uint32 // zero unless this activity belongs to a random pool
}

// Entrance is the world-space drop point a player lands at after a match.
type Entrance struct {
	X, Y, Z     float32
	Orientation float32
}

// RewardTier is attached to a CatalogEntry but never interpreted by the
// core; it exists only so the catalog can hand it to the presentation layer
// unmodified.
type RewardTier struct {
	MaxLevel             int
	FirstQuestID         uint32
	OtherQuestID         uint32
	ShortageQuestID      uint32
	CompletionsPerPeriod int
	DailyReset           bool
}

// CatalogEntry augments an Activity with the loading-time data the static
// catalog attaches: entrance coordinates, the item level gate, and reward
// tiers (opaque to the core).
type CatalogEntry struct {
	Activity
	Entrance          Entrance
	RequiredItemLevel int
	Rewards           []RewardTier
}
