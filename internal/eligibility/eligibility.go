// Package eligibility evaluates a single (player, activity) pair against
// the rules that decide whether a player may queue for that activity right
// now, in the fixed decision order the first matching rule wins.
package eligibility

import (
	"github.com/stonehall/dungeonfinder/internal/catalog"
	"github.com/stonehall/dungeonfinder/internal/host"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// Result is the outcome of Evaluate: either eligible, or locked with a
// reason and auxiliary numbers.
type Result struct {
	Locked bool
	Lock   lfg.Lock
}

// Eligible is the zero-value-equivalent successful result.
var Eligible = Result{}

func locked(reason lfg.LockReason, required, current uint32) Result {
	return Result{Locked: true, Lock: lfg.Lock{Reason: reason, Required: required, Current: current}}
}

// Evaluator evaluates players against catalog entries. It holds no mutable
// state; every field is a read-only collaborator.
type Evaluator struct {
	Catalog   *catalog.Catalog
	MapPolicy MapPolicy
	Access    host.AccessRequirements
}

// MapPolicy is the subset of host map policy the evaluator needs: whether a
// map is disabled, globally or for this subsystem specifically.
type MapPolicy interface {
	MapDisabled(mapID uint32) bool
}

// Evaluate implements the decision order of the fixed rule list: the first
// matching rule wins.
func (e *Evaluator) Evaluate(player host.PlayerView, activity lfg.CatalogEntry) Result {
	if !player.HasJoinDungeonFinderPermission() {
		return locked(lfg.LockNone, 0, 0)
	}
	if activity.RequiredExpansion > player.Expansion() {
		return locked(lfg.LockInsufficientExpansion, 0, 0)
	}
	if e.MapPolicy != nil && e.MapPolicy.MapDisabled(activity.MapID) {
		return locked(lfg.LockNone, 0, 0)
	}
	if activity.Difficulty > lfg.DifficultyNormal && raidLocked(player, activity) {
		return locked(lfg.LockRaidLocked, 0, 0)
	}
	level := player.Level()
	if activity.MinLevel > level {
		return locked(lfg.LockTooLowLevel, 0, 0)
	}
	if activity.MaxLevel < level {
		return locked(lfg.LockTooHighLevel, 0, 0)
	}
	if activity.Flags.Has(lfg.FlagSeasonal) && !e.inSeason(activity.ID) {
		return locked(lfg.LockNotInSeason, 0, 0)
	}
	if activity.RequiredItemLevel > player.ItemLevel() {
		return locked(lfg.LockTooLowGearScore, uint32(activity.RequiredItemLevel), uint32(player.ItemLevel()))
	}
	if e.Access != nil {
		if req, ok := e.Access.RequirementFor(activity.ID); ok {
			if lock, isLocked := checkAccessRequirement(player, req); isLocked {
				return lock
			}
		}
	}
	return Eligible
}

// raidLocked collapses the original source's two separately-parameterized
// raid-lock checks into the single condition: the player is already saved
// to this activity's map at this (or a harder) difficulty.
func raidLocked(player host.PlayerView, activity lfg.CatalogEntry) bool {
	for _, saved := range player.SavedInstances() {
		if saved.MapID == activity.MapID && saved.Difficulty >= activity.Difficulty {
			return true
		}
	}
	return false
}

func (e *Evaluator) inSeason(activityID uint32) bool {
	if e.Catalog == nil {
		return false
	}
	return e.Catalog.InSeason(activityID)
}

func checkAccessRequirement(player host.PlayerView, req host.AccessRequirement) (Result, bool) {
	if req.RequiredAchievement != 0 && !player.HasAchievement(req.RequiredAchievement) {
		return locked(lfg.LockMissingAchievement, 0, 0), true
	}
	requiredQuest := req.RequiredQuestHorde
	if player.Faction() == host.FactionAlliance {
		requiredQuest = req.RequiredQuestAlliance
	}
	if requiredQuest != 0 && !player.HasCompletedQuest(requiredQuest) {
		return locked(lfg.LockQuestNotCompleted, 0, 0), true
	}
	if req.RequiredItem1 != 0 {
		if !player.HasItem(req.RequiredItem1) && !(req.RequiredItem2 != 0 && player.HasItem(req.RequiredItem2)) {
			return locked(lfg.LockMissingItem, 0, 0), true
		}
	} else if req.RequiredItem2 != 0 && !player.HasItem(req.RequiredItem2) {
		return locked(lfg.LockMissingItem, 0, 0), true
	}
	return Result{}, false
}

// LockedDungeonsForPlayer evaluates every loaded activity against player
// and returns the lock map for the ones that are not eligible — a bulk
// query used by "show me everything I can't queue for", not just the
// activities in the player's current selection. Unlike IterateAvailable
// this does not filter by level/expansion first: a player should see why a
// too-low-expansion raid is locked, not have it silently omitted.
func LockedDungeonsForPlayer(e *Evaluator, player host.PlayerView) map[uint32]lfg.Lock {
	locks := make(map[uint32]lfg.Lock)
	for _, id := range e.Catalog.AllIDs() {
		entry, ok := e.Catalog.Get(id)
		if !ok {
			continue
		}
		result := e.Evaluate(player, entry)
		if result.Locked {
			locks[id] = result.Lock
		}
	}
	return locks
}
