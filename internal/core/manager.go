// Package core composes the catalog, eligibility evaluator, role-check
// coordinator, ticket registry, and queue scheduler behind a single
// Manager, the only thing a host process talks to. Manager owns one mutex;
// every exported method runs to completion without blocking, matching the
// single-threaded cooperative model the rest of the core is built on. This
// mirrors the teacher's Controller: one struct wiring the independently
// testable pieces together and translating between host-facing calls and
// the notification sink.
package core

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/stonehall/dungeonfinder/internal/catalog"
	"github.com/stonehall/dungeonfinder/internal/eligibility"
	"github.com/stonehall/dungeonfinder/internal/host"
	"github.com/stonehall/dungeonfinder/internal/queue"
	"github.com/stonehall/dungeonfinder/internal/registry"
	"github.com/stonehall/dungeonfinder/internal/rolecheck"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// DefaultMaxGroupSize is the party size above which a join is rejected as
// TooManyMembers. A party at exactly this size (a standard full dungeon
// group) still proceeds normally; ResultGroupFull is reserved for a queue
// entry that is already bound to a running instance, not the join pipeline.
const DefaultMaxGroupSize = 5

// Config wires Manager's collaborators. Catalog, Eligibility, Players,
// Groups, and Sink are required; the rest default.
type Config struct {
	Catalog     *catalog.Catalog
	Eligibility *eligibility.Evaluator
	Players     host.PlayerResolver
	Groups      host.GroupResolver
	Sink        lfg.NotificationSink

	// MaxGroupSize defaults to DefaultMaxGroupSize if zero.
	MaxGroupSize int
	// Now returns the current epoch-second clock; defaults to a clock that
	// panics if called, since tests must supply a deterministic one and
	// production wiring must supply a real one explicitly.
	Now func() int64
	Log *slog.Logger
}

// Manager is the core's single entry point. It is safe for concurrent use:
// it serializes itself with one mutex, so a host may call it from multiple
// goroutines, but every call blocks behind the same lock.
type Manager struct {
	catalog      *catalog.Catalog
	eligibility  *eligibility.Evaluator
	players      host.PlayerResolver
	groups       host.GroupResolver
	sink         lfg.NotificationSink
	maxGroupSize int
	now          func() int64
	log          *slog.Logger

	mu         sync.Mutex
	roleChecks *rolecheck.Coordinator
	registry   *registry.Registry
	scheduler  *queue.Scheduler
}

// New builds a Manager from cfg.
func New(cfg Config) *Manager {
	if cfg.MaxGroupSize == 0 {
		cfg.MaxGroupSize = DefaultMaxGroupSize
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = func() int64 { panic("dungeonfinder: core.Config.Now not set") }
	}
	return &Manager{
		catalog:      cfg.Catalog,
		eligibility:  cfg.Eligibility,
		players:      cfg.Players,
		groups:       cfg.Groups,
		sink:         cfg.Sink,
		maxGroupSize: cfg.MaxGroupSize,
		now:          cfg.Now,
		log:          cfg.Log.With("component", "core"),
		roleChecks:   rolecheck.New(),
		registry:     registry.New(),
		scheduler:    queue.New(),
	}
}

// Stats summarizes live counts for the admin surface and metrics.
type Stats struct {
	ActiveRequests   int
	ActiveTickets    int
	QueuedEntries    int
	ActiveRoleChecks int
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.registry.Stats()
	return Stats{
		ActiveRequests:   rs.ActiveRequests,
		ActiveTickets:    rs.ActiveTickets,
		QueuedEntries:    m.scheduler.Len(),
		ActiveRoleChecks: m.roleChecks.Count(),
	}
}

// requesterFromPlayer and requesterFromGroup tag a RequesterID by its
// origin so later operations (leave, role selection) can recover whether
// it names a solo player or a party without a side table: the low bit is
// the tag, the remaining 63 bits are the original id.
func requesterFromPlayer(id lfg.PlayerID) lfg.RequesterID { return lfg.RequesterID(uint64(id) << 1) }
func requesterFromGroup(id lfg.GroupID) lfg.RequesterID {
	return lfg.RequesterID(uint64(id)<<1 | 1)
}
func groupIDFromRequester(r lfg.RequesterID) (lfg.GroupID, bool) {
	if uint64(r)&1 == 1 {
		return lfg.GroupID(uint64(r) >> 1), true
	}
	return 0, false
}

// ProcessJoin runs the full join pipeline for playerID: base eligibility,
// dungeon selection, lock checks, and either immediate enqueue (solo) or a
// launched role check (group). Every outcome, success or failure, is
// reported through the sink; ProcessJoin itself returns nothing because the
// host has no synchronous reply to give beyond what the sink already sent.
func (m *Manager) ProcessJoin(playerID lfg.PlayerID, selectedActivities []uint32, roleMask lfg.RoleMask) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.players.Player(playerID)
	if !ok {
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterFromPlayer(playerID), Result: lfg.ResultInternalError})
		return
	}

	members, requesterID, ok := m.resolveParty(player)
	if !ok {
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterFromPlayer(playerID), Result: lfg.ResultPartyInfoFailed})
		return
	}

	if result, passed := m.baseEligibility(members, player, roleMask); !passed {
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: result})
		return
	}

	entries, result, ok := m.knownActivities(selectedActivities)
	if !ok {
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: result})
		return
	}

	resolvedIDs, randomID, result, ok := m.classifyAndExpand(entries)
	if !ok {
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: result})
		return
	}

	locks, resolvedIDs, ok := m.applyLocks(members, resolvedIDs, randomID != 0)
	if !ok {
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: lfg.ResultNotMeetRequirements, Locks: locks})
		return
	}

	req := lfg.NewJoinRequest(requesterID)
	for _, id := range selectedActivities {
		req.SelectedActivities[id] = struct{}{}
	}
	for id := range resolvedIDs {
		req.ResolvedActivities[id] = struct{}{}
	}
	req.RandomActivityID = randomID
	slots := m.slotsFor(resolvedIDs)

	if len(members) == 1 {
		req.MemberRoles[player.ID()] = &lfg.MemberRole{RoleMask: roleMask | lfg.RoleLeader, Confirmed: true}
		m.registry.PutRequest(requesterID, req)
		ticket := m.registry.NewTicket(requesterID, m.now())
		m.scheduler.Insert(&lfg.QueueEntry{Ticket: ticket, Request: req})
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: lfg.ResultOK, Ticket: ticket})
		m.sink.StatusUpdate(lfg.StatusUpdateMsg{Ticket: ticket, Reason: lfg.UpdateJoinQueueInitial, Joined: true, LFGJoined: true, Slots: slots})
		m.sink.StatusUpdate(lfg.StatusUpdateMsg{Ticket: ticket, Reason: lfg.UpdateAddedToQueue, Joined: true, LFGJoined: true, Queued: true, Slots: slots})
		return
	}

	for _, mv := range members {
		if mv.ID() == player.ID() {
			req.MemberRoles[mv.ID()] = &lfg.MemberRole{RoleMask: roleMask | lfg.RoleLeader, Confirmed: true}
		} else {
			req.MemberRoles[mv.ID()] = &lfg.MemberRole{}
		}
	}
	m.registry.PutRequest(requesterID, req)
	groupID, _ := groupIDFromRequester(requesterID)
	update := m.roleChecks.Launch(groupID, req, slots)
	m.sink.RoleCheckUpdate(update)
}

// resolveParty resolves playerID's party, if any, into the full membership
// list and the requester id the rest of the pipeline should key state on.
func (m *Manager) resolveParty(player host.PlayerView) ([]host.PlayerView, lfg.RequesterID, bool) {
	if player.GroupID() == 0 {
		return []host.PlayerView{player}, requesterFromPlayer(player.ID()), true
	}
	group, ok := m.groups.Group(player.GroupID())
	if !ok {
		return nil, 0, false
	}
	ids := group.Members()
	members := make([]host.PlayerView, 0, len(ids))
	for _, id := range ids {
		mv, ok := m.players.Player(id)
		if !ok {
			return nil, 0, false
		}
		members = append(members, mv)
	}
	return members, requesterFromGroup(group.ID()), true
}

// baseEligibility runs the fixed, order-sensitive rule list every join must
// pass before dungeon selection is even considered. The first failing rule
// wins; class-role legality is checked only against the joining player's
// own role selection, since other party members have not chosen a role yet
// at this point in the flow (they do so during role-check).
func (m *Manager) baseEligibility(members []host.PlayerView, requester host.PlayerView, roleMask lfg.RoleMask) (lfg.JoinResult, bool) {
	for _, p := range members {
		if !p.HasJoinDungeonFinderPermission() {
			return lfg.ResultJoinFailed, false
		}
	}
	if rolecheck.HasInvalidRoles(requester.Class(), roleMask) {
		return lfg.ResultJoinFailed, false
	}
	for _, p := range members {
		if p.InRestrictedState() {
			return lfg.ResultUsingBattleground, false
		}
	}
	if requester.HasDeserterDebuff() {
		return lfg.ResultDeserter, false
	}
	for _, p := range members {
		if p.HasDeserterDebuff() {
			return lfg.ResultPartyDeserter, false
		}
	}
	if requester.HasRandomCooldownDebuff() {
		return lfg.ResultRandomCooldown, false
	}
	for _, p := range members {
		if p.HasRandomCooldownDebuff() {
			return lfg.ResultPartyRandomCooldown, false
		}
	}
	for _, p := range members {
		if p.IsGMFrozen() {
			return lfg.ResultJoinFailed, false
		}
	}
	if len(members) > m.maxGroupSize {
		return lfg.ResultTooManyMembers, false
	}
	for _, p := range members {
		if !p.IsConnected() {
			return lfg.ResultDisconnected, false
		}
	}
	return lfg.ResultOK, true
}

// knownActivities drops any selected id the catalog has never loaded. An
// empty result after dropping is InternalError: the host should never pass
// a selection entirely made of unknown ids.
func (m *Manager) knownActivities(selected []uint32) (map[uint32]lfg.CatalogEntry, lfg.JoinResult, bool) {
	entries := make(map[uint32]lfg.CatalogEntry)
	for _, id := range selected {
		if e, ok := m.catalog.Get(id); ok {
			entries[id] = e
		}
	}
	if len(entries) == 0 {
		return nil, lfg.ResultInternalError, false
	}
	return entries, lfg.ResultOK, true
}

// activityCategory classifies t into the three categories the join pipeline
// accepts. Only Dungeon, Raid, and Random selections can ever be queued; any
// other ActivityType (World, Heroic as a selectable type rather than a
// difficulty, or a future addition) is rejected outright, matching the
// original's ValidateAndBuildDungeonSelection which raises InternalError
// for "unsupported dungeon types."
func activityCategory(t lfg.ActivityType) (string, bool) {
	switch t {
	case lfg.ActivityRandom:
		return "random", true
	case lfg.ActivityRaid:
		return "raid", true
	case lfg.ActivityDungeon:
		return "dungeon", true
	default:
		return "", false
	}
}

// classifyAndExpand checks the selection is a single category (no mixing
// dungeon, raid, and random together) and, for a random pick, expands it to
// the catalog's precomputed concrete set.
func (m *Manager) classifyAndExpand(entries map[uint32]lfg.CatalogEntry) (map[uint32]struct{}, uint32, lfg.JoinResult, bool) {
	categories := make(map[string]struct{})
	for _, e := range entries {
		category, ok := activityCategory(e.Type)
		if !ok {
			return nil, 0, lfg.ResultInternalError, false
		}
		categories[category] = struct{}{}
	}
	if len(categories) > 1 {
		return nil, 0, lfg.ResultMixedRaidAndDungeon, false
	}

	var onlyCategory string
	for c := range categories {
		onlyCategory = c
	}

	if onlyCategory == "random" {
		if len(entries) != 1 {
			return nil, 0, lfg.ResultInternalError, false
		}
		var randomID uint32
		for id := range entries {
			randomID = id
		}
		expansion := m.catalog.Expansion(randomID)
		resolved := make(map[uint32]struct{}, len(expansion))
		for id := range expansion {
			resolved[id] = struct{}{}
		}
		return resolved, randomID, lfg.ResultOK, true
	}

	resolved := make(map[uint32]struct{}, len(entries))
	for id := range entries {
		resolved[id] = struct{}{}
	}
	return resolved, 0, lfg.ResultOK, true
}

// applyLocks removes any candidate activity at least one party member is
// locked out of. A non-random selection cannot tolerate any pruning at all:
// the player asked for that specific instance, not a substitute, so any
// lock found at all fails the whole join. A random selection simply narrows
// to whatever subset every member can play.
func (m *Manager) applyLocks(members []host.PlayerView, candidates map[uint32]struct{}, isRandom bool) (map[lfg.PlayerID]map[uint32]lfg.Lock, map[uint32]struct{}, bool) {
	locks := make(map[lfg.PlayerID]map[uint32]lfg.Lock)
	kept := make(map[uint32]struct{}, len(candidates))
	for id := range candidates {
		entry, ok := m.catalog.Get(id)
		if !ok {
			continue
		}
		lockedByAny := false
		for _, p := range members {
			res := m.eligibility.Evaluate(p, entry)
			if !res.Locked {
				continue
			}
			if locks[p.ID()] == nil {
				locks[p.ID()] = make(map[uint32]lfg.Lock)
			}
			locks[p.ID()][entry.ExternalSlotCode] = res.Lock
			lockedByAny = true
		}
		if !lockedByAny {
			kept[id] = struct{}{}
		}
	}
	if len(kept) == 0 || (!isRandom && len(locks) > 0) {
		return locks, kept, false
	}
	return locks, kept, true
}

func (m *Manager) slotsFor(ids map[uint32]struct{}) []uint32 {
	slots := make([]uint32, 0, len(ids))
	for id := range ids {
		if e, ok := m.catalog.Get(id); ok {
			slots = append(slots, e.ExternalSlotCode)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// ProcessRoleSelection records playerID's role choice within groupID's
// in-flight role check and carries out whatever transition results:
// enqueueing a ticket on success, purging state on a terminal failure, or
// simply relaying a non-terminal update.
func (m *Manager) ProcessRoleSelection(groupID lfg.GroupID, playerID lfg.PlayerID, roleMask lfg.RoleMask) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.players.Player(playerID)
	if !ok {
		return
	}

	res := m.roleChecks.SelectRole(groupID, playerID, player.Class(), roleMask)
	if !res.Accepted {
		m.log.Warn("role selection rejected for illegal class/role combination", "group_id", groupID, "player_id", playerID)
		return
	}
	m.sink.RoleChosen(res.Chosen)
	if !res.HasTransition {
		return
	}
	m.sink.RoleCheckUpdate(res.Transition.Update)
	if !res.Transition.Terminal {
		return
	}

	requesterID := requesterFromGroup(groupID)
	switch res.Transition.Update.State {
	case lfg.RoleCheckFinished:
		req := res.Transition.Request
		slots := res.Transition.Update.Slots
		ticket := m.registry.NewTicket(requesterID, m.now())
		m.scheduler.Insert(&lfg.QueueEntry{Ticket: ticket, Request: req})
		m.sink.StatusUpdate(lfg.StatusUpdateMsg{Ticket: ticket, Reason: lfg.UpdateJoinQueueInitial, IsParty: true, Joined: true, LFGJoined: true, Slots: slots})
		m.sink.StatusUpdate(lfg.StatusUpdateMsg{Ticket: ticket, Reason: lfg.UpdateAddedToQueue, IsParty: true, Joined: true, LFGJoined: true, Queued: true, Slots: slots})
	case lfg.RoleCheckNoRole, lfg.RoleCheckMissingRole, lfg.RoleCheckWrongRoles:
		m.registry.PurgeRequest(requesterID)
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: lfg.ResultRolecheckFailed, DetailCode: res.Transition.Update.State})
	case lfg.RoleCheckAborted:
		m.registry.PurgeRequest(requesterID)
	}
}

// ProcessLeave removes requesterID from whatever state it currently holds:
// an in-flight role check (cancelled), or a queued ticket (removed, and its
// JoinRequest purged unless the entry is retained by a running instance).
func (m *Manager) ProcessLeave(ticketID uint32, requesterID lfg.RequesterID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if groupID, ok := groupIDFromRequester(requesterID); ok && m.roleChecks.Active(groupID) {
		trans, ok := m.roleChecks.Cancel(groupID)
		if !ok {
			return
		}
		m.sink.RoleCheckUpdate(trans.Update)
		m.registry.PurgeRequest(requesterID)
		return
	}

	entry, ok := m.scheduler.Get(ticketID)
	if !ok {
		return
	}
	m.scheduler.Remove(ticketID)
	m.registry.RemoveTicket(requesterID)
	m.sink.StatusUpdate(lfg.StatusUpdateMsg{Ticket: entry.Ticket, Reason: lfg.UpdateRemovedFromQueue})
	if !entry.Retained() {
		m.registry.PurgeRequest(requesterID)
	}
}

// Tick advances both bounded timers (role-check timeouts, queue-status
// cadence) by deltaMS and emits whatever notifications fall out, exactly
// the collect-then-mutate sweep each sub-component already implements
// internally.
func (m *Manager) Tick(deltaMS int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, trans := range m.roleChecks.Tick(deltaMS) {
		m.sink.RoleCheckUpdate(trans.Update)
		requesterID := requesterFromGroup(trans.Update.GroupID)
		m.registry.PurgeRequest(requesterID)
		m.sink.JoinResult(lfg.JoinResultMsg{RequesterID: requesterID, Result: lfg.ResultRolecheckFailed, DetailCode: trans.Update.State})
	}
	for _, msg := range m.scheduler.Tick(deltaMS, now) {
		m.sink.QueueStatus(msg)
	}
}
