package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonehall/dungeonfinder/internal/catalog"
	"github.com/stonehall/dungeonfinder/internal/eligibility"
	"github.com/stonehall/dungeonfinder/internal/host"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// fakePlayer is a fully mutable host.PlayerView for test setup.
type fakePlayer struct {
	id           lfg.PlayerID
	class        host.ClassID
	faction      host.Faction
	level        int
	expansion    int
	itemLevel    int
	permission   bool
	groupID      lfg.GroupID
	restricted   bool
	deserter     bool
	cooldown     bool
	frozen       bool
	connected    bool
	saved        []host.SavedInstance
	achievements map[uint32]bool
	quests       map[uint32]bool
	items        map[uint32]bool
}

func newFakePlayer(id lfg.PlayerID) *fakePlayer {
	return &fakePlayer{id: id, permission: true, connected: true, level: 85, expansion: 4, itemLevel: 380}
}

func (p *fakePlayer) ID() lfg.PlayerID                     { return p.id }
func (p *fakePlayer) Class() host.ClassID                  { return p.class }
func (p *fakePlayer) Faction() host.Faction                { return p.faction }
func (p *fakePlayer) Level() int                           { return p.level }
func (p *fakePlayer) Expansion() int                       { return p.expansion }
func (p *fakePlayer) ItemLevel() int                       { return p.itemLevel }
func (p *fakePlayer) HasJoinDungeonFinderPermission() bool { return p.permission }
func (p *fakePlayer) GroupID() lfg.GroupID                 { return p.groupID }
func (p *fakePlayer) InRestrictedState() bool              { return p.restricted }
func (p *fakePlayer) HasDeserterDebuff() bool              { return p.deserter }
func (p *fakePlayer) HasRandomCooldownDebuff() bool        { return p.cooldown }
func (p *fakePlayer) IsGMFrozen() bool                     { return p.frozen }
func (p *fakePlayer) IsConnected() bool                    { return p.connected }
func (p *fakePlayer) SavedInstances() []host.SavedInstance { return p.saved }
func (p *fakePlayer) HasAchievement(id uint32) bool        { return p.achievements[id] }
func (p *fakePlayer) HasCompletedQuest(id uint32) bool     { return p.quests[id] }
func (p *fakePlayer) HasItem(id uint32) bool               { return p.items[id] }

type fakeGroup struct {
	id      lfg.GroupID
	leader  lfg.PlayerID
	members []lfg.PlayerID
}

func (g *fakeGroup) ID() lfg.GroupID         { return g.id }
func (g *fakeGroup) LeaderID() lfg.PlayerID  { return g.leader }
func (g *fakeGroup) Members() []lfg.PlayerID { return g.members }
func (g *fakeGroup) MemberCount() int        { return len(g.members) }

type fakeHost struct {
	players map[lfg.PlayerID]host.PlayerView
	groups  map[lfg.GroupID]host.GroupView
}

func newFakeHost() *fakeHost {
	return &fakeHost{players: make(map[lfg.PlayerID]host.PlayerView), groups: make(map[lfg.GroupID]host.GroupView)}
}
func (h *fakeHost) Player(id lfg.PlayerID) (host.PlayerView, bool) {
	p, ok := h.players[id]
	return p, ok
}
func (h *fakeHost) Group(id lfg.GroupID) (host.GroupView, bool) { g, ok := h.groups[id]; return g, ok }
func (h *fakeHost) add(p *fakePlayer)                           { h.players[p.id] = p }

type fakeSink struct {
	joinResults   []lfg.JoinResultMsg
	statusUpdates []lfg.StatusUpdateMsg
	roleUpdates   []lfg.RoleCheckUpdateMsg
	roleChosen    []lfg.RoleChosenMsg
	queueStatus   []lfg.QueueStatusMsg
}

func (s *fakeSink) JoinResult(msg lfg.JoinResultMsg) { s.joinResults = append(s.joinResults, msg) }
func (s *fakeSink) StatusUpdate(msg lfg.StatusUpdateMsg) {
	s.statusUpdates = append(s.statusUpdates, msg)
}
func (s *fakeSink) RoleCheckUpdate(msg lfg.RoleCheckUpdateMsg) {
	s.roleUpdates = append(s.roleUpdates, msg)
}
func (s *fakeSink) RoleChosen(msg lfg.RoleChosenMsg)   { s.roleChosen = append(s.roleChosen, msg) }
func (s *fakeSink) QueueStatus(msg lfg.QueueStatusMsg) { s.queueStatus = append(s.queueStatus, msg) }

type stubMapPolicy struct{}

func (stubMapPolicy) MapDisabled(uint32) bool { return false }
func (stubMapPolicy) DefaultEntrance(uint32) (lfg.Entrance, bool) {
	return lfg.Entrance{}, true
}
func (stubMapPolicy) KnownActivity(uint32) bool { return true }

func buildCatalog(t *testing.T, entries ...lfg.CatalogEntry) *catalog.Catalog {
	t.Helper()
	var templates []catalog.TemplateRow
	var acts []lfg.Activity
	for _, e := range entries {
		templates = append(templates, catalog.TemplateRow{
			ActivityID: e.ID, X: e.Entrance.X, Y: e.Entrance.Y, Z: e.Entrance.Z,
			Orientation: e.Entrance.Orientation, RequiredItemLevel: e.RequiredItemLevel,
		})
		acts = append(acts, e.Activity)
	}
	c, err := catalog.Load(
		stubTemplates{rows: templates},
		stubRewards{},
		stubActivities{acts: acts},
		nil,
		stubMapPolicy{},
		nil,
		nil,
	)
	require.NoError(t, err)
	return c
}

type stubTemplates struct{ rows []catalog.TemplateRow }

func (s stubTemplates) LoadTemplates() ([]catalog.TemplateRow, error) { return s.rows, nil }

type stubRewards struct{}

func (stubRewards) LoadRewards() ([]catalog.RewardRow, error) { return nil, nil }

type stubActivities struct{ acts []lfg.Activity }

func (s stubActivities) LoadActivities() ([]lfg.Activity, error) { return s.acts, nil }

func dungeonActivity(id, mapID uint32) lfg.CatalogEntry {
	return lfg.CatalogEntry{
		Activity: lfg.Activity{
			ID: id, MapID: mapID, Type: lfg.ActivityDungeon, Difficulty: lfg.DifficultyNormal,
			MinLevel: 80, MaxLevel: 85, RequiredExpansion: 4, ExternalSlotCode: id,
		},
	}
}

func dungeonActivityInPool(id, mapID, randomParentID uint32) lfg.CatalogEntry {
	e := dungeonActivity(id, mapID)
	e.RandomParentID = randomParentID
	return e
}

func raidActivity(id, mapID uint32) lfg.CatalogEntry {
	return lfg.CatalogEntry{
		Activity: lfg.Activity{
			ID: id, MapID: mapID, Type: lfg.ActivityRaid, Difficulty: lfg.DifficultyHeroic,
			MinLevel: 80, MaxLevel: 85, RequiredExpansion: 4, ExternalSlotCode: id,
		},
	}
}

func worldActivity(id, mapID uint32) lfg.CatalogEntry {
	return lfg.CatalogEntry{
		Activity: lfg.Activity{
			ID: id, MapID: mapID, Type: lfg.ActivityWorld, Difficulty: lfg.DifficultyNormal,
			MinLevel: 80, MaxLevel: 85, RequiredExpansion: 4, ExternalSlotCode: id,
		},
	}
}

func randomActivity(id uint32) lfg.CatalogEntry {
	return lfg.CatalogEntry{
		Activity: lfg.Activity{
			ID: id, Type: lfg.ActivityRandom, MinLevel: 80, MaxLevel: 85, RequiredExpansion: 4, ExternalSlotCode: id,
		},
	}
}

func newTestManager(t *testing.T, h *fakeHost, c *catalog.Catalog, sink *fakeSink, clock func() int64) *Manager {
	t.Helper()
	eval := &eligibility.Evaluator{Catalog: c, MapPolicy: stubMapPolicy{}}
	return New(Config{
		Catalog:     c,
		Eligibility: eval,
		Players:     h,
		Groups:      h,
		Sink:        sink,
		Now:         clock,
	})
}

// Scenario 1: solo random join with a fully eligible expansion set.
func TestProcessJoin_SoloRandomJoin(t *testing.T) {
	c := buildCatalog(t, randomActivity(301),
		dungeonActivityInPool(501, 1, 301), dungeonActivityInPool(502, 2, 301), dungeonActivityInPool(503, 3, 301))
	h := newFakeHost()
	p := newFakePlayer(1)
	h.add(p)
	sink := &fakeSink{}
	clock := func() int64 { return 1000 }
	m := newTestManager(t, h, c, sink, clock)

	m.ProcessJoin(1, []uint32{301}, lfg.RoleDamage)

	require.Len(t, sink.joinResults, 1)
	assert.Equal(t, lfg.ResultOK, sink.joinResults[0].Result)
	assert.Equal(t, uint32(0), sink.joinResults[0].Ticket.ID)
	require.Len(t, sink.statusUpdates, 2)
	assert.Equal(t, lfg.UpdateJoinQueueInitial, sink.statusUpdates[0].Reason)
	assert.Equal(t, lfg.UpdateAddedToQueue, sink.statusUpdates[1].Reason)
}

// Scenario 2: mixing dungeon and raid categories fails with no ticket.
func TestProcessJoin_MixedSelectionRejected(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(101, 1), raidActivity(202, 2))
	h := newFakeHost()
	p := newFakePlayer(1)
	h.add(p)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{101, 202}, lfg.RoleDamage)

	require.Len(t, sink.joinResults, 1)
	assert.Equal(t, lfg.ResultMixedRaidAndDungeon, sink.joinResults[0].Result)
	assert.Empty(t, sink.statusUpdates)
	assert.False(t, m.registry.HasActiveRequest(requesterFromPlayer(1)))
}

// A selection of a type the join pipeline never accepts (anything other than
// Dungeon, Raid, or Random) is rejected as InternalError, not silently
// folded into the dungeon category.
func TestProcessJoin_UnsupportedActivityTypeRejected(t *testing.T) {
	c := buildCatalog(t, worldActivity(901, 9))
	h := newFakeHost()
	p := newFakePlayer(1)
	h.add(p)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{901}, lfg.RoleDamage)

	require.Len(t, sink.joinResults, 1)
	assert.Equal(t, lfg.ResultInternalError, sink.joinResults[0].Result)
	assert.Empty(t, sink.statusUpdates)
	assert.False(t, m.registry.HasActiveRequest(requesterFromPlayer(1)))
}

func buildGroup(h *fakeHost, groupID lfg.GroupID, ids ...lfg.PlayerID) *fakeGroup {
	g := &fakeGroup{id: groupID, leader: ids[0], members: ids}
	for _, id := range ids {
		p := newFakePlayer(id)
		p.groupID = groupID
		h.add(p)
	}
	h.groups[groupID] = g
	return g
}

// Scenario 3: group role-check happy path finishing on the fifth confirmation.
func TestProcessJoin_GroupRoleCheckHappyPath(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(100, 1))
	h := newFakeHost()
	buildGroup(h, 1, 1, 2, 3, 4, 5)
	h.players[2].(*fakePlayer).class = host.ClassPriest
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 500 })

	m.ProcessJoin(1, []uint32{100}, lfg.RoleTank)
	require.Len(t, sink.roleUpdates, 1)
	assert.Equal(t, lfg.RoleCheckInitializing, sink.roleUpdates[0].State)
	assert.True(t, sink.roleUpdates[0].IsBeginning)

	m.ProcessRoleSelection(1, 2, lfg.RoleHeal)
	m.ProcessRoleSelection(1, 3, lfg.RoleDamage)
	m.ProcessRoleSelection(1, 4, lfg.RoleDamage)
	m.ProcessRoleSelection(1, 5, lfg.RoleDamage)

	last := sink.roleUpdates[len(sink.roleUpdates)-1]
	assert.Equal(t, lfg.RoleCheckFinished, last.State)
	require.Len(t, sink.statusUpdates, 2)
	assert.Equal(t, lfg.UpdateJoinQueueInitial, sink.statusUpdates[0].Reason)
	assert.Equal(t, lfg.UpdateAddedToQueue, sink.statusUpdates[1].Reason)
}

// Scenario 4: role-check timeout purges the request with no ticket.
func TestProcessJoin_RoleCheckTimeout(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(100, 1))
	h := newFakeHost()
	buildGroup(h, 1, 1, 2, 3, 4, 5)
	h.players[2].(*fakePlayer).class = host.ClassPriest
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{100}, lfg.RoleTank)
	m.ProcessRoleSelection(1, 2, lfg.RoleHeal)
	m.ProcessRoleSelection(1, 3, lfg.RoleDamage)
	m.ProcessRoleSelection(1, 4, lfg.RoleDamage)

	m.Tick(120_000)

	last := sink.roleUpdates[len(sink.roleUpdates)-1]
	assert.Equal(t, lfg.RoleCheckMissingRole, last.State)
	assert.False(t, m.registry.HasActiveRequest(requesterFromGroup(1)))
	assert.Equal(t, 0, m.scheduler.Len())
}

// Scenario 5: a member picking zero roles fails the whole check immediately.
func TestProcessJoin_MemberPicksZeroRoles(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(100, 1))
	h := newFakeHost()
	buildGroup(h, 1, 1, 2)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{100}, lfg.RoleTank)
	m.ProcessRoleSelection(1, 2, lfg.RoleNone)

	require.Len(t, sink.joinResults, 1)
	assert.Equal(t, lfg.ResultRolecheckFailed, sink.joinResults[0].Result)
	assert.Equal(t, lfg.RoleCheckNoRole, sink.joinResults[0].DetailCode)
	last := sink.roleUpdates[len(sink.roleUpdates)-1]
	assert.Equal(t, lfg.RoleCheckNoRole, last.State)
	assert.False(t, m.registry.HasActiveRequest(requesterFromGroup(1)))
}

// Scenario 6: a locked non-random selection fails with the lock map attached.
func TestProcessJoin_LockedNonRandomSelection(t *testing.T) {
	entry := raidActivity(700, 7)
	c := buildCatalog(t, entry)
	h := newFakeHost()
	buildGroup(h, 1, 1, 2)
	aPlayer := h.players[1].(*fakePlayer)
	aPlayer.achievements = map[uint32]bool{999: true}
	sink := &fakeSink{}
	eval := &eligibility.Evaluator{Catalog: c, MapPolicy: stubMapPolicy{}, Access: stubAccessGated{}}
	m := New(Config{Catalog: c, Eligibility: eval, Players: h, Groups: h, Sink: sink, Now: func() int64 { return 0 }})

	m.ProcessJoin(1, []uint32{700}, lfg.RoleTank)

	require.Len(t, sink.joinResults, 1)
	assert.Equal(t, lfg.ResultNotMeetRequirements, sink.joinResults[0].Result)
	locks := sink.joinResults[0].Locks
	require.Contains(t, locks, lfg.PlayerID(2))
	lock := locks[lfg.PlayerID(2)][700]
	assert.Equal(t, lfg.LockMissingAchievement, lock.Reason)
}

type stubAccessGated struct{}

func (stubAccessGated) RequirementFor(activityID uint32) (host.AccessRequirement, bool) {
	if activityID == 700 {
		return host.AccessRequirement{RequiredAchievement: 999}, true
	}
	return host.AccessRequirement{}, false
}

func TestProcessJoin_TooManyMembers(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(100, 1))
	h := newFakeHost()
	buildGroup(h, 1, 1, 2, 3, 4, 5, 6)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{100}, lfg.RoleTank)

	require.Len(t, sink.joinResults, 1)
	assert.Equal(t, lfg.ResultTooManyMembers, sink.joinResults[0].Result)
}

func TestProcessJoin_ExactMaxGroupSizeAllowed(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(100, 1))
	h := newFakeHost()
	buildGroup(h, 1, 1, 2, 3, 4, 5)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{100}, lfg.RoleTank)

	assert.Empty(t, sink.joinResults)
	require.Len(t, sink.roleUpdates, 1)
}

func TestProcessLeave_RemovesQueuedTicketAndPurgesRequest(t *testing.T) {
	c := buildCatalog(t, randomActivity(301), dungeonActivityInPool(501, 1, 301))
	h := newFakeHost()
	p := newFakePlayer(1)
	h.add(p)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 10 })

	m.ProcessJoin(1, []uint32{301}, lfg.RoleDamage)
	ticket := sink.joinResults[0].Ticket

	m.ProcessLeave(ticket.ID, requesterFromPlayer(1))

	assert.Equal(t, 0, m.scheduler.Len())
	assert.False(t, m.registry.HasActiveRequest(requesterFromPlayer(1)))
	last := sink.statusUpdates[len(sink.statusUpdates)-1]
	assert.Equal(t, lfg.UpdateRemovedFromQueue, last.Reason)
}

func TestProcessLeave_CancelsActiveRoleCheck(t *testing.T) {
	c := buildCatalog(t, dungeonActivity(100, 1))
	h := newFakeHost()
	buildGroup(h, 1, 1, 2)
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{100}, lfg.RoleTank)
	m.ProcessLeave(0, requesterFromGroup(1))

	last := sink.roleUpdates[len(sink.roleUpdates)-1]
	assert.Equal(t, lfg.RoleCheckAborted, last.State)
	assert.False(t, m.registry.HasActiveRequest(requesterFromGroup(1)))
}

func TestTicketIDs_StrictlyIncreasing(t *testing.T) {
	c := buildCatalog(t, randomActivity(301), dungeonActivityInPool(501, 1, 301))
	h := newFakeHost()
	h.add(newFakePlayer(1))
	h.add(newFakePlayer(2))
	sink := &fakeSink{}
	m := newTestManager(t, h, c, sink, func() int64 { return 0 })

	m.ProcessJoin(1, []uint32{301}, lfg.RoleDamage)
	m.ProcessJoin(2, []uint32{301}, lfg.RoleDamage)

	require.Len(t, sink.joinResults, 2)
	assert.Less(t, sink.joinResults[0].Ticket.ID, sink.joinResults[1].Ticket.ID)
}
