// Package memhost is a minimal, in-process host.PlayerResolver and
// host.GroupResolver backed by plain maps. The core never owns player or
// group state itself; something has to. A production dungeonfinderd is
// expected to link against the game server's real player directory
// instead, but a standalone process needs a concrete, embeddable one.
package memhost

import (
	"sync"

	"github.com/stonehall/dungeonfinder/internal/host"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// Player is a mutable, in-memory host.PlayerView.
type Player struct {
	mu sync.RWMutex

	id        lfg.PlayerID
	class     host.ClassID
	faction   host.Faction
	level     int
	expansion int
	itemLevel int
	groupID   lfg.GroupID

	permission bool
	restricted bool
	deserter   bool
	cooldown   bool
	frozen     bool
	connected  bool

	saved        []host.SavedInstance
	achievements map[uint32]bool
	quests       map[uint32]bool
	items        map[uint32]bool
}

// NewPlayer returns a Player with the connected/permitted defaults a fresh
// login has.
func NewPlayer(id lfg.PlayerID, class host.ClassID, faction host.Faction) *Player {
	return &Player{
		id:           id,
		class:        class,
		faction:      faction,
		level:        1,
		expansion:    0,
		permission:   true,
		connected:    true,
		achievements: make(map[uint32]bool),
		quests:       make(map[uint32]bool),
		items:        make(map[uint32]bool),
	}
}

func (p *Player) ID() lfg.PlayerID      { return p.id }
func (p *Player) Class() host.ClassID   { return p.class }
func (p *Player) Faction() host.Faction { return p.faction }

func (p *Player) Level() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *Player) Expansion() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expansion
}

func (p *Player) ItemLevel() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.itemLevel
}

func (p *Player) HasJoinDungeonFinderPermission() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.permission
}

func (p *Player) GroupID() lfg.GroupID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.groupID
}

func (p *Player) InRestrictedState() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.restricted
}

func (p *Player) HasDeserterDebuff() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deserter
}

func (p *Player) HasRandomCooldownDebuff() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cooldown
}

func (p *Player) IsGMFrozen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frozen
}

func (p *Player) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Player) SavedInstances() []host.SavedInstance {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]host.SavedInstance, len(p.saved))
	copy(out, p.saved)
	return out
}

func (p *Player) HasAchievement(id uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.achievements[id]
}

func (p *Player) HasCompletedQuest(id uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.quests[id]
}

func (p *Player) HasItem(id uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.items[id]
}

// The Set* methods mutate the fields a test harness or admin tool needs to
// flip, one field per call.
func (p *Player) SetLevel(level int) { p.mu.Lock(); defer p.mu.Unlock(); p.level = level }
func (p *Player) SetExpansion(expansion int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expansion = expansion
}
func (p *Player) SetItemLevel(itemLevel int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itemLevel = itemLevel
}
func (p *Player) SetGroupID(groupID lfg.GroupID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groupID = groupID
}
func (p *Player) SetPermission(v bool) { p.mu.Lock(); defer p.mu.Unlock(); p.permission = v }
func (p *Player) SetRestricted(v bool) { p.mu.Lock(); defer p.mu.Unlock(); p.restricted = v }
func (p *Player) SetDeserter(v bool)   { p.mu.Lock(); defer p.mu.Unlock(); p.deserter = v }
func (p *Player) SetCooldown(v bool)   { p.mu.Lock(); defer p.mu.Unlock(); p.cooldown = v }
func (p *Player) SetFrozen(v bool)     { p.mu.Lock(); defer p.mu.Unlock(); p.frozen = v }
func (p *Player) SetConnected(v bool)  { p.mu.Lock(); defer p.mu.Unlock(); p.connected = v }

func (p *Player) GrantAchievement(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.achievements[id] = true
}

func (p *Player) GrantQuest(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quests[id] = true
}

func (p *Player) GrantItem(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[id] = true
}

func (p *Player) AddSavedInstance(si host.SavedInstance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, si)
}

// Group is a mutable, in-memory host.GroupView.
type Group struct {
	mu       sync.RWMutex
	id       lfg.GroupID
	leaderID lfg.PlayerID
	members  []lfg.PlayerID
}

// NewGroup returns a Group led by leaderID, already a member.
func NewGroup(id lfg.GroupID, leaderID lfg.PlayerID) *Group {
	return &Group{id: id, leaderID: leaderID, members: []lfg.PlayerID{leaderID}}
}

func (g *Group) ID() lfg.GroupID        { return g.id }
func (g *Group) LeaderID() lfg.PlayerID { return g.leaderID }

func (g *Group) Members() []lfg.PlayerID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]lfg.PlayerID, len(g.members))
	copy(out, g.members)
	return out
}

func (g *Group) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// AddMember appends id to the roster if it is not already present.
func (g *Group) AddMember(id lfg.PlayerID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if m == id {
			return
		}
	}
	g.members = append(g.members, id)
}

// Store is a concurrency-safe directory of Players and Groups, implementing
// both host.PlayerResolver and host.GroupResolver.
type Store struct {
	mu      sync.RWMutex
	players map[lfg.PlayerID]*Player
	groups  map[lfg.GroupID]*Group
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		players: make(map[lfg.PlayerID]*Player),
		groups:  make(map[lfg.GroupID]*Group),
	}
}

// AddPlayer registers p, replacing any prior entry at the same id.
func (s *Store) AddPlayer(p *Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID()] = p
}

// AddGroup registers g, replacing any prior entry at the same id.
func (s *Store) AddGroup(g *Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID()] = g
}

// Player implements host.PlayerResolver.
func (s *Store) Player(id lfg.PlayerID) (host.PlayerView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, false
	}
	return p, true
}

// Group implements host.GroupResolver.
func (s *Store) Group(id lfg.GroupID) (host.GroupView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, false
	}
	return g, true
}

// AllowAllPolicy is a host.MapPolicy and host.AccessRequirements that never
// disables a map and never gates an activity behind an access requirement.
// A standalone daemon with no real game-data source uses this so the
// catalog and eligibility layers still have somewhere to call.
type AllowAllPolicy struct{}

func (AllowAllPolicy) MapDisabled(uint32) bool                     { return false }
func (AllowAllPolicy) DefaultEntrance(uint32) (lfg.Entrance, bool) { return lfg.Entrance{}, false }
func (AllowAllPolicy) KnownActivity(uint32) bool                   { return true }
func (AllowAllPolicy) RequirementFor(uint32) (host.AccessRequirement, bool) {
	return host.AccessRequirement{}, false
}
