// Package queue is the Queue Scheduler: it holds queued tickets, runs a
// matchmaking pass on a fixed tick, and marks tickets needing a status
// push. The tick's two phases (timer sweep, then queue update) are driven
// by the core's Manager; this package owns only the queue-update half.
package queue

import (
	"sort"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// UpdateIntervalMS is the fixed queue-status cadence: five seconds.
const UpdateIntervalMS int64 = 5_000

// MatchThreshold is the number of distinct requesters queued for the same
// activity before Scheduler marks them needing a status push. This is a
// deliberately generous placeholder, not real instance-placement math: the
// source's matchmaking body is an unimplemented stub, and the only
// contract this specification defines is the push cadence, not match
// policy.
const MatchThreshold = 5

// Scheduler holds ticket_id -> QueueEntry, ordered by insertion.
type Scheduler struct {
	entries  map[uint32]*lfg.QueueEntry
	order    []uint32
	interval int64

	lastBucketStats map[uint32]bucketStats
}

type bucketStats struct {
	avgWaitSeconds  int64
	remainingNeeded [3]int
}

// New returns an empty Scheduler with a fresh 5-second queue-update window.
func New() *Scheduler {
	return &Scheduler{
		entries:  make(map[uint32]*lfg.QueueEntry),
		interval: UpdateIntervalMS,
	}
}

// Insert adds entry to the scheduler, keyed by its ticket id.
func (s *Scheduler) Insert(entry *lfg.QueueEntry) {
	id := entry.Ticket.ID
	if _, exists := s.entries[id]; !exists {
		s.order = append(s.order, id)
	}
	s.entries[id] = entry
}

// Remove deletes ticketID's entry, if any.
func (s *Scheduler) Remove(ticketID uint32) {
	if _, ok := s.entries[ticketID]; !ok {
		return
	}
	delete(s.entries, ticketID)
	for i, id := range s.order {
		if id == ticketID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns ticketID's entry, if queued.
func (s *Scheduler) Get(ticketID uint32) (*lfg.QueueEntry, bool) {
	e, ok := s.entries[ticketID]
	return e, ok
}

// Len reports the number of queued entries.
func (s *Scheduler) Len() int { return len(s.entries) }

// Tick advances the queue-update countdown by deltaMS. Every time it
// reaches zero the countdown resets, a matchmaking pass runs, and every
// entry left flagged needs_status_push gets a queue-status message built
// and its flag cleared.
func (s *Scheduler) Tick(deltaMS int64, nowEpochSeconds int64) []lfg.QueueStatusMsg {
	s.interval -= deltaMS
	if s.interval > 0 {
		return nil
	}
	s.interval = UpdateIntervalMS

	s.runMatchmakingPass()

	var out []lfg.QueueStatusMsg
	for _, id := range s.order {
		entry := s.entries[id]
		if !entry.NeedsStatusPush {
			continue
		}
		out = append(out, s.buildStatus(entry, nowEpochSeconds))
		entry.NeedsStatusPush = false
	}
	return out
}

// primaryActivity picks the deterministic bucket key for an entry: the
// lowest resolved activity id, or zero if the request resolved to nothing
// (shouldn't happen for a live entry, but guards against a stray one).
func primaryActivity(req *lfg.JoinRequest) uint32 {
	if req == nil || len(req.ResolvedActivities) == 0 {
		return 0
	}
	ids := make([]uint32, 0, len(req.ResolvedActivities))
	for id := range req.ResolvedActivities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[0]
}

// runMatchmakingPass groups queued entries by their resolved activity,
// ignoring any entry still bound to a running instance from a prior match.
// Once a bucket accumulates at least MatchThreshold distinct requesters, its
// entries are marked needing a status push.
func (s *Scheduler) runMatchmakingPass() {
	buckets := make(map[uint32][]*lfg.QueueEntry)
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.Retained() {
			continue
		}
		act := primaryActivity(entry.Request)
		if act == 0 {
			continue
		}
		buckets[act] = append(buckets[act], entry)
	}

	stats := make(map[uint32]bucketStats, len(buckets))
	for act, group := range buckets {
		stats[act] = computeBucketStats(group)
		if len(group) >= MatchThreshold {
			for _, e := range group {
				e.NeedsStatusPush = true
			}
		}
	}
	s.lastBucketStats = stats
}

func computeBucketStats(group []*lfg.QueueEntry) bucketStats {
	have := [3]int{}
	for _, e := range group {
		for _, m := range e.Request.MemberRoles {
			if m.RoleMask.Has(lfg.RoleTank) {
				have[0]++
			}
			if m.RoleMask.Has(lfg.RoleHeal) {
				have[1]++
			}
			if m.RoleMask.Has(lfg.RoleDamage) {
				have[2]++
			}
		}
	}
	needed := [3]int{1, 1, 3}
	remaining := [3]int{}
	for i := range needed {
		if have[i] < needed[i] {
			remaining[i] = needed[i] - have[i]
		}
	}
	return bucketStats{remainingNeeded: remaining}
}

// buildStatus composes a queue-status message for entry. avg_wait is
// approximated by the entry's own elapsed wait, since no completed-match
// history exists yet to average over; avg_wait_by_role mirrors the same
// figure across all three roles for the same reason.
func (s *Scheduler) buildStatus(entry *lfg.QueueEntry, nowEpochSeconds int64) lfg.QueueStatusMsg {
	waited := nowEpochSeconds - entry.Ticket.CreatedAt
	if waited < 0 {
		waited = 0
	}
	remaining := [3]int{}
	if st, ok := s.lastBucketStats[primaryActivity(entry.Request)]; ok {
		remaining = st.remainingNeeded
	}
	return lfg.QueueStatusMsg{
		Ticket:               entry.Ticket,
		TimeInQueueSeconds:   waited,
		AvgWaitSeconds:       waited,
		AvgWaitByRole:        [3]int64{waited, waited, waited},
		RemainingNeededRoles: remaining,
	}
}
