package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

func newEntry(ticketID uint32, createdAt int64, activityID uint32) *lfg.QueueEntry {
	req := lfg.NewJoinRequest(lfg.RequesterID(ticketID))
	req.ResolvedActivities[activityID] = struct{}{}
	req.MemberRoles[lfg.PlayerID(ticketID)] = &lfg.MemberRole{RoleMask: lfg.RoleDamage, Confirmed: true}
	return &lfg.QueueEntry{
		Ticket:  lfg.Ticket{ID: ticketID, Type: lfg.TicketType, CreatedAt: createdAt, RequesterID: lfg.RequesterID(ticketID)},
		Request: req,
	}
}

func TestScheduler_InsertGetRemove(t *testing.T) {
	s := New()
	e := newEntry(1, 0, 100)
	s.Insert(e)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Same(t, e, got)

	s.Remove(1)
	assert.Equal(t, 0, s.Len())
	_, ok = s.Get(1)
	assert.False(t, ok)
}

func TestScheduler_Tick_NoPushBeforeInterval(t *testing.T) {
	s := New()
	s.Insert(newEntry(1, 0, 100))

	msgs := s.Tick(UpdateIntervalMS-1, 1)
	assert.Nil(t, msgs)
}

func TestScheduler_Tick_MatchThresholdTriggersPush(t *testing.T) {
	s := New()
	for i := uint32(1); i <= MatchThreshold; i++ {
		s.Insert(newEntry(i, 0, 100))
	}

	msgs := s.Tick(UpdateIntervalMS, 10)
	require.Len(t, msgs, MatchThreshold)
	for _, m := range msgs {
		assert.Equal(t, int64(10), m.TimeInQueueSeconds)
	}
}

func TestScheduler_Tick_BelowThresholdNoPush(t *testing.T) {
	s := New()
	s.Insert(newEntry(1, 0, 100))
	s.Insert(newEntry(2, 0, 100))

	msgs := s.Tick(UpdateIntervalMS, 10)
	assert.Empty(t, msgs)
}

func TestScheduler_Tick_IgnoresRetainedEntries(t *testing.T) {
	s := New()
	retained := newEntry(1, 0, 100)
	retained.CurrentActivityID = 100
	s.Insert(retained)
	for i := uint32(2); i <= MatchThreshold; i++ {
		s.Insert(newEntry(i, 0, 100))
	}

	msgs := s.Tick(UpdateIntervalMS, 10)
	// Retained entry isn't counted toward the bucket and doesn't get a push.
	for _, m := range msgs {
		assert.NotEqual(t, uint32(1), m.Ticket.ID)
	}
}

func TestScheduler_RemainingNeededRoles(t *testing.T) {
	s := New()
	for i := uint32(1); i <= MatchThreshold; i++ {
		s.Insert(newEntry(i, 0, 100))
	}
	msgs := s.Tick(UpdateIntervalMS, 0)
	require.NotEmpty(t, msgs)
	// All MatchThreshold members picked damage only: tank and heal still needed.
	assert.Equal(t, 1, msgs[0].RemainingNeededRoles[0])
	assert.Equal(t, 1, msgs[0].RemainingNeededRoles[1])
}
