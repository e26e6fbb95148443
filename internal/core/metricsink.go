package core

import (
	"sync"

	"github.com/stonehall/dungeonfinder/internal/metrics"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// MetricsSink wraps another NotificationSink, recording each message it
// forwards against a metrics.Collector before delivering it unchanged. It
// tracks each in-flight role check's own launch time so
// RecordRoleCheckFinished gets a real elapsed duration, independent of
// anything Manager holds internally (Manager's mutex must never be
// re-entered from inside a sink callback).
type MetricsSink struct {
	next      lfg.NotificationSink
	collector *metrics.Collector
	now       func() int64

	mu      sync.Mutex
	started map[lfg.GroupID]int64
}

// NewMetricsSink wraps next, recording onto collector. now supplies the
// epoch-second clock used to time role checks.
func NewMetricsSink(next lfg.NotificationSink, collector *metrics.Collector, now func() int64) *MetricsSink {
	return &MetricsSink{
		next:      next,
		collector: collector,
		now:       now,
		started:   make(map[lfg.GroupID]int64),
	}
}

func (s *MetricsSink) JoinResult(msg lfg.JoinResultMsg) {
	s.next.JoinResult(msg)
}

// StatusUpdate counts AddedToQueue as an enqueued ticket: it is emitted once
// per scheduler insertion on both the solo and the group path, whereas a
// group whose role check finishes receives no OK JoinResult.
func (s *MetricsSink) StatusUpdate(msg lfg.StatusUpdateMsg) {
	switch msg.Reason {
	case lfg.UpdateAddedToQueue:
		s.collector.RecordTicketEnqueued()
	case lfg.UpdateRemovedFromQueue:
		s.collector.RecordTicketRemoved()
	}
	s.next.StatusUpdate(msg)
}

func (s *MetricsSink) RoleCheckUpdate(msg lfg.RoleCheckUpdateMsg) {
	switch {
	case msg.IsBeginning:
		s.collector.RecordRoleCheckStarted()
		s.mu.Lock()
		s.started[msg.GroupID] = s.now()
		s.mu.Unlock()
	case isTerminalRoleCheckState(msg.State):
		s.mu.Lock()
		startedAt, ok := s.started[msg.GroupID]
		delete(s.started, msg.GroupID)
		s.mu.Unlock()
		var elapsed float64
		if ok {
			elapsed = float64(s.now() - startedAt)
		}
		s.collector.RecordRoleCheckFinished(msg.State, elapsed)
	}
	s.next.RoleCheckUpdate(msg)
}

func isTerminalRoleCheckState(state lfg.RoleCheckState) bool {
	switch state {
	case lfg.RoleCheckFinished, lfg.RoleCheckNoRole, lfg.RoleCheckMissingRole, lfg.RoleCheckWrongRoles, lfg.RoleCheckAborted:
		return true
	default:
		return false
	}
}

func (s *MetricsSink) RoleChosen(msg lfg.RoleChosenMsg) {
	s.next.RoleChosen(msg)
}

func (s *MetricsSink) QueueStatus(msg lfg.QueueStatusMsg) {
	s.next.QueueStatus(msg)
}
