package core

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/stonehall/dungeonfinder/internal/metrics"
	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

func TestMetricsSink_ForwardsAndRecords(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := metrics.NewCollector()

	var clock int64
	next := &fakeSink{}
	sink := NewMetricsSink(next, collector, func() int64 { return clock })

	assert.NotPanics(t, func() {
		sink.JoinResult(lfg.JoinResultMsg{Result: lfg.ResultOK})
		sink.StatusUpdate(lfg.StatusUpdateMsg{Reason: lfg.UpdateRemovedFromQueue})

		clock = 10
		sink.RoleCheckUpdate(lfg.RoleCheckUpdateMsg{GroupID: 1, State: lfg.RoleCheckInitializing, IsBeginning: true})
		clock = 25
		sink.RoleCheckUpdate(lfg.RoleCheckUpdateMsg{GroupID: 1, State: lfg.RoleCheckFinished})

		sink.RoleChosen(lfg.RoleChosenMsg{Player: 1, RoleMask: lfg.RoleTank})
		sink.QueueStatus(lfg.QueueStatusMsg{})
	})

	assert.Len(t, next.joinResults, 1)
	assert.Len(t, next.statusUpdates, 1)
	assert.Len(t, next.roleUpdates, 2)
	assert.Len(t, next.roleChosen, 1)
	assert.Len(t, next.queueStatus, 1)
}
