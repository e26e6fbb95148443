package core

import (
	"log/slog"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// LogSink is a lfg.NotificationSink that only logs. It is the default sink
// a standalone process wires in when nothing downstream (a real game
// server's session layer) is linked in to actually deliver notifications to
// a client.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink returns a LogSink; a nil logger falls back to slog.Default().
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log.With("component", "notify")}
}

func (s *LogSink) JoinResult(msg lfg.JoinResultMsg) {
	s.log.Info("join result", "requester_id", msg.RequesterID, "result", msg.Result, "ticket_id", msg.Ticket.ID)
}

func (s *LogSink) StatusUpdate(msg lfg.StatusUpdateMsg) {
	s.log.Info("status update", "ticket_id", msg.Ticket.ID, "reason", msg.Reason)
}

func (s *LogSink) RoleCheckUpdate(msg lfg.RoleCheckUpdateMsg) {
	s.log.Info("role check update", "group_id", msg.GroupID, "state", msg.State)
}

func (s *LogSink) RoleChosen(msg lfg.RoleChosenMsg) {
	s.log.Info("role chosen", "player_id", msg.Player, "role_mask", msg.RoleMask)
}

func (s *LogSink) QueueStatus(msg lfg.QueueStatusMsg) {
	s.log.Debug("queue status", "ticket_id", msg.Ticket.ID, "time_in_queue_s", msg.TimeInQueueSeconds)
}
