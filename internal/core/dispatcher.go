package core

import (
	"log/slog"
	"sync"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// envelope carries exactly one outbound notification, tagged by kind so a
// single channel can multiplex all five message types. This generalizes the
// teacher's worker pool Task/Result pair: there the channel carried one
// concrete payload type per direction, here it carries a closed sum of
// notification kinds in one direction only (delivery has no result to
// report back).
type envelope struct {
	deliver func(lfg.NotificationSink)
}

// Dispatcher is a single goroutine draining a buffered notification
// channel, in the shape of the teacher's worker.Pool: NewDispatcher/Start/
// Stop lifecycle, a bounded channel, a WaitGroup for graceful shutdown. The
// differences are what it carries (outbound notifications instead of jobs),
// that it runs one delivery goroutine instead of a pool, and that a full
// channel drops the new notification instead of returning an error to the
// caller — Manager's entry points must never block or fail on a
// notification push.
type Dispatcher struct {
	sink lfg.NotificationSink
	ch   chan envelope
	wg   sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	dropped int64
	log     *slog.Logger
}

// NewDispatcher creates a Dispatcher with the given channel buffer size. It
// does not start draining until Start is called.
func NewDispatcher(sink lfg.NotificationSink, bufferSize int, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		sink: sink,
		ch:   make(chan envelope, bufferSize),
		log:  log.With("component", "dispatcher"),
	}
}

// Start launches a single goroutine draining the notification channel.
// Unlike the teacher's worker pool, this can never fan out to more than one
// delivery goroutine: notifications must reach the sink in the order they
// were produced (a StatusUpdate for AddedToQueue must not race a later
// JoinResult for the same ticket past a log or metrics sink), and a pool of
// workers ranging over the same channel gives no such guarantee.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.wg.Add(1)
	go d.run()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for e := range d.ch {
		e.deliver(d.sink)
	}
}

// push enqueues e without blocking. If the channel is full, the new
// envelope is dropped (not the oldest — Go channels give no cheap way to
// evict the head) and the drop is logged and counted; this still satisfies
// "if it blocks or fails, the core does not retry."
func (d *Dispatcher) push(e envelope) {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}
	select {
	case d.ch <- e:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		d.log.Warn("notification dropped, dispatcher channel full")
	}
}

// Dropped returns the number of notifications dropped for a full channel.
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Stop closes the channel and waits for the delivery goroutine to drain it.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.ch)
	d.wg.Wait()
}

// The five push helpers implement lfg.NotificationSink so a Dispatcher can
// be handed to Manager in place of a direct sink.
func (d *Dispatcher) JoinResult(msg lfg.JoinResultMsg) {
	d.push(envelope{deliver: func(s lfg.NotificationSink) { s.JoinResult(msg) }})
}

func (d *Dispatcher) StatusUpdate(msg lfg.StatusUpdateMsg) {
	d.push(envelope{deliver: func(s lfg.NotificationSink) { s.StatusUpdate(msg) }})
}

func (d *Dispatcher) RoleCheckUpdate(msg lfg.RoleCheckUpdateMsg) {
	d.push(envelope{deliver: func(s lfg.NotificationSink) { s.RoleCheckUpdate(msg) }})
}

func (d *Dispatcher) RoleChosen(msg lfg.RoleChosenMsg) {
	d.push(envelope{deliver: func(s lfg.NotificationSink) { s.RoleChosen(msg) }})
}

func (d *Dispatcher) QueueStatus(msg lfg.QueueStatusMsg) {
	d.push(envelope{deliver: func(s lfg.NotificationSink) { s.QueueStatus(msg) }})
}
