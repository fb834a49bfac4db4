package services

import (
	"log"
	"sync"
	"time"
)

// roomReaper arms one-shot deferred checks for rooms that became empty.
// Timers are keyed by room id: scheduling again replaces the pending timer,
// and a rejoin cancels it outright. The fire path still re-reads membership
// through the remove callback before deleting, so a rejoin that races the
// timer can never lose its room.
type roomReaper struct {
	mu      sync.Mutex
	grace   time.Duration
	timers  map[string]*time.Timer
	remove  func(roomID string) bool
	stopped bool
}

func newRoomReaper(grace time.Duration, remove func(roomID string) bool) *roomReaper {
	return &roomReaper{
		grace:  grace,
		timers: make(map[string]*time.Timer),
		remove: remove,
	}
}

// schedule arms (or re-arms) the empty check for roomID.
func (rp *roomReaper) schedule(roomID string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.stopped {
		return
	}
	if t, ok := rp.timers[roomID]; ok {
		t.Stop()
	}
	rp.timers[roomID] = time.AfterFunc(rp.grace, func() {
		rp.reap(roomID)
	})
}

// cancel disarms a pending check, if any.
func (rp *roomReaper) cancel(roomID string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if t, ok := rp.timers[roomID]; ok {
		t.Stop()
		delete(rp.timers, roomID)
	}
}

func (rp *roomReaper) reap(roomID string) {
	rp.mu.Lock()
	delete(rp.timers, roomID)
	stopped := rp.stopped
	rp.mu.Unlock()

	if stopped {
		return
	}
	if rp.remove(roomID) {
		log.Printf("Room %s expired after grace period", roomID)
	}
}

// stop disarms every pending check and rejects new ones.
func (rp *roomReaper) stop() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.stopped = true
	for id, t := range rp.timers {
		t.Stop()
		delete(rp.timers, id)
	}
}
