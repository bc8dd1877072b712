// Package session hosts live game sessions. Each session is a Room: one
// engine owned by one goroutine. The host tracks which rooms have a
// connection attached and expires detached rooms after a resume window.
package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"imposter-server/feedback"
	"imposter-server/game"
	"imposter-server/gameerrors"
	"imposter-server/random"
)

type entry struct {
	room     *Room
	attached bool
	owner    feedback.Sink
	gen      uint64
	expiry   *time.Timer
}

// Evictable is implemented by sinks that can be told another connection has
// taken over their room.
type Evictable interface {
	Evict()
}

// Host creates and tracks rooms.
type Host struct {
	corpus Corpus
	store  SettingsStore
	base   feedback.Sink
	window time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	rooms map[string]*entry
}

// NewHost returns a host. rng seeds each room's engine; window is how long a
// detached room waits for Resume before it is closed. base receives every
// room's feedback and may be nil.
func NewHost(corpus Corpus, store SettingsStore, rng *rand.Rand, window time.Duration, base feedback.Sink) *Host {
	return &Host{
		corpus: corpus,
		store:  store,
		base:   base,
		window: window,
		rng:    rng,
		rooms:  make(map[string]*entry),
	}
}

// Create starts a new attached room whose feedback goes to sink. Sinks given to
// Create and Resume identify the connection and must be comparable (pointers).
func (h *Host) Create(sink feedback.Sink) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	rng := random.Derive(h.rng)
	engineFor := func(s feedback.Sink) *game.Engine {
		return game.NewEngine(h.corpus, h.store, s, rng)
	}
	room := newRoom(uuid.NewString(), h.corpus, h.store, engineFor, h.base)
	room.SetSink(sink)
	h.rooms[room.ID] = &entry{room: room, attached: true, owner: sink}
	go room.Run()

	slog.Info("session created", "tag", "session", "session", room.ID, "active", len(h.rooms))
	return room
}

// Get returns the room with id.
func (h *Host) Get(id string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.rooms[id]
	if !ok {
		return nil, gameerrors.ErrSessionNotFound
	}
	return e.room, nil
}

// Resume reattaches a room and cancels its pending expiry. A room that is
// still attached is taken over by the new connection, and the previous owner
// is evicted if it implements Evictable. Evict is called with the host locked
// and must not block.
func (h *Host) Resume(id string, sink feedback.Sink) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.rooms[id]
	if !ok {
		return nil, gameerrors.ErrSessionNotFound
	}
	if e.expiry != nil {
		e.expiry.Stop()
		e.expiry = nil
	}
	if prev := e.owner; e.attached && prev != nil && prev != sink {
		if ev, ok := prev.(Evictable); ok {
			ev.Evict()
		}
		slog.Info("session taken over", "tag", "session", "session", id)
	}
	e.gen++
	e.attached = true
	e.owner = sink
	e.room.SetSink(sink)
	slog.Info("session resumed", "tag", "session", "session", id)
	return e.room, nil
}

// Detach marks the room as having no connection. The room is closed unless
// resumed within the window. owner is the sink the connection attached with;
// a connection that has since been taken over cannot detach the room.
func (h *Host) Detach(id string, owner feedback.Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.rooms[id]
	if !ok || !e.attached || e.owner != owner {
		return
	}
	e.owner = nil
	e.attached = false
	e.room.SetSink(nil)
	e.gen++
	if h.window <= 0 {
		h.removeLocked(id, e)
		return
	}
	gen := e.gen
	e.expiry = time.AfterFunc(h.window, func() { h.expire(id, gen) })
	slog.Debug("session detached", "tag", "session", "session", id, "window", h.window)
}

func (h *Host) expire(id string, gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.rooms[id]
	if !ok || e.attached || e.gen != gen {
		return
	}
	h.removeLocked(id, e)
	slog.Info("session expired", "tag", "session", "session", id, "active", len(h.rooms))
}

func (h *Host) removeLocked(id string, e *entry) {
	if e.expiry != nil {
		e.expiry.Stop()
	}
	delete(h.rooms, id)
	e.room.Close()
}

// Len returns the number of live rooms.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close closes every room.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, e := range h.rooms {
		h.removeLocked(id, e)
	}
}
