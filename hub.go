// VTuber guessing duel
//
// Two strangers are paired by a FIFO matchmaking queue (or meet through a
// shared 4-digit room code), ready up, and race to identify a randomly
// drawn VTuber from the embedded dataset. Every guess is diffed against
// the hidden target attribute by attribute; wrong guesses burn one of
// five chances per round, and idle players lose a chance automatically
// every 25 seconds. First correct guess wins the round; when everyone is
// out of chances the round is a draw.
//
// Implementation details:
// - One Hub owns all mutable state (presence, queue, rooms) behind a
//   single mutex, so every mutation is serialized
// - Clients connect over a websocket at /ws and speak the tagged JSON
//   contract in messages.go
// - Disconnects start a 10-second grace window before the player is
//   treated as departed, so page reloads don't tear down the room

package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Hub is the process-wide core service: identity and presence registry,
// matchmaking queue, room store and round controller in one explicitly
// constructed instance. All exported state lives behind mu; methods with
// the Locked suffix expect it held.
type Hub struct {
	cfg     *Config
	dataset *Dataset
	names   NameStore
	stats   *StatsBook

	mu          sync.Mutex
	clients     map[*Client]bool
	users       map[string]*Client // userID -> active connection
	queue       []*User
	rooms       map[string]*Room
	playerRooms map[string]string // userID -> roomID
	roomSubs    map[string]map[*Client]bool
	graceTimers map[string]*time.Timer
	decayStops  map[string]chan struct{}
}

func newHub(cfg *Config, dataset *Dataset, names NameStore, stats *StatsBook) *Hub {
	return &Hub{
		cfg:         cfg,
		dataset:     dataset,
		names:       names,
		stats:       stats,
		clients:     make(map[*Client]bool),
		users:       make(map[string]*Client),
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		roomSubs:    make(map[string]map[*Client]bool),
		graceTimers: make(map[string]*time.Timer),
		decayStops:  make(map[string]chan struct{}),
	}
}

// Start launches the periodic pairing sweep, a safety net in case an
// event-driven pairing attempt was skipped. It stops with the server.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(h.cfg.pairInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.mu.Lock()
				if len(h.queue) >= 2 {
					before := len(h.rooms)
					h.tryMatchLocked()
					if len(h.rooms) != before {
						h.broadcastStatsLocked()
					}
				}
				h.mu.Unlock()
			}
		}
	}()
}

// handleLogin binds a connection to a durable user id, assigning a
// display name on first sight. A second connection for an id that is
// already live is rejected so the same user can't play against
// themselves from two windows.
func (h *Hub) handleLogin(c *Client, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if other, ok := h.users[userID]; ok && other != c {
		return errDuplicateSession
	}

	name, err := h.names.Get(userID)
	if err != nil {
		return err
	}
	if name == "" {
		name = h.dataset.RandomName()
		// Name assignment is the one collaborator call login depends on;
		// if it fails the whole login fails.
		if err := h.names.Set(userID, name); err != nil {
			return err
		}
	}

	// A connection re-logging in under a new id releases the old one.
	if c.user != nil && c.user.ID != userID {
		delete(h.users, c.user.ID)
	}

	user := &User{ID: userID, Name: name}
	c.user = user
	h.users[userID] = c

	// A reconnect inside the grace window cancels the pending removal;
	// queue position and room membership are untouched.
	if timer, ok := h.graceTimers[userID]; ok {
		timer.Stop()
		delete(h.graceTimers, userID)
	}

	h.sendLocked(c, UserMessage{Type: msgUserUpdated, User: user})

	// Resume an interrupted match.
	if room := h.roomForPlayerLocked(userID); room != nil {
		h.subscribeLocked(c, room.ID)
		h.sendRoomLocked(c, msgRoomJoined, room)
	}

	logf(h.cfg, "GAMES: %q logged in", user.Name)
	h.broadcastStatsLocked()

	return nil
}

// handleDisconnect unbinds the connection immediately but keeps the user
// pending removal until the grace window elapses.
func (h *Hub) handleDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}

	user := c.user
	if user == nil {
		return
	}
	if h.users[user.ID] != c {
		return
	}
	delete(h.users, user.ID)

	for _, subs := range h.roomSubs {
		delete(subs, c)
	}

	if timer, ok := h.graceTimers[user.ID]; ok {
		timer.Stop()
	}
	h.graceTimers[user.ID] = time.AfterFunc(h.cfg.graceWindow, func() {
		h.expireGrace(user)
	})

	logf(h.cfg, "GAMES: %q disconnected, grace window started", user.Name)
	h.broadcastStatsLocked()
}

// expireGrace treats a user whose grace window elapsed without a
// reconnect as departed: out of the queue, out of their room.
func (h *Hub) expireGrace(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[user.ID]; ok {
		return // reconnected in the meantime
	}
	delete(h.graceTimers, user.ID)

	h.dequeueLocked(user.ID)
	h.leaveRoomLocked(user)

	logf(h.cfg, "GAMES: %q removed after grace window", user.Name)
	h.broadcastStatsLocked()
}

// register adds a freshly upgraded connection. Identity is only resolved
// once the client sends its login intent.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	h.sendLocked(c, h.statsLocked())
}

// sendLocked delivers a message to one client without ever blocking the
// hub; clients that can't keep up are dropped. Dropped clients keep
// their identity until the read pump notices the closed connection.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) subscribeLocked(c *Client, roomID string) {
	subs, ok := h.roomSubs[roomID]
	if !ok {
		subs = make(map[*Client]bool)
		h.roomSubs[roomID] = subs
	}
	subs[c] = true
}

func (h *Hub) unsubscribeLocked(c *Client, roomID string) {
	if subs, ok := h.roomSubs[roomID]; ok {
		delete(subs, c)
	}
}

// snapshotLocked serializes a message while the lock is held, so a
// queued broadcast can never observe later room mutations. The write
// pump marshals whatever it dequeues without the lock; live pointers to
// hub state must never reach it.
func (h *Hub) snapshotLocked(msg any) json.RawMessage {
	encoded, err := json.Marshal(msg)
	if err != nil {
		logf(h.cfg, "GAMES: Dropping unencodable %T: %v", msg, err)
		return nil
	}
	return encoded
}

// sendRoomLocked queues a room snapshot for one connection.
func (h *Hub) sendRoomLocked(c *Client, msgType string, room *Room) {
	if raw := h.snapshotLocked(RoomMessage{Type: msgType, Room: room}); raw != nil {
		h.sendLocked(c, raw)
	}
}

// broadcastRoomLocked sends a message to every connection subscribed to
// the room channel, pre-encoded so all subscribers share one snapshot.
func (h *Hub) broadcastRoomLocked(roomID string, msg any) {
	raw := h.snapshotLocked(msg)
	if raw == nil {
		return
	}
	for c := range h.roomSubs[roomID] {
		h.sendLocked(c, raw)
	}
}

func (h *Hub) statsLocked() StatsMessage {
	return StatsMessage{
		Type:          msgStatsUpdate,
		OnlinePlayers: len(h.users),
		QueueCount:    len(h.queue),
		RoomCount:     len(h.rooms),
	}
}

// broadcastStatsLocked pushes the current counters to every connection.
func (h *Hub) broadcastStatsLocked() {
	msg := h.statsLocked()
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

// clientForLocked resolves the active connection for a user id, if any.
func (h *Hub) clientForLocked(userID string) *Client {
	return h.users[userID]
}

// sendError reports a failed intent back to the offending connection.
func (h *Hub) sendError(c *Client, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, errorMessage(err))
}
