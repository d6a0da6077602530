package main

import (
	"time"
)

// Round controller: waiting -> playing -> finished -> waiting, reusable
// until the room empties. Guard failures are silent no-ops; only
// identity and room-id problems surface error events (see gateway.go).

// handleReady marks the acting player ready. Once a full two-player room
// is all ready the round starts immediately.
func (h *Hub) handleReady(c *Client) error {
	user := c.user

	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.roomForPlayerLocked(user.ID)
	if room == nil || room.Status == statusPlaying {
		return nil
	}

	// Re-readying after a finished round rewinds the room to waiting.
	room.Result = nil
	room.Status = statusWaiting

	player := room.player(user.ID)
	if player == nil {
		return nil
	}
	player.Ready = true
	h.updateRoomLocked(room)

	if len(room.Players) == 2 && allReady(room) {
		h.startGameLocked(room)
	}

	return nil
}

func allReady(room *Room) bool {
	for _, p := range room.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// startGameLocked performs the waiting -> playing transition: fresh
// chances, cleared records, a random target, and the decay timer armed.
func (h *Hub) startGameLocked(room *Room) {
	room.Status = statusPlaying
	room.Result = nil
	room.Records = nil
	room.AgencyHint = ""
	for _, p := range room.Players {
		p.Chance = h.cfg.chances
	}
	room.LastChanceReduction = time.Now().UnixMilli()
	room.UsedChance = make(map[string]bool)
	room.CurrentVTuber = h.dataset.Random()

	logf(h.cfg, "MATCH: Room %s started, target %q", room.ID, room.CurrentVTuber.Name)

	h.updateRoomLocked(room)
	h.broadcastRoomLocked(room.ID, EventMessage{Type: msgGameStarted})
	h.startDecayLocked(room.ID)
}

// handleGuess runs the comparator for a playing room. Out-of-turn
// conditions (no chances left, not playing, unknown entity) are ignored
// without a broadcast.
func (h *Hub) handleGuess(c *Client, guess *VTuber) error {
	user := c.user

	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.roomForPlayerLocked(user.ID)
	if room == nil || room.Status != statusPlaying || room.CurrentVTuber == nil {
		return nil
	}
	player := room.player(user.ID)
	if player == nil || player.Chance <= 0 {
		return nil
	}

	// Guesses are resolved against the dataset; the client payload is
	// only trusted for its id.
	entry := h.dataset.ByID(guess.ID)
	if entry == nil {
		return nil
	}

	record := checkGuess(user, entry, room.CurrentVTuber)
	room.addRecord(record)
	room.UsedChance[user.ID] = true

	if record.IsCorrect {
		for _, p := range room.Players {
			p.Chance = 0
		}
		room.Scores[user.ID]++
		h.updateRoomLocked(room)
		h.endGameLocked(room, player)
		return nil
	}

	player.Chance--

	if room.allChancesSpent() {
		h.endGameLocked(room, nil)
		return nil
	}

	h.updateRoomLocked(room)

	return nil
}

// startDecayLocked arms the per-room decay timer: a 1-second check that
// consumes one chance from every player who sat out a full interval.
func (h *Hub) startDecayLocked(roomID string) {
	h.stopDecayLocked(roomID)

	stop := make(chan struct{})
	h.decayStops[roomID] = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.decayTick(roomID, stop)
			}
		}
	}()
}

// stopDecayLocked tears the timer down; called on every exit from
// playing (finish, leave, delete) so timers can't accumulate.
func (h *Hub) stopDecayLocked(roomID string) {
	if stop, ok := h.decayStops[roomID]; ok {
		close(stop)
		delete(h.decayStops, roomID)
	}
}

func (h *Hub) decayTick(roomID string, stop chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// The timer may have been replaced or cancelled while this tick was
	// waiting on the lock.
	if h.decayStops[roomID] != stop {
		return
	}

	room := h.rooms[roomID]
	if room == nil || room.Status != statusPlaying {
		return
	}

	now := time.Now().UnixMilli()
	if now-room.LastChanceReduction < h.cfg.decayInterval.Milliseconds() {
		return
	}

	h.reduceChancesLocked(room)
}

// reduceChancesLocked applies one decay interval: every player who did
// not guess during the interval loses a chance, floored at zero.
func (h *Hub) reduceChancesLocked(room *Room) {
	for _, p := range room.Players {
		if !room.UsedChance[p.User.ID] && p.Chance > 0 {
			p.Chance--
		}
	}

	room.UsedChance = make(map[string]bool)
	room.LastChanceReduction = time.Now().UnixMilli()

	logf(h.cfg, "MATCH: Room %s decay tick", room.ID)

	if room.allChancesSpent() {
		h.endGameLocked(room, nil)
		return
	}

	h.updateRoomLocked(room)
}

// endGameLocked performs the transition to finished. Winner is nil on a
// draw. Finishing twice is a no-op.
func (h *Hub) endGameLocked(room *Room, winner *Player) {
	if room.Status == statusFinished {
		return
	}

	room.Status = statusFinished
	for _, p := range room.Players {
		p.Ready = false
	}
	room.Result = &GameResult{Winner: winner, Answer: room.CurrentVTuber}
	room.LastChanceReduction = 0
	room.UsedChance = nil

	h.stopDecayLocked(room.ID)

	for _, p := range room.Players {
		h.stats.Record(p.User, winner != nil && p.User.ID == winner.User.ID)
	}

	if winner != nil {
		logf(h.cfg, "MATCH: Room %s finished, %q wins", room.ID, winner.User.Name)
	} else {
		logf(h.cfg, "MATCH: Room %s finished in a draw", room.ID)
	}

	h.updateRoomLocked(room)
	h.broadcastRoomLocked(room.ID, RoomMessage{Type: msgGameFinished, Room: room})
}

// handleLeaveRoom removes the acting player from their room.
func (h *Hub) handleLeaveRoom(c *Client) error {
	user := c.user

	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoomLocked(user)
	h.broadcastStatsLocked()

	return nil
}

// leaveRoomLocked treats any departure as "start over": an emptied room
// is deleted, otherwise the survivors keep the room but scores, records
// and status reset to a fresh waiting state.
func (h *Hub) leaveRoomLocked(user *User) {
	room := h.roomForPlayerLocked(user.ID)
	if room == nil {
		return
	}

	players := room.Players[:0]
	for _, p := range room.Players {
		if p.User.ID != user.ID {
			players = append(players, p)
		}
	}
	room.Players = players

	if c := h.clientForLocked(user.ID); c != nil {
		h.unsubscribeLocked(c, room.ID)
	}

	logf(h.cfg, "ROOMS: %q left room %s", user.Name, room.ID)

	if len(room.Players) == 0 {
		h.deleteRoomLocked(room.ID, user.ID)
		return
	}

	h.stopDecayLocked(room.ID)
	h.removePlayerLocked(user.ID)

	for _, p := range room.Players {
		room.Scores[p.User.ID] = 0
	}
	room.Status = statusWaiting
	room.Result = nil
	room.Records = nil
	room.AgencyHint = ""
	room.LastChanceReduction = 0
	room.UsedChance = nil

	h.updateRoomLocked(room)
}
