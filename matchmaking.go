package main

// Matchmaking is strict FIFO: no skill, region or rematch-avoidance
// policy. Pairing runs on every enqueue and again on a periodic sweep
// (see Hub.Start).

// handleJoinQueue appends the user to the queue tail and immediately
// attempts pairing.
func (h *Hub) handleJoinQueue(c *Client) error {
	user := c.user

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.queuedLocked(user.ID) {
		return errAlreadyQueued
	}
	if _, ok := h.playerRooms[user.ID]; ok {
		return errAlreadyInRoom
	}

	h.queue = append(h.queue, user)
	logf(h.cfg, "QUEUE: %q joined (%d waiting)", user.Name, len(h.queue))

	h.tryMatchLocked()
	h.broadcastStatsLocked()

	return nil
}

// handleLeaveQueue removes the user from the queue; leaving a queue one
// is not in is a no-op.
func (h *Hub) handleLeaveQueue(c *Client) error {
	user := c.user

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dequeueLocked(user.ID) {
		logf(h.cfg, "QUEUE: %q left (%d waiting)", user.Name, len(h.queue))
		h.broadcastStatsLocked()
	}

	return nil
}

func (h *Hub) queuedLocked(userID string) bool {
	for _, u := range h.queue {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) dequeueLocked(userID string) bool {
	for i, u := range h.queue {
		if u.ID == userID {
			h.queue = append(h.queue[:i], h.queue[i+1:]...)
			return true
		}
	}
	return false
}

// tryMatchLocked pairs the two oldest waiting users into a fresh room
// until fewer than two remain. If room creation fails (cap or id space
// exhausted) both users are pushed back to the front of the queue, told
// about it, and the pass aborts; the periodic sweep retries later.
func (h *Hub) tryMatchLocked() {
	for len(h.queue) >= 2 {
		first, second := h.queue[0], h.queue[1]
		h.queue = h.queue[2:]

		room, err := h.createRoomLocked(first, second)
		if err != nil {
			h.queue = append([]*User{first, second}, h.queue...)
			for _, u := range []*User{first, second} {
				if c := h.clientForLocked(u.ID); c != nil {
					h.sendLocked(c, errorMessage(err))
				}
			}
			logf(h.cfg, "QUEUE: Pairing aborted: %v", err)
			return
		}

		// Asymmetric events for client UX only; both are equal players.
		if c := h.clientForLocked(first.ID); c != nil {
			h.subscribeLocked(c, room.ID)
			h.sendRoomLocked(c, msgRoomCreated, room)
		}
		if c := h.clientForLocked(second.ID); c != nil {
			h.subscribeLocked(c, room.ID)
			h.sendRoomLocked(c, msgRoomJoined, room)
		}

		logf(h.cfg, "QUEUE: Matched %q and %q into room %s", first.Name, second.Name, room.ID)
	}
}
