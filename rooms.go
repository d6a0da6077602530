package main

import (
	"fmt"
	"math/rand"
)

const (
	roomIDAttempts = 10
)

// newRoomIDLocked draws random 4-digit ids until one is free, giving up
// after a bounded number of attempts so a nearly full id space can't
// spin forever.
func (h *Hub) newRoomIDLocked() (string, error) {
	for i := 0; i < roomIDAttempts; i++ {
		id := fmt.Sprintf("%04d", 1000+rand.Intn(9000))
		if _, taken := h.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", errRoomAllocationExhausted
}

// createRoomLocked seeds a room with the given users and registers both
// the room and the player->room index entries together, so no reader
// ever sees one without the other. Paired players start with zero
// chances; chances are granted when the round starts.
func (h *Hub) createRoomLocked(users ...*User) (*Room, error) {
	if len(h.rooms) >= h.cfg.maxRooms {
		return nil, errRoomLimitExceeded
	}

	id, err := h.newRoomIDLocked()
	if err != nil {
		return nil, err
	}

	room := &Room{
		ID:     id,
		Status: statusWaiting,
		Scores: make(map[string]int, len(users)),
	}
	for _, u := range users {
		room.Players = append(room.Players, &Player{User: *u})
		room.Scores[u.ID] = 0
	}

	h.rooms[id] = room
	for _, u := range users {
		h.playerRooms[u.ID] = id
	}

	logf(h.cfg, "ROOMS: Created room %s (%d live)", id, len(h.rooms))

	return room, nil
}

// updateRoomLocked is the single choke-point through which every room
// mutation becomes visible: it recomputes the agency hint, writes the
// room back and broadcasts the full snapshot to the room channel.
func (h *Hub) updateRoomLocked(room *Room) {
	if room.AgencyHint == "" && len(room.Records) >= 4 && room.CurrentVTuber != nil {
		matched := false
		for _, rec := range room.Records {
			for _, d := range rec.Differences {
				if d.Attribute == attrAgency && d.IsMatch {
					matched = true
				}
			}
		}
		if !matched {
			room.AgencyHint = room.CurrentVTuber.Agency
		}
	}

	h.rooms[room.ID] = room
	h.broadcastRoomLocked(room.ID, RoomMessage{Type: msgRoomUpdated, Room: room})
}

// deleteRoomLocked removes an emptied room and the last member's index
// entry, and tears down its decay timer and channel.
func (h *Hub) deleteRoomLocked(roomID, userID string) {
	h.stopDecayLocked(roomID)
	delete(h.rooms, roomID)
	delete(h.playerRooms, userID)
	delete(h.roomSubs, roomID)

	logf(h.cfg, "ROOMS: Deleted room %s (%d live)", roomID, len(h.rooms))
}

// removePlayerLocked drops only the index entry, so other systems stop
// seeing a room assignment for the departed player.
func (h *Hub) removePlayerLocked(userID string) {
	delete(h.playerRooms, userID)
}

func (h *Hub) roomForPlayerLocked(userID string) *Room {
	if roomID, ok := h.playerRooms[userID]; ok {
		return h.rooms[roomID]
	}
	return nil
}

func (h *Hub) roomByIDLocked(roomID string) *Room {
	return h.rooms[roomID]
}

// validRoomID reports whether an id is exactly four digits.
func validRoomID(roomID string) bool {
	if len(roomID) != 4 {
		return false
	}
	for _, r := range roomID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handleJoinRoom joins (or creates) a room by its 4-digit code. The
// first occupant of a fresh code doesn't wait for pairing and gets full
// chances right away.
func (h *Hub) handleJoinRoom(c *Client, roomID string) error {
	user := c.user

	if !validRoomID(roomID) {
		return errInvalidRoomID
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.playerRooms[user.ID]; ok {
		return errAlreadyInRoom
	}

	// Joining a room directly supersedes waiting in the queue.
	h.dequeueLocked(user.ID)

	room := h.rooms[roomID]
	if room == nil {
		room = &Room{
			ID:      roomID,
			Players: []*Player{{User: *user, Chance: h.cfg.chances}},
			Status:  statusWaiting,
			Scores:  map[string]int{user.ID: 0},
		}
		h.rooms[roomID] = room
		h.playerRooms[user.ID] = roomID
		h.subscribeLocked(c, roomID)
		h.sendRoomLocked(c, msgRoomCreated, room)
		h.sendRoomLocked(c, msgRoomJoined, room)

		logf(h.cfg, "ROOMS: %q opened room %s", user.Name, roomID)
		h.broadcastStatsLocked()

		return nil
	}

	if len(room.Players) >= 2 {
		return errRoomFull
	}
	if room.Status != statusWaiting {
		return errRoomAlreadyPlaying
	}

	room.Players = append(room.Players, &Player{User: *user, Chance: h.cfg.chances})
	room.Scores[user.ID] = 0
	h.playerRooms[user.ID] = roomID
	h.subscribeLocked(c, roomID)
	h.sendRoomLocked(c, msgRoomJoined, room)
	h.updateRoomLocked(room)

	logf(h.cfg, "ROOMS: %q joined room %s", user.Name, roomID)
	h.broadcastStatsLocked()

	return nil
}
