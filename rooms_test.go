package main

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinRoomCreatesWhenMissing(t *testing.T) {
	h := newTestHub(t)

	a := login(t, h, "A")
	require.NoError(t, h.handleJoinRoom(a, "1234"))

	room := roomOf(h, "A")
	require.NotNil(t, room)
	assert.Equal(t, "1234", room.ID)
	assert.Equal(t, statusWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.Equal(t, h.cfg.chances, room.Players[0].Chance, "sole occupant gets full chances up front")
	assert.Equal(t, 0, room.Scores["A"])

	msgs := drain(a)
	lastRoomMessage(t, msgs, msgRoomCreated)
	lastRoomMessage(t, msgs, msgRoomJoined)
}

func TestJoinRoomValidation(t *testing.T) {
	h := newTestHub(t)

	a := login(t, h, "A")

	for _, id := range []string{"", "123", "12345", "12a4", "abcd", "12 4"} {
		assert.ErrorIs(t, h.handleJoinRoom(a, id), errInvalidRoomID, "id %q", id)
	}

	require.NoError(t, h.handleJoinRoom(a, "1234"))
	assert.ErrorIs(t, h.handleJoinRoom(a, "5678"), errAlreadyInRoom)
}

func TestJoinRoomFullAndPlaying(t *testing.T) {
	h := newTestHub(t)

	a := login(t, h, "A")
	b := login(t, h, "B")
	c := login(t, h, "C")

	require.NoError(t, h.handleJoinRoom(a, "1234"))
	require.NoError(t, h.handleJoinRoom(b, "1234"))

	assert.ErrorIs(t, h.handleJoinRoom(c, "1234"), errRoomFull)

	require.NoError(t, h.handleReady(a))
	require.NoError(t, h.handleReady(b))
	require.Equal(t, statusPlaying, roomOf(h, "A").Status)

	// A playing room that lost a member mid-round would be back to
	// waiting, so only the full check fires here; force the status case
	// with a fresh room instead.
	d := login(t, h, "D")
	require.NoError(t, h.handleJoinRoom(d, "9999"))
	h.mu.Lock()
	h.rooms["9999"].Status = statusPlaying
	h.mu.Unlock()

	e := login(t, h, "E")
	assert.ErrorIs(t, h.handleJoinRoom(e, "9999"), errRoomAlreadyPlaying)
}

func TestRoomLimit(t *testing.T) {
	h := newTestHub(t)
	h.cfg.maxRooms = 2

	h.mu.Lock()
	_, err := h.createRoomLocked(&User{ID: "A"}, &User{ID: "B"})
	require.NoError(t, err)
	_, err = h.createRoomLocked(&User{ID: "C"}, &User{ID: "D"})
	require.NoError(t, err)

	before := len(h.playerRooms)
	_, err = h.createRoomLocked(&User{ID: "E"}, &User{ID: "F"})
	assert.ErrorIs(t, err, errRoomLimitExceeded)
	assert.Len(t, h.rooms, 2, "failed creation must not mutate state")
	assert.Len(t, h.playerRooms, before)
	h.mu.Unlock()
}

func TestRoomIDAllocationExhausted(t *testing.T) {
	h := newTestHub(t)
	h.cfg.maxRooms = 10000

	h.mu.Lock()
	defer h.mu.Unlock()

	for i := 1000; i <= 9999; i++ {
		h.rooms[fmt.Sprintf("%d", i)] = &Room{}
	}

	_, err := h.newRoomIDLocked()
	assert.ErrorIs(t, err, errRoomAllocationExhausted)
}

func TestRoomIDReusableAfterDelete(t *testing.T) {
	h := newTestHub(t)

	a := login(t, h, "A")
	require.NoError(t, h.handleJoinRoom(a, "1234"))
	require.NoError(t, h.handleLeaveRoom(a))

	h.mu.Lock()
	_, exists := h.rooms["1234"]
	h.mu.Unlock()
	require.False(t, exists)

	require.NoError(t, h.handleJoinRoom(a, "1234"))
	assert.Equal(t, "1234", roomOf(h, "A").ID)
}

func TestCreateRoomRegistersIndexAtomically(t *testing.T) {
	h := newTestHub(t)

	h.mu.Lock()
	room, err := h.createRoomLocked(&User{ID: "A"}, &User{ID: "B"})
	require.NoError(t, err)

	assert.Equal(t, room, h.rooms[room.ID])
	assert.Equal(t, room.ID, h.playerRooms["A"])
	assert.Equal(t, room.ID, h.playerRooms["B"])
	assert.Len(t, room.ID, 4)
	assert.Equal(t, 0, room.Players[0].Chance, "paired players wait for round start")
	h.mu.Unlock()
}

func TestAgencyHintAfterFourMisses(t *testing.T) {
	h := newTestHub(t)

	target := h.dataset.ByID("v001") // Starlight Production
	miss := h.dataset.ByID("v003")   // Hanabi Live

	room := &Room{
		ID:            "1111",
		Status:        statusPlaying,
		Scores:        map[string]int{},
		CurrentVTuber: target,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms[room.ID] = room

	for i := 0; i < 3; i++ {
		room.addRecord(checkGuess(nil, miss, target))
		h.updateRoomLocked(room)
		require.Empty(t, room.AgencyHint)
	}

	room.addRecord(checkGuess(nil, miss, target))
	h.updateRoomLocked(room)
	assert.Equal(t, target.Agency, room.AgencyHint, "hint fires at the fourth agency miss")

	// Never retracted, even if a later guess matches the agency.
	room.addRecord(checkGuess(nil, h.dataset.ByID("v002"), target))
	h.updateRoomLocked(room)
	assert.Equal(t, target.Agency, room.AgencyHint)
}

func TestAgencyHintSuppressedByAgencyMatch(t *testing.T) {
	h := newTestHub(t)

	target := h.dataset.ByID("v001") // Starlight Production
	sameAgency := h.dataset.ByID("v002")
	miss := h.dataset.ByID("v003")

	room := &Room{
		ID:            "2222",
		Status:        statusPlaying,
		Scores:        map[string]int{},
		CurrentVTuber: target,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms[room.ID] = room

	room.addRecord(checkGuess(nil, sameAgency, target))
	for i := 0; i < 4; i++ {
		room.addRecord(checkGuess(nil, miss, target))
	}
	h.updateRoomLocked(room)

	assert.Empty(t, room.AgencyHint, "an agency match anywhere suppresses the hint")
}

func TestRoomSnapshotHidesTargetUnlessPlaying(t *testing.T) {
	h := newTestHub(t)

	target := h.dataset.ByID("v005")
	room := &Room{
		ID:            "3333",
		Status:        statusPlaying,
		Scores:        map[string]int{},
		CurrentVTuber: target,
	}

	var snapshot map[string]any

	encoded, err := json.Marshal(room)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, &snapshot))
	assert.Contains(t, snapshot, "currentVtuber", "target is visible while playing")

	room.Status = statusFinished
	room.Result = &GameResult{Answer: target}

	encoded, err = json.Marshal(room)
	require.NoError(t, err)
	snapshot = nil
	require.NoError(t, json.Unmarshal(encoded, &snapshot))
	assert.NotContains(t, snapshot, "currentVtuber", "target is hidden once finished")

	result, ok := snapshot["result"].(map[string]any)
	require.True(t, ok)
	answer, ok := result["answer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, target.ID, answer["id"])
}
