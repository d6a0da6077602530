package main

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairUp logs two users in, pairs them through the queue and returns
// their clients plus the shared room.
func pairUp(t *testing.T, h *Hub) (*Client, *Client, *Room) {
	t.Helper()

	a := login(t, h, "A")
	b := login(t, h, "B")
	require.NoError(t, h.handleJoinQueue(a))
	require.NoError(t, h.handleJoinQueue(b))

	room := roomOf(h, "A")
	require.NotNil(t, room)
	return a, b, room
}

// startRound readies both players and pins the round target so guesses
// are deterministic.
func startRound(t *testing.T, h *Hub, a, b *Client, room *Room, targetID string) {
	t.Helper()

	require.NoError(t, h.handleReady(a))
	require.NoError(t, h.handleReady(b))

	h.mu.Lock()
	require.Equal(t, statusPlaying, room.Status)
	room.CurrentVTuber = h.dataset.ByID(targetID)
	h.mu.Unlock()
}

func TestReadyTransitionStartsRound(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)

	require.NoError(t, h.handleReady(a))
	assert.Equal(t, statusWaiting, room.Status, "one ready player is not enough")

	drain(a)
	drain(b)
	require.NoError(t, h.handleReady(b))

	assert.Equal(t, statusPlaying, room.Status)
	require.NotNil(t, room.CurrentVTuber)
	assert.Empty(t, room.Records)
	assert.NotZero(t, room.LastChanceReduction)
	for _, p := range room.Players {
		assert.Equal(t, h.cfg.chances, p.Chance)
	}

	// Both got the distinct start event on top of the snapshot.
	for _, c := range []*Client{a, b} {
		started := false
		for _, m := range drain(c) {
			if typeOf(m) == msgGameStarted {
				started = true
			}
		}
		assert.True(t, started)
	}

	h.mu.Lock()
	_, armed := h.decayStops[room.ID]
	h.mu.Unlock()
	assert.True(t, armed, "decay timer runs while playing")

	// Readying alone in a waiting room is silently ignored.
	solo := login(t, h, "solo")
	require.NoError(t, h.handleJoinRoom(solo, "7777"))
	require.NoError(t, h.handleReady(solo))
	assert.Equal(t, statusWaiting, roomOf(h, "solo").Status)
}

func TestCorrectGuessWinsRound(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")
	drain(a)
	drain(b)

	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v001"}))

	assert.Equal(t, statusFinished, room.Status)
	assert.Equal(t, 1, room.Scores["A"])
	assert.Equal(t, 0, room.Scores["B"])

	require.NotNil(t, room.Result)
	require.NotNil(t, room.Result.Winner)
	assert.Equal(t, "A", room.Result.Winner.User.ID)
	assert.Equal(t, "v001", room.Result.Answer.ID)

	for _, p := range room.Players {
		assert.Equal(t, 0, p.Chance, "the loser gets no further guesses")
		assert.False(t, p.Ready, "next round needs an explicit re-ready")
	}

	finished := lastRoomMessage(t, drain(b), msgGameFinished)
	assert.Equal(t, room.ID, finished.ID)

	h.mu.Lock()
	_, armed := h.decayStops[room.ID]
	h.mu.Unlock()
	assert.False(t, armed, "decay timer is torn down on finish")
}

func TestIncorrectGuessesEndInDraw(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	wrong := &VTuber{ID: "v002"}
	for i := 0; i < h.cfg.chances; i++ {
		require.NoError(t, h.handleGuess(a, wrong))
		require.NoError(t, h.handleGuess(b, wrong))
	}

	assert.Equal(t, statusFinished, room.Status)
	require.NotNil(t, room.Result)
	assert.Nil(t, room.Result.Winner)
	assert.Equal(t, "v001", room.Result.Answer.ID)
	assert.Len(t, room.Records, 2*h.cfg.chances)

	// Out-of-chances guesses change nothing.
	require.NoError(t, h.handleGuess(a, wrong))
	assert.Len(t, room.Records, 2*h.cfg.chances)
}

func TestGuessGuards(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)

	// Not playing yet.
	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v001"}))
	assert.Empty(t, room.Records)

	startRound(t, h, a, b, room, "v001")

	// Unknown entities are ignored.
	require.NoError(t, h.handleGuess(a, &VTuber{ID: "nope"}))
	assert.Empty(t, room.Records)
	assert.Equal(t, h.cfg.chances, room.Players[0].Chance)

	// Records insert newest-first and carry the guesser.
	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v002"}))
	require.NoError(t, h.handleGuess(b, &VTuber{ID: "v003"}))
	require.Len(t, room.Records, 2)
	assert.Equal(t, "B", room.Records[0].User.ID)
	assert.Equal(t, "A", room.Records[1].User.ID)
}

func TestChanceNeverNegativeNorAboveMax(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	wrong := &VTuber{ID: "v002"}
	for i := 0; i < h.cfg.chances+3; i++ {
		require.NoError(t, h.handleGuess(a, wrong))

		h.mu.Lock()
		for _, p := range room.Players {
			assert.GreaterOrEqual(t, p.Chance, 0)
			assert.LessOrEqual(t, p.Chance, h.cfg.chances)
		}
		h.mu.Unlock()
	}
}

func TestDecayConsumesUnusedChances(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	h.mu.Lock()
	// A guessed this interval, B sat it out.
	room.UsedChance["A"] = true
	h.reduceChancesLocked(room)

	assert.Equal(t, h.cfg.chances, room.Players[0].Chance)
	assert.Equal(t, h.cfg.chances-1, room.Players[1].Chance)
	assert.Empty(t, room.UsedChance, "interval tracking resets")
	h.mu.Unlock()
}

func TestFiveDecayIntervalsEndInDraw(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	h.mu.Lock()
	for i := 0; i < h.cfg.chances; i++ {
		require.Equal(t, statusPlaying, room.Status)
		h.reduceChancesLocked(room)
	}

	assert.Equal(t, statusFinished, room.Status)
	require.NotNil(t, room.Result)
	assert.Nil(t, room.Result.Winner)
	assert.Nil(t, room.UsedChance)
	assert.Zero(t, room.LastChanceReduction)
	h.mu.Unlock()
}

func TestFinishIsIdempotent(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v001"}))
	require.Equal(t, statusFinished, room.Status)

	winner := room.Result.Winner

	// A straggling decay tick after the finish must not re-trigger
	// finish logic or overwrite the result.
	h.mu.Lock()
	h.endGameLocked(room, nil)
	h.mu.Unlock()

	assert.Equal(t, winner, room.Result.Winner)
	assert.Equal(t, 1, room.Scores["A"])

	stats := h.stats.Leaderboard(boardGames, 0)
	require.Len(t, stats, 2)
	for _, s := range stats {
		assert.Equal(t, 1, s.Games, "each player recorded exactly one game")
	}
}

func TestRoomBroadcastsAreImmutableSnapshots(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")
	drain(a)
	drain(b)

	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v002"}))
	queued := drain(b)

	// Mutate the live room after the broadcast was queued.
	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v003"}))
	require.Len(t, room.Records, 2)

	update := lastRoomMessage(t, queued, msgRoomUpdated)
	assert.Len(t, update.Records, 1, "snapshot reflects the room as broadcast")
	assert.Equal(t, h.cfg.chances-1, update.player("A").Chance)
}

func TestBroadcastsMarshalSafelyDuringPlay(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	// Marshal every queued message off the hub goroutine, as the write
	// pump does, while the round keeps mutating the room.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, c := range []*Client{a, b} {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case msg, ok := <-c.send:
					if !ok {
						return
					}
					_, err := json.Marshal(msg)
					assert.NoError(t, err)
				}
			}
		}()
	}

	wrong := &VTuber{ID: "v002"}
	for i := 0; i < h.cfg.chances; i++ {
		require.NoError(t, h.handleGuess(a, wrong))
		require.NoError(t, h.handleGuess(b, wrong))
	}

	h.mu.Lock()
	require.Equal(t, statusFinished, room.Status)
	h.mu.Unlock()

	close(done)
	wg.Wait()
}

func TestDecayTickHonorsInterval(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	h.mu.Lock()
	stop := h.decayStops[room.ID]
	h.mu.Unlock()
	require.NotNil(t, stop)

	h.decayTick(room.ID, stop)

	h.mu.Lock()
	assert.Equal(t, h.cfg.chances, room.Players[0].Chance, "interval not elapsed yet")

	room.LastChanceReduction = time.Now().Add(-h.cfg.decayInterval - time.Second).UnixMilli()
	h.mu.Unlock()

	h.decayTick(room.ID, stop)

	h.mu.Lock()
	assert.Equal(t, h.cfg.chances-1, room.Players[0].Chance)
	assert.Equal(t, h.cfg.chances-1, room.Players[1].Chance)
	h.mu.Unlock()

	// A tick from a superseded timer is ignored.
	stale := make(chan struct{})
	h.mu.Lock()
	h.stopDecayLocked(room.ID)
	room.LastChanceReduction = time.Now().Add(-h.cfg.decayInterval - time.Second).UnixMilli()
	h.mu.Unlock()
	h.decayTick(room.ID, stale)

	h.mu.Lock()
	assert.Equal(t, h.cfg.chances-1, room.Players[0].Chance)
	h.mu.Unlock()
}

func TestLeaveResetsSurvivorsRoom(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	require.NoError(t, h.handleGuess(b, &VTuber{ID: "v002"}))

	h.mu.Lock()
	room.Scores["B"] = 3 // pretend B had prior wins
	h.mu.Unlock()

	require.NoError(t, h.handleLeaveRoom(a))

	assert.Nil(t, roomOf(h, "A"))
	survivor := roomOf(h, "B")
	require.NotNil(t, survivor)
	assert.Equal(t, room.ID, survivor.ID)

	assert.Equal(t, statusWaiting, survivor.Status, "departure means start over")
	assert.Empty(t, survivor.Records)
	assert.Equal(t, 0, survivor.Scores["B"])

	h.mu.Lock()
	_, armed := h.decayStops[room.ID]
	h.mu.Unlock()
	assert.False(t, armed, "decay timer is torn down when play stops")
}

func TestLeaveLastPlayerDeletesRoom(t *testing.T) {
	h := newTestHub(t)

	a := login(t, h, "A")
	require.NoError(t, h.handleJoinRoom(a, "1234"))
	require.NoError(t, h.handleLeaveRoom(a))

	h.mu.Lock()
	assert.Empty(t, h.rooms)
	assert.Empty(t, h.playerRooms)
	h.mu.Unlock()
}

func TestRoomReusableForNextRound(t *testing.T) {
	h := newTestHub(t)

	a, b, room := pairUp(t, h)
	startRound(t, h, a, b, room, "v001")

	require.NoError(t, h.handleGuess(a, &VTuber{ID: "v001"}))
	require.Equal(t, statusFinished, room.Status)

	// Ready up again: same room, fresh round.
	require.NoError(t, h.handleReady(a))
	assert.Equal(t, statusWaiting, room.Status)
	assert.Nil(t, room.Result)

	require.NoError(t, h.handleReady(b))
	assert.Equal(t, statusPlaying, room.Status)
	assert.Empty(t, room.Records)
	assert.Equal(t, 1, room.Scores["A"], "scores carry across rounds")
	for _, p := range room.Players {
		assert.Equal(t, h.cfg.chances, p.Chance)
	}
}
