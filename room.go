package main

import (
	"encoding/json"
)

// User is a durable identity. The id is client-generated and survives
// reconnects; the display name is assigned server-side on first login.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player wraps a User inside a room, tracking their remaining guesses
// for the current round and their ready state between rounds.
type Player struct {
	User   User `json:"user"`
	Chance int  `json:"chance"`
	Ready  bool `json:"ready"`
}

type RoomStatus string

const (
	statusWaiting  RoomStatus = "waiting"
	statusPlaying  RoomStatus = "playing"
	statusFinished RoomStatus = "finished"
)

// GameResult is set when a round finishes. Winner is nil on a draw.
type GameResult struct {
	Winner *Player `json:"winner,omitempty"`
	Answer *VTuber `json:"answer"`
}

// Room is one match session, identified by a 4-digit code. A room is
// reusable across many rounds until emptied.
type Room struct {
	ID      string         `json:"id"`
	Players []*Player      `json:"players"`
	Status  RoomStatus     `json:"status"`
	Scores  map[string]int `json:"scores"`
	Records []GuessRecord  `json:"records"`

	CurrentVTuber *VTuber     `json:"-"`
	AgencyHint    string      `json:"agencyHint,omitempty"`
	Result        *GameResult `json:"result,omitempty"`

	// Decay bookkeeping, only set while playing.
	LastChanceReduction int64           `json:"lastChanceReduction,omitempty"`
	UsedChance          map[string]bool `json:"playersUsedChance,omitempty"`
}

// MarshalJSON includes the hidden target only while play is active;
// finished rounds expose the answer through Result instead.
func (r *Room) MarshalJSON() ([]byte, error) {
	type alias Room
	out := struct {
		*alias
		CurrentVTuber *VTuber `json:"currentVtuber,omitempty"`
	}{alias: (*alias)(r)}

	if r.Status == statusPlaying {
		out.CurrentVTuber = r.CurrentVTuber
	}

	return json.Marshal(out)
}

// player returns the room member with the given user id, or nil.
func (r *Room) player(userID string) *Player {
	for _, p := range r.Players {
		if p.User.ID == userID {
			return p
		}
	}
	return nil
}

// allChancesSpent reports whether every player is out of guesses.
func (r *Room) allChancesSpent() bool {
	for _, p := range r.Players {
		if p.Chance > 0 {
			return false
		}
	}
	return true
}

// addRecord inserts a guess record at the front, newest first.
func (r *Room) addRecord(rec GuessRecord) {
	r.Records = append([]GuessRecord{rec}, r.Records...)
}
