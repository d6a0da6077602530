package main

// Client intents and server events, as a closed set of tagged JSON
// messages. Every payload is validated at the gateway before it reaches
// the hub.

// Client -> server intent types.
const (
	msgLogin            = "login"
	msgMatchmakingJoin  = "matchmaking:join"
	msgMatchmakingLeave = "matchmaking:leave"
	msgRoomJoin         = "room:join"
	msgRoomReady        = "room:ready"
	msgRoomLeave        = "room:leave"
	msgGameGuess        = "game:guess"
)

// Server -> client event types.
const (
	msgRoomCreated  = "room:created"
	msgRoomJoined   = "room:joined"
	msgRoomUpdated  = "room:updated"
	msgGameStarted  = "game:started"
	msgGameFinished = "game:finished"
	msgUserUpdated  = "user:updated"
	msgStatsUpdate  = "stats:update"
	msgError        = "error"
)

// ClientMessage carries every client intent; unused fields stay empty.
type ClientMessage struct {
	Type   string  `json:"type"`
	UserID string  `json:"userId,omitempty"` // login
	RoomID string  `json:"roomId,omitempty"` // room:join
	Guess  *VTuber `json:"guess,omitempty"`  // game:guess
}

// RoomMessage delivers a full room snapshot. Used for room:created,
// room:joined, room:updated and game:finished.
type RoomMessage struct {
	Type string `json:"type"`
	Room *Room  `json:"room"`
}

// EventMessage is a payload-free server event (game:started).
type EventMessage struct {
	Type string `json:"type"`
}

// UserMessage acknowledges a login with the resolved identity.
type UserMessage struct {
	Type string `json:"type"`
	User *User  `json:"user"`
}

// StatsMessage is broadcast to everyone whenever presence, the queue or
// the room count changes.
type StatsMessage struct {
	Type          string `json:"type"`
	OnlinePlayers int    `json:"onlinePlayers"`
	QueueCount    int    `json:"queueCount"`
	RoomCount     int    `json:"roomCount"`
}

// ErrorMessage is sent only to the connection whose intent failed.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: msgError, Message: err.Error()}
}
