package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. user stays nil until a login
// intent resolves an identity.
type Client struct {
	conn *websocket.Conn
	send chan any
	user *User
}

// serveWS upgrades the connection and runs the read loop until the
// client goes away.
func serveWS(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
		}

		hub.register(client)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if err := c.dispatch(h, msg); err != nil {
			// Errors go to the offending connection only.
			h.sendError(c, err)
		}
	}
}

// dispatch routes one intent into the hub. Every intent except login
// requires a resolved identity.
func (c *Client) dispatch(h *Hub, msg ClientMessage) error {
	if msg.Type == msgLogin {
		userID := msg.UserID
		if userID == "" {
			// First visit from a client that has not persisted an id yet.
			userID = uuid.NewString()
		}
		return h.handleLogin(c, userID)
	}

	if c.user == nil {
		return errInvalidState
	}

	switch msg.Type {
	case msgMatchmakingJoin:
		return h.handleJoinQueue(c)
	case msgMatchmakingLeave:
		return h.handleLeaveQueue(c)
	case msgRoomJoin:
		return h.handleJoinRoom(c, msg.RoomID)
	case msgRoomReady:
		return h.handleReady(c)
	case msgRoomLeave:
		return h.handleLeaveRoom(c)
	case msgGameGuess:
		if msg.Guess == nil {
			return nil
		}
		return h.handleGuess(c, msg.Guess)
	default:
		// ignore unknown types
		return nil
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
