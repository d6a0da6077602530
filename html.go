/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Minimal built-in client for quick testing against the websocket
// contract; the real UI lives in a separate frontend.
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>VTuber Guessr</title>
<style>
  body { font-family: system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; }
  h1 { margin-bottom: 0.5rem; }
  #status { margin-bottom: 1rem; font-size: 0.9rem; }
  #log { margin-top: 1rem; padding: 0; list-style: none; font-family: monospace; font-size: 0.8rem; }
  #log li { padding: 0.15rem 0; border-bottom: 1px solid #ddd; }
  button { margin-right: 0.5rem; }
</style>
</head>
<body>
<h1>VTuber Guessr</h1>
<div id="status">Connecting…</div>
<div>
  <button onclick="send({type:'matchmaking:join'})">Find match</button>
  <button onclick="send({type:'matchmaking:leave'})">Leave queue</button>
  <button onclick="joinRoom()">Join room…</button>
  <button onclick="send({type:'room:ready'})">Ready</button>
  <button onclick="send({type:'room:leave'})">Leave room</button>
  <button onclick="guess()">Guess…</button>
</div>
<ul id="log"></ul>

<script>
(function() {
  const statusEl = document.getElementById('status');
  const logEl = document.getElementById('log');

  let userId = localStorage.getItem('vguessr_id') || '';

  const proto = (location.protocol === 'https:') ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + location.pathname.replace(/\/$/, '') + '/ws');

  window.send = function(msg) { ws.send(JSON.stringify(msg)); };
  window.joinRoom = function() {
    const roomId = prompt('4-digit room id:') || '';
    if (roomId) send({type:'room:join', roomId: roomId});
  };
  window.guess = function() {
    const id = prompt('VTuber id (see /vtubers):') || '';
    if (id) send({type:'game:guess', guess: {id: id}});
  };

  function log(line) {
    const li = document.createElement('li');
    li.textContent = line;
    logEl.prepend(li);
  }

  ws.onopen = function() {
    statusEl.textContent = 'Connected.';
    send({type: 'login', userId: userId});
  };

  ws.onmessage = function(event) {
    try {
      const msg = JSON.parse(event.data);
      if (msg.type === 'user:updated') {
        userId = msg.user.id;
        localStorage.setItem('vguessr_id', userId);
        statusEl.textContent = 'Playing as ' + msg.user.name;
      } else if (msg.type === 'stats:update') {
        log('online ' + msg.onlinePlayers + ' | queue ' + msg.queueCount + ' | rooms ' + msg.roomCount);
      } else {
        log(event.data);
      }
    } catch (e) {
      console.error('bad message', e);
    }
  };

  ws.onclose = function() { statusEl.textContent = 'Disconnected.'; };
  ws.onerror = function() { statusEl.textContent = 'Error with WebSocket.'; };
})();
</script>
</body>
</html>
`

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(indexHTML))
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: /ws
Disallow: /leaderboard/`

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
