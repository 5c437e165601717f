package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/isdelr/datingapp-be/internal/auth"
	ws "github.com/isdelr/datingapp-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler streams security events to moderators and admins.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Browsers connecting
// from an origin outside allowedOrigins are refused.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Serve handles the WebSocket connection request. It must sit behind the guard.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID())
	if !h.hub.Attach(client) {
		conn.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(handleIncomingWSMessage)
		h.hub.Detach(client)
	}()
	wg.Wait()
}

// handleIncomingWSMessage answers pings; the feed is otherwise one-way.
func handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	switch msg.Action {
	case "ping":
		trySend(client, mustMarshal(ws.Message{Action: ws.ActionPong}))
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		trySend(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}

func mustMarshal(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

// trySend drops the message if the client is gone or backed up. Send is
// closed by the hub, so a panic here means the client was already detached.
func trySend(client *ws.Client, msg []byte) {
	defer func() { _ = recover() }()
	select {
	case client.Send <- msg:
	default:
	}
}
