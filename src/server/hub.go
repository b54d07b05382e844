package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"signalscan/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop.
func (s *Server) handleWebsockets() {
	for {
		select {
		case <-s.hubDone:
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()
			return

		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()
			// Full state on connect so the client never starts blind.
			client.send <- s.snapshot()

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()

		case message := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to keep the Hub moving.
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------

// snapshot assembles the full state a fresh client receives.
func (s *Server) snapshot() *models.LatestState {
	news := s.Store.LoadBreakingNews()
	for id, item := range s.Store.LoadGeneralNews() {
		news[id] = item
	}

	return &models.LatestState{
		Type:      "INITIAL",
		Channels:  s.State.Memberships(),
		Records:   s.State.Records(),
		News:      news,
		Halts:     s.Store.LoadActiveHalts(),
		Timestamp: time.Now().Unix(),
	}
}

// -----------------------------------------------------------------------------
// Event Sink Implementation
// -----------------------------------------------------------------------------

func (s *Server) PublishStock(event models.StockEvent) {
	s.push(&models.HubMessage{Type: "stock", Stock: &event})
}

func (s *Server) PublishNews(item models.NewsItem) {
	s.push(&models.HubMessage{Type: "news", News: &item})
}

func (s *Server) PublishHalt(record models.HaltRecord) {
	s.push(&models.HubMessage{Type: "halt", Halt: &record})
}

// -----------------------------------------------------------------------------

// push queues one message without ever blocking the publishing scanner.
func (s *Server) push(msg *models.HubMessage) {
	select {
	case s.broadcast <- msg:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s event", msg.Type)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Warning("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.hubDone:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

type clientCommand struct {
	Command string `json:"command"`
}

// HandleClientMessage serves the one supported client command: a full state
// re-send. Anything unparsable disconnects the client.
func (s *Server) HandleClientMessage(client *Client, message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Warning("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "snapshot" {
		return
	}

	select {
	case client.send <- s.snapshot():
	default:
		// Client buffer full; the hub loop prunes it on the next broadcast.
	}
}
