package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsClient is one connected spot subscriber.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan interface{}
}

// SpotBroadcaster fans each cycle's batch out to WebSocket subscribers.
// Slow clients are disconnected rather than allowed to stall the cycle.
type SpotBroadcaster struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

func NewSpotBroadcaster() *SpotBroadcaster {
	return &SpotBroadcaster{clients: make(map[string]*wsClient)}
}

// HandleWS upgrades the request and registers the subscriber.
func (b *SpotBroadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan interface{}, 16),
	}

	b.mu.Lock()
	b.clients[client.id] = client
	count := len(b.clients)
	b.mu.Unlock()
	log.Printf("[WebSocket] Client %s connected (%d total)", client.id[:8], count)

	go b.writeLoop(client)
	go b.readLoop(client)
}

// Broadcast queues the batch to every subscriber, dropping clients whose
// send buffer is full.
func (b *SpotBroadcaster) Broadcast(batch *CycleBatch) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, client := range b.clients {
		select {
		case client.send <- batch:
		default:
			// Buffer full: the write loop will tear the client down when
			// the channel closes.
			go b.remove(client.id)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (b *SpotBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *SpotBroadcaster) remove(id string) {
	b.mu.Lock()
	client, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
		close(client.send)
	}
	b.mu.Unlock()

	if ok {
		client.conn.Close()
		log.Printf("[WebSocket] Client %s disconnected", id[:8])
	}
}

func (b *SpotBroadcaster) writeLoop(client *wsClient) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteJSON(msg); err != nil {
				b.remove(client.id)
				return
			}
		case <-ping.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.remove(client.id)
				return
			}
		}
	}
}

// readLoop drains and discards client messages so pings/pongs and close
// frames are processed.
func (b *SpotBroadcaster) readLoop(client *wsClient) {
	client.conn.SetReadLimit(1024)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			b.remove(client.id)
			return
		}
	}
}
