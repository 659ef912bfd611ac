package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/cache"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/publisher"
)

// Server fans stream events out to WebSocket subscribers. It tails the
// Redis line and window streams and broadcasts every envelope to all
// connected clients.
type Server struct {
	port    string
	server  *http.Server
	hub     *Hub
	cache   *cache.RedisCache
	origins []string
	cancel  context.CancelFunc
	log     *logrus.Entry
}

// NewServer creates a WebSocket server over the given cache connection
func NewServer(rc *cache.RedisCache, allowedOrigins []string) *Server {
	log := logger.WithComponent("websocket")

	return &Server{
		hub:     NewHub(log),
		cache:   rc,
		origins: allowedOrigins,
		log:     log,
	}
}

// Start starts the WebSocket server and the stream consumer
func (s *Server) Start(port string) error {
	s.port = port

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Start the hub in a goroutine
	go s.hub.Run()

	// Tail the Redis streams into the hub
	go s.consumeStreams(ctx)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/lines", s.handleLines)
	mux.HandleFunc("/ws/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	s.log.Infof("WebSocket server listening on :%s", port)
	return s.server.ListenAndServe()
}

// handleLines upgrades the connection and subscribes it to line updates
func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("⚠️ Failed to upgrade connection")
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// checkOrigin allows configured origins, or everything when the list is
// empty or contains "*".
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// streamEvent is the message shape pushed to clients: the stream envelope
// with the payload re-inlined as JSON.
type streamEvent struct {
	Stream    string          `json:"stream"`
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// consumeStreams tails the line and window streams from "$" (new events
// only) and forwards each envelope to the hub.
func (s *Server) consumeStreams(ctx context.Context) {
	lastIDs := map[string]string{
		publisher.LineStream:   "$",
		publisher.WindowStream: "$",
	}

	for {
		if ctx.Err() != nil {
			return
		}

		res, err := s.cache.Client().XRead(ctx, &redis.XReadArgs{
			Streams: []string{
				publisher.LineStream, publisher.WindowStream,
				lastIDs[publisher.LineStream], lastIDs[publisher.WindowStream],
			},
			Count: 64,
			Block: 5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Block timeout, nothing new
			}
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Warn("⚠️ Stream read failed, retrying...")
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				lastIDs[stream.Stream] = msg.ID
				if payload := encodeStreamEvent(stream.Stream, msg.Values); payload != nil {
					s.hub.Broadcast(payload)
				}
			}
		}
	}
}

// encodeStreamEvent re-envelopes one stream entry for clients. Returns nil
// when the entry is malformed.
func encodeStreamEvent(stream string, values map[string]interface{}) []byte {
	data, ok := values["data"].(string)
	if !ok || !json.Valid([]byte(data)) {
		return nil
	}

	event := streamEvent{
		Stream:    stream,
		EventID:   stringValue(values["event_id"]),
		Type:      stringValue(values["type"]),
		Data:      json.RawMessage(data),
		Timestamp: stringValue(values["timestamp"]),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return payload
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown gracefully shuts down the server and the stream consumer
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
