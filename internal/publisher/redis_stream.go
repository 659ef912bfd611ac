package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Stream names consumed by the websocket fanout and any downstream workers.
const (
	LineStream   = "odds.lines.icehockey_nhl"
	WindowStream = "stats.windows.icehockey_nhl"
)

// maxStreamLen caps each stream; trimming is approximate (XADD MAXLEN ~).
const maxStreamLen = 10000

// StreamPublisher publishes line and window updates to Redis streams
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a publisher from an existing client
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// NewStreamPublisherFromURL creates a publisher with its own connection
func NewStreamPublisherFromURL(redisURL string) (*StreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &StreamPublisher{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

// PublishLineUpdate publishes a selected near-even line batch
func (p *StreamPublisher) PublishLineUpdate(ctx context.Context, data interface{}) error {
	return p.publish(ctx, LineStream, "line_update", data)
}

// PublishWindowUpdate publishes a freshly aggregated team window
func (p *StreamPublisher) PublishWindowUpdate(ctx context.Context, data interface{}) error {
	return p.publish(ctx, WindowStream, "window_update", data)
}

// publish appends one enveloped event to a stream
func (p *StreamPublisher) publish(ctx context.Context, stream, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":  uuid.NewString(),
			"type":      eventType,
			"data":      string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
