package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/redis"
)

const channelPrefix = "floor:"

// Channel redis pub/sub channel of one floor
func Channel(outletID, floorID string) string {
	return channelPrefix + outletID + ":" + floorID
}

// roomFromChannel inverse of Channel
func roomFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, channelPrefix) {
		return "", false
	}
	room := strings.TrimPrefix(channel, channelPrefix)
	if !strings.Contains(room, ":") {
		return "", false
	}
	return room, true
}

// RedisPublisher publishes floor events on redis so every API instance's hub receives them
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends event on the floor's channel
func (p *RedisPublisher) Publish(ctx context.Context, outletID, floorID string, event *service.FloorEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, Channel(outletID, floorID), payload)
}

// Relay feeds events published on redis into the local hub. Blocks until ctx is done.
func Relay(ctx context.Context, client *redis.Client, hub *Hub, logger *zap.Logger) error {
	sub := client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info("floor event relay subscribed", zap.String("pattern", channelPrefix+"*"))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			room, ok := roomFromChannel(msg.Channel)
			if !ok {
				logger.Warn("ignoring message on unexpected channel", zap.String("channel", msg.Channel))
				continue
			}
			hub.Deliver(room, []byte(msg.Payload))
		}
	}
}
