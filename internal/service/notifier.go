package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

const notifyTimeout = 3 * time.Second

// notifier post-commit side channel: floor broadcast plus cache invalidation.
// Runs only after the transaction committed; every failure is logged and swallowed.
type notifier struct {
	broadcaster Broadcaster
	cache       Cache
	logger      *zap.Logger
}

func newNotifier(broadcaster Broadcaster, cache Cache, logger *zap.Logger) *notifier {
	return &notifier{broadcaster: broadcaster, cache: cache, logger: logger}
}

// tableChanged broadcasts event for table and drops the outlet/floor cached views
func (n *notifier) tableChanged(ctx context.Context, table *model.Table, event, actorID string, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	n.invalidate(ctx, table.OutletID, table.FloorKey())
	n.publish(ctx, &FloorEvent{
		Event:       event,
		TableID:     table.TableID,
		TableNumber: table.TableNumber,
		OutletID:    table.OutletID,
		FloorID:     table.FloorKey(),
		ActorID:     actorID,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	})
}

// groupChanged tableChanged for a merge primary, followed by one event per secondary
// (same floor as the primary) carrying the status it moved to.
func (n *notifier) groupChanged(ctx context.Context, primary *model.Table, secondaryIDs, secondaryNumbers []string, event, secondaryStatus, actorID string, data map[string]interface{}) {
	n.tableChanged(ctx, primary, event, actorID, data)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	now := time.Now().UTC()
	for i, id := range secondaryIDs {
		number := id
		if i < len(secondaryNumbers) {
			number = secondaryNumbers[i]
		}
		n.publish(ctx, &FloorEvent{
			Event:       event,
			TableID:     id,
			TableNumber: number,
			OutletID:    primary.OutletID,
			FloorID:     primary.FloorKey(),
			ActorID:     actorID,
			Timestamp:   now,
			Data: map[string]interface{}{
				"role":                 "secondary",
				"status":               secondaryStatus,
				"primary_table_id":     primary.TableID,
				"primary_table_number": primary.TableNumber,
			},
		})
	}
}

func (n *notifier) publish(ctx context.Context, evt *FloorEvent) {
	if err := n.broadcaster.Publish(ctx, evt.OutletID, evt.FloorID, evt); err != nil {
		n.logger.Warn("broadcast failed",
			zap.String("event", evt.Event),
			zap.String("table_id", evt.TableID),
			zap.String("floor_id", evt.FloorID),
			zap.Error(err))
	}
}

// floorChanged broadcasts a floor-level event (no table) and drops the cached views of that floor
func (n *notifier) floorChanged(ctx context.Context, outletID, floorID, event, actorID string, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	n.invalidate(ctx, outletID, floorID)
	n.publish(ctx, &FloorEvent{
		Event:     event,
		OutletID:  outletID,
		FloorID:   floorID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// invalidate drops cached table lists; floorID may be empty
func (n *notifier) invalidate(ctx context.Context, outletID, floorID string) {
	keys := []string{outletCacheKey(outletID)}
	if floorID != "" {
		keys = append(keys, floorCacheKey(floorID))
	}
	if err := n.cache.Invalidate(ctx, keys...); err != nil {
		n.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// cacheGeneration reads key's generation ahead of a database load. false means the load must not
// be cached, since the write-back could not be checked against later invalidations.
func cacheGeneration(ctx context.Context, cache Cache, key string, logger *zap.Logger) (int64, bool) {
	gen, err := cache.Generation(ctx, key)
	if err != nil {
		logger.Warn("cache generation read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return gen, true
}
