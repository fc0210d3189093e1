package service

import (
	"context"
	"time"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
)

// Ports to collaborators outside the table engine. All are injected at construction.

// ShiftLookup reports whether a floor's operating shift is open on a local calendar date
type ShiftLookup interface {
	IsShiftOpen(ctx context.Context, outletID, floorID, localDate string) (bool, error)
}

// OrderLookup read-only order service view. Missing orders are simply absent from the result.
type OrderLookup interface {
	GetSummaries(ctx context.Context, orderIDs []string) (map[string]*dto.OrderSummary, error)
}

// BillingLookup read-only billing service view; nil invoice when the order is not billed
type BillingLookup interface {
	GetInvoiceByOrder(ctx context.Context, orderID string) (*dto.InvoiceSummary, error)
}

// PermissionChecker answers whether an actor holds an elevated role
type PermissionChecker interface {
	IsElevated(ctx context.Context, actorID string) (bool, error)
}

// Broadcaster publishes a floor-scoped event. Fire and forget.
type Broadcaster interface {
	Publish(ctx context.Context, outletID, floorID string, event *FloorEvent) error
}

// Cache read-through cache for table lists and floor views. Readers take Generation before loading
// from the database and pass it to Set, which drops the write if key was invalidated meanwhile.
type Cache interface {
	Get(ctx context.Context, key, field string) (string, bool, error)
	Generation(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key, field, value string, gen int64, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// FloorEvent broadcast envelope
type FloorEvent struct {
	Event       string                 `json:"event"`
	TableID     string                 `json:"table_id,omitempty"`
	TableNumber string                 `json:"table_number,omitempty"`
	OutletID    string                 `json:"outlet_id"`
	FloorID     string                 `json:"floor_id,omitempty"`
	ActorID     string                 `json:"actor_id,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Cache keys
func outletCacheKey(outletID string) string { return "tables:outlet:" + outletID }
func floorCacheKey(floorID string) string { return "tables:floor:" + floorID }

// ── no-op adapters ──

type noopBroadcaster struct{}

func (noopBroadcaster) Publish(context.Context, string, string, *FloorEvent) error { return nil }

type noopCache struct{}

func (noopCache) Get(context.Context, string, string) (string, bool, error) { return "", false, nil }
func (noopCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (noopCache) Set(context.Context, string, string, string, int64, time.Duration) error {
	return nil
}
func (noopCache) Invalidate(context.Context, ...string) error { return nil }

type noopOrders struct{}

func (noopOrders) GetSummaries(context.Context, []string) (map[string]*dto.OrderSummary, error) {
	return map[string]*dto.OrderSummary{}, nil
}

type noopBilling struct{}

func (noopBilling) GetInvoiceByOrder(context.Context, string) (*dto.InvoiceSummary, error) {
	return nil, nil
}

type denyAll struct{}

func (denyAll) IsElevated(context.Context, string) (bool, error) { return false, nil }
