package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/orderdesk/backoffice/internal/kafka"
	"github.com/orderdesk/backoffice/internal/orders"
	"github.com/orderdesk/backoffice/internal/redisx"
)

// Exporter receives archived-order events and records them in the
// audit_exports table. The insert is keyed on event id and the redis dedup
// short-circuits redeliveries, so replays are harmless.
type Exporter struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	Log   *zap.Logger
}

// HandleOrderArchived is wired as the kafka consumer handler.
func (e *Exporter) HandleOrderArchived(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderArchived {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "audit", env.EventID)
	exists, _ := redisx.Exists(ctx, e.Redis, dkey)
	if exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderArchivedPayload](env.Payload)
	if err != nil {
		return err
	}

	if _, err := e.DB.Exec(ctx, `
		INSERT INTO audit_exports(event_id, order_id, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING`,
		env.EventID, p.OrderID, env.Payload); err != nil {
		return err
	}

	_ = e.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	e.Log.Info("archived order exported",
		zap.String("order_id", p.OrderID),
		zap.String("event_id", env.EventID),
		zap.Int("total_cents", p.TotalCents))
	return nil
}
