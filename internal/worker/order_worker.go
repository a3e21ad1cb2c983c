package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/hortifruti-api/internal/model"
	"github.com/flicky/hortifruti-api/internal/repository"
)

const (
	orderEventsQueue = "orders.events"
	dlxExchange      = "orders.dlx"
	dlqQueueName     = "orders.dlq"
)

const (
	IdempotencyPrefix = "event_processed:"
	IdempotencyTTL    = 24 * time.Hour
)

var errMalformed = errors.New("malformed order event")

// Claimer guards against handling the same event twice.
type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type ProductLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type OrderWorker struct {
	channel           *amqp.Channel
	claimer           Claimer
	notifications     repository.NotificationRepository
	productRepo       ProductLookup
	lowStockThreshold int
	log               *slog.Logger
	now               func() time.Time
	done              chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	claimer Claimer,
	notifications repository.NotificationRepository,
	productRepo ProductLookup,
	lowStockThreshold int,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:           ch,
		claimer:           claimer,
		notifications:     notifications,
		productRepo:       productRepo,
		lowStockThreshold: lowStockThreshold,
		log:               log,
		now:               time.Now,
		done:              make(chan struct{}),
	}
}

// SetupRabbitMQ declares the order events queue and its dead-letter route.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderEventsQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderEventsQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderEventsQueue,
	}); err != nil {
		return fmt.Errorf("declare order events queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started", "queue", orderEventsQueue)
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	if err := w.handle(ctx, msg.Body); err != nil {
		// Both malformed and failed events go to the DLQ; redelivery would
		// not change the outcome.
		w.log.Error("order event failed", "error", err)
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}

// handle decodes one event and records its notifications exactly once.
func (w *OrderWorker) handle(ctx context.Context, body []byte) error {
	var event model.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.ID == uuid.Nil || event.OrderID == uuid.Nil {
		return fmt.Errorf("%w: missing id", errMalformed)
	}

	log := w.log.With("event_id", event.ID, "order_id", event.OrderID, "event", event.Type)

	key := event.ID.String()
	first, err := w.claimer.Claim(ctx, key)
	if err != nil {
		return fmt.Errorf("claim event: %w", err)
	}
	if !first {
		log.Info("event already processed, skipping")
		return nil
	}

	if err := w.apply(ctx, event); err != nil {
		if relErr := w.claimer.Release(ctx, key); relErr != nil {
			log.Error("release event claim", "error", relErr)
		}
		return err
	}
	log.Info("order event processed")
	return nil
}

func (w *OrderWorker) apply(ctx context.Context, event model.OrderEvent) error {
	orderID := event.OrderID
	short := orderID.String()[:8]

	switch event.Type {
	case model.OrderEventCreated:
		if err := w.push(ctx, model.Notification{
			Kind:    model.NotificationNewOrder,
			Message: fmt.Sprintf("New order #%s: R$ %s", short, event.Total.StringFixed(2)),
			OrderID: &orderID,
		}); err != nil {
			return err
		}
		return w.checkLowStock(ctx, event)

	case model.OrderEventCancelled:
		return w.push(ctx, model.Notification{
			Kind:    model.NotificationOrderCancelled,
			Message: fmt.Sprintf("Order #%s was cancelled", short),
			OrderID: &orderID,
		})

	case model.OrderEventStatusChanged:
		return w.push(ctx, model.Notification{
			Kind:    model.NotificationOrderStatus,
			Message: fmt.Sprintf("Order #%s is now %s", short, event.Status),
			OrderID: &orderID,
		})
	}
	return fmt.Errorf("%w: unknown type %q", errMalformed, event.Type)
}

func (w *OrderWorker) checkLowStock(ctx context.Context, event model.OrderEvent) error {
	seen := make(map[uuid.UUID]bool, len(event.Items))
	for _, item := range event.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true

		product, err := w.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil || product.Stock > w.lowStockThreshold {
			continue
		}
		productID := product.ID
		if err := w.push(ctx, model.Notification{
			Kind:      model.NotificationLowStock,
			Message:   fmt.Sprintf("%s is running low: %d %s left", product.Name, product.Stock, product.Unit),
			ProductID: &productID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *OrderWorker) push(ctx context.Context, n model.Notification) error {
	n.CreatedAt = w.now().UTC()
	if err := w.notifications.Push(ctx, n); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}
