package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/config"
)

const activityLogFile = "post_review.log"

// Consumer reads PostReviewEvents and appends one line per event to
// <LogDir>/post_review.log.
type Consumer struct {
	cfg config.QueueConfig
	log *zap.Logger
}

func NewConsumer(cfg config.QueueConfig, log *zap.Logger) *Consumer {
	return &Consumer{cfg: cfg, log: log}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// Processing errors are logged and the offending message is rejected
// without requeue so the loop keeps going.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("activity-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil && ctx.Err() == nil {
			c.log.Warn("activity-consumer: consume loop ended, reconnecting", zap.Error(err))
			sleep(ctx, 2*time.Second)
		}
		_ = conn.Close()
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("activity-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.log.Warn("activity-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev PostReviewEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.cfg.LogDir, activityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatActivityLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatActivityLine renders ev as a single newline-terminated log line.
func FormatActivityLine(ev PostReviewEvent) string {
	rating := "-"
	if ev.Rating != nil {
		rating = fmt.Sprintf("%.1f", *ev.Rating)
	}
	return fmt.Sprintf("[%s] %s | post_id=%d | user_id=%d | food=%q | restaurant=%q | rating=%s\n",
		ev.OccurredAt, ev.Type, ev.PostID, ev.UserID, ev.FoodName, ev.RestaurantName, rating)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
