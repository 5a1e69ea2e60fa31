package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/plateful/plateful/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const (
	refundQueueName = "wallet_refund_queue"
	maxAttempts     = 3
)

// retryDelays is the backoff schedule between refund attempts.
var retryDelays = []time.Duration{10 * time.Second, 30 * time.Second, 60 * time.Second}

// RetryDelay returns the delay to wait after the given zero-based attempt.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}
	return retryDelays[attempt]
}

// RefundTask is the message delivered per order cancellation. Attempt
// counts completed delivery attempts.
type RefundTask struct {
	OrderID uint `json:"order_id"`
	UserID  uint `json:"user_id"`
	Attempt int  `json:"attempt"`
}

// RefundProcessor is the workflow the queue drives. A nil return marks the
// task done; an error triggers a retry.
type RefundProcessor interface {
	ProcessRefund(orderID, userID uint) error
}

// TerminalFailureHandler is invoked once a task has exhausted its retries.
type TerminalFailureHandler func(task RefundTask, err error)

// RefundQueue is the RabbitMQ-backed refund task queue: cancellation
// endpoints enqueue, the worker consumes with at-least-once delivery and
// bounded retries. Duplicate deliveries are absorbed by the workflow's
// idempotency guards.
type RefundQueue struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	processor RefundProcessor
	onFailure TerminalFailureHandler
	prefetch  int
}

// NewRefundQueue connects to the broker and declares the durable queue.
func NewRefundQueue(url string, processor RefundProcessor, onFailure TerminalFailureHandler) (*RefundQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		refundQueueName, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // args
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RefundQueue{
		conn:      conn,
		channel:   channel,
		processor: processor,
		onFailure: onFailure,
		prefetch:  8,
	}, nil
}

// Enqueue publishes a fresh refund task for the given order.
func (q *RefundQueue) Enqueue(orderID, userID uint) error {
	utils.LogInfo("Enqueueing refund task for order %d", orderID)
	return q.publish(RefundTask{OrderID: orderID, UserID: userID})
}

func (q *RefundQueue) publish(task RefundTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.channel.PublishWithContext(context.Background(),
		"",              // exchange
		refundQueueName, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// Start consumes refund tasks until the context is cancelled. Message
// handling runs with bounded concurrency; unrelated orders proceed in
// parallel while same-order races are serialized by the workflow's row
// lock.
func (q *RefundQueue) Start(ctx context.Context) error {
	if err := q.channel.Qos(q.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	messages, err := q.channel.Consume(
		refundQueueName, // queue
		"refund-worker", // consumer
		false,           // auto-ack
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	utils.LogInfo("Refund worker consuming from %s", refundQueueName)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(q.prefetch)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("refund queue channel closed")
			}
			m := msg
			g.Go(func() error {
				q.handleDelivery(ctx, m)
				return nil
			})
		}
	}
}

func (q *RefundQueue) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var task RefundTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		utils.LogError("Failed to parse refund task, dropping: %v", err)
		if err := msg.Nack(false, false); err != nil {
			utils.LogError("Failed to nack unparseable task: %v", err)
		}
		return
	}

	err := q.processor.ProcessRefund(task.OrderID, task.UserID)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			utils.LogError("Failed to ack refund task for order %d: %v", task.OrderID, err)
		}
		return
	}

	if task.Attempt+1 >= maxAttempts {
		utils.LogError("Refund for order %d failed after %d attempts: %v", task.OrderID, task.Attempt+1, err)
		if q.onFailure != nil {
			q.onFailure(task, err)
		}
		if err := msg.Ack(false); err != nil {
			utils.LogError("Failed to ack exhausted refund task for order %d: %v", task.OrderID, err)
		}
		return
	}

	delay := RetryDelay(task.Attempt)
	utils.LogInfo("Refund for order %d failed (attempt %d), retrying in %v: %v", task.OrderID, task.Attempt+1, delay, err)

	select {
	case <-ctx.Done():
		// Shutting down; hand the task back to the broker untouched.
		if err := msg.Nack(false, true); err != nil {
			utils.LogError("Failed to requeue refund task for order %d: %v", task.OrderID, err)
		}
		return
	case <-time.After(delay):
	}

	task.Attempt++
	if err := q.publish(task); err != nil {
		utils.LogError("Failed to republish refund task for order %d: %v", task.OrderID, err)
		if err := msg.Nack(false, true); err != nil {
			utils.LogError("Failed to requeue refund task for order %d: %v", task.OrderID, err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		utils.LogError("Failed to ack retried refund task for order %d: %v", task.OrderID, err)
	}
}

// Close shuts down the broker connection.
func (q *RefundQueue) Close() {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}
