package service

import (
	"context"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/internal/pkg/metrics"
	"med-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "TURN_CONSUMER"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// turnConsumerService drains TURN_COMPLETED events from the in-process bus
// into the metrics log, the prometheus collectors and, when configured, NATS.
type turnConsumerService struct {
	subscriber    message.Subscriber
	topicName     string
	metricsLogger logger.ILogger
	metrics       *metrics.Metrics
	forwarder     events.Publisher
	logger        logger.ILogger
}

func NewTurnConsumerService(
	subscriber message.Subscriber,
	topicName string,
	metricsLogger logger.ILogger,
	m *metrics.Metrics,
	forwarder events.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &turnConsumerService{
		subscriber:    subscriber,
		topicName:     topicName,
		metricsLogger: metricsLogger,
		metrics:       m,
		forwarder:     forwarder,
		logger:        log,
	}
}

func (cs *turnConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *turnConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error(consumerModule, "Dropping undecodable event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	details := make(map[string]interface{}, len(event.Data)+1)
	for k, v := range event.Data {
		details[k] = v
	}
	details["occurred_at"] = event.OccurredAt.Format(time.RFC3339Nano)
	cs.metricsLogger.Info(consumerModule, event.Type, details)

	if event.Type == events.TypeTurnCompleted && cs.metrics != nil {
		cs.metrics.ObserveTurn(turnFromPayload(event.Data))
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to forward event", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}

func turnFromPayload(data map[string]interface{}) metrics.Turn {
	t := metrics.Turn{}
	t.Blocked, _ = data["blocked"].(bool)
	t.Failed, _ = data["failed"].(bool)
	t.Fallback, _ = data["fallback"].(bool)
	t.NotFound, _ = data["not_found"].(bool)
	if ms, ok := data["latency_ms"].(float64); ok {
		t.Latency = time.Duration(ms) * time.Millisecond
	}
	if routes, ok := data["routes"].([]interface{}); ok {
		for _, r := range routes {
			if s, ok := r.(string); ok {
				t.Routes = append(t.Routes, s)
			}
		}
	}
	return t
}
