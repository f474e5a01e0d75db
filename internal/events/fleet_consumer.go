package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// VehicleStatusApplier applies an externally reported vehicle status
// change. Implemented by the vehicle application service.
type VehicleStatusApplier interface {
	ApplyStatusChange(ctx context.Context, vehicleID uuid.UUID, status string) error
}

// FleetEventConsumer listens to fleet events and applies vehicle status
// changes reported by external systems (maintenance, fleet ops).
type FleetEventConsumer struct {
	consumer *Consumer
	applier  VehicleStatusApplier
	logger   *zap.Logger
}

// NewFleetEventConsumer creates a new FleetEventConsumer.
func NewFleetEventConsumer(
	brokers []string,
	groupID string,
	applier VehicleStatusApplier,
	logger *zap.Logger,
) *FleetEventConsumer {
	consumer := NewConsumer(brokers, groupID, TopicFleetEvents, logger)
	return &FleetEventConsumer{
		consumer: consumer,
		applier:  applier,
		logger:   logger,
	}
}

// Start begins consuming fleet events. This blocks until the context is
// cancelled.
func (c *FleetEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *FleetEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *FleetEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from fleet topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case VehicleStatusChanged:
		return c.handleStatusChanged(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled fleet event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *FleetEventConsumer) handleStatusChanged(ctx context.Context, cloudEvent CloudEvent) error {
	var evt VehicleStatusChangedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse VehicleStatusChangedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing vehicle status change",
		zap.String("vehicle_id", evt.VehicleID.String()),
		zap.String("status", evt.Status),
	)

	if err := c.applier.ApplyStatusChange(ctx, evt.VehicleID, evt.Status); err != nil {
		c.logger.Error("failed to apply vehicle status change",
			zap.String("vehicle_id", evt.VehicleID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
