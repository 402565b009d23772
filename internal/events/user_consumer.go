package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/platform/apperr"
	"github.com/shareit/service-booking/internal/platform/kafka"
)

// ProfileSyncer applies account profile changes to the user directory.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, evt userDomain.ProfileEvent) error
}

// UserEventConsumer keeps the local user directory in step with the account
// service.
type UserEventConsumer struct {
	consumer *kafka.Consumer
	syncer   ProfileSyncer
	logger   *zap.Logger
}

// NewUserEventConsumer creates a new UserEventConsumer.
func NewUserEventConsumer(
	brokers []string,
	groupID string,
	syncer ProfileSyncer,
	logger *zap.Logger,
) *UserEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, userDomain.TopicUserEvents, logger)
	return newUserEventConsumer(consumer, syncer, logger)
}

func newUserEventConsumer(consumer *kafka.Consumer, syncer ProfileSyncer, logger *zap.Logger) *UserEventConsumer {
	return &UserEventConsumer{
		consumer: consumer,
		syncer:   syncer,
		logger:   logger,
	}
}

// Start begins consuming user events. This blocks until the context is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *UserEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *UserEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from user topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case userDomain.EventUserRegistered, userDomain.EventUserUpdated:
		return c.handleProfile(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled user event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *UserEventConsumer) handleProfile(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt userDomain.ProfileEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ProfileEvent data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil
	}

	if err := c.syncer.SyncProfile(ctx, evt); err != nil {
		// Invalid or conflicting profiles are committed and skipped; anything
		// else is retried by the consumer.
		if apperr.IsInvalidRequest(err) || apperr.IsConflict(err) {
			c.logger.Warn("skipping unusable user profile",
				zap.String("user_id", evt.UserID.String()),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	c.logger.Info("user profile synced",
		zap.String("user_id", evt.UserID.String()),
		zap.String("type", cloudEvent.Type),
	)
	return nil
}
