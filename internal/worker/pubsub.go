package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	recomputeJob     *RecomputeJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RecomputeJob     *RecomputeJob
	Logger           zerolog.Logger
}

// JobMessage represents a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// ReleaseID limits a recompute to one release. Empty means all
	// active releases.
	ReleaseID string `json:"release_id,omitempty"`
}

// Job types accepted on the subscription.
const (
	JobTypeRecompute   = "plume_recompute"
	JobTypeHealthCheck = "health_check"
)

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		recomputeJob:     cfg.RecomputeJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case JobTypeRecompute:
		err = h.handleRecompute(ctx, job)
	case JobTypeHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleRecompute(ctx context.Context, job JobMessage) error {
	if job.ReleaseID != "" {
		rr := h.recomputeJob.recomputeRelease(ctx, job.ReleaseID)
		if rr.skipped {
			h.logger.Info().
				Str("release_id", job.ReleaseID).
				Msg("recompute skipped under calm conditions")
			return nil
		}
		return rr.err
	}

	result := h.recomputeJob.Run(ctx)

	// Consider the run successful unless failures dominate.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many recompute failures: %d/%d", result.Failed, result.TotalReleases)
	}
	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Listing active releases exercises the store without touching the
	// weather provider.
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := h.recomputeJob.releases.ListActive(checkCtx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
