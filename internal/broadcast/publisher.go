// Package broadcast pushes plume snapshot events onto Pub/Sub so map
// clients and alerting pipelines learn about new footprints without
// polling the API.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/sublyime/plumewatch/internal/plume"
)

// EventTypeSnapshot marks a freshly computed plume footprint.
const EventTypeSnapshot = "plume_snapshot"

// SnapshotEvent is the wire form of a snapshot announcement. The full
// contour geometry stays in the store; subscribers fetch it through the
// API when they need to draw.
type SnapshotEvent struct {
	EventType       string    `json:"event_type"`
	SnapshotID      string    `json:"snapshot_id"`
	ReleaseID       string    `json:"release_id"`
	Chemical        string    `json:"chemical"`
	Stability       string    `json:"stability"`
	StrengthKgS     float64   `json:"strength_kg_s"`
	EffectiveHeight float64   `json:"effective_height_m"`
	MaxLevel        float64   `json:"max_level_mg_m3,omitempty"`
	Truncated       bool      `json:"truncated"`
	ComputedAt      time.Time `json:"computed_at"`
}

// NewSnapshotEvent builds the announcement for one snapshot.
func NewSnapshotEvent(snap *plume.Snapshot) SnapshotEvent {
	ev := SnapshotEvent{
		EventType:       EventTypeSnapshot,
		SnapshotID:      snap.ID,
		ReleaseID:       snap.ReleaseID,
		Chemical:        snap.ChemicalName,
		Stability:       snap.Stability,
		StrengthKgS:     snap.Strength,
		EffectiveHeight: snap.EffectiveHeight,
		Truncated:       snap.Truncated,
		ComputedAt:      snap.ComputedAt,
	}
	if len(snap.Contours) > 0 {
		ev.MaxLevel = snap.Contours[0].Level
	}
	return ev
}

// PublisherConfig holds configuration for the snapshot publisher.
type PublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// Publisher announces plume snapshots on a Pub/Sub topic.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// NewPublisher creates a snapshot publisher bound to one topic.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// PublishSnapshot sends one snapshot announcement and waits for the
// server acknowledgement.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap *plume.Snapshot) error {
	data, err := json.Marshal(NewSnapshotEvent(snap))
	if err != nil {
		return fmt.Errorf("encoding snapshot event: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": EventTypeSnapshot,
			"release_id": snap.ReleaseID,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing snapshot event: %w", err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("release_id", snap.ReleaseID).
		Str("topic", p.topicName).
		Msg("published snapshot event")

	return nil
}

// Close stops the publisher and releases the client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
