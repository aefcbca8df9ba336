// Package analytics publishes interaction events to NATS JetStream,
// fire-and-forget. The gateway reports what viewers do with posts; the
// downstream pipeline owns everything after the broker.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every interaction event type.
const (
	SubjectPostViewed      = "feedview.post.viewed"
	SubjectCommentCreated  = "feedview.comment.created"
	SubjectCommentsLoaded  = "feedview.comments.loaded"
	SubjectReactionSet     = "feedview.reaction.set"
	SubjectReactionCleared = "feedview.reaction.cleared"
	SubjectSearchPerformed = "feedview.search.performed"
)

// Event is the canonical envelope sent on all feedview.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes interaction events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (tests, deployments without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	return &Publisher{js: js, log: log}
}

// Publish sends an event asynchronously. Failures are logged as warnings
// and never surface to the caller; losing an analytics event must not
// break a view interaction. Safe on a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
