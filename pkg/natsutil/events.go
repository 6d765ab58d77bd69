package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

const (
	eventSource = "warehouse/poller"

	SubjectServiceState     = "warehouse.service.state"
	SubjectSnapshotArchived = "warehouse.snapshot.archived"

	TypeServiceState     = "com.carverauto.warehouse.service.state"
	TypeSnapshotArchived = "com.carverauto.warehouse.snapshot.archived"
)

// streamPublisher is the subset of jetstream.JetStream used for publishing.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js     streamPublisher
	stream string
	logger logger.Logger
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
func NewEventPublisher(js jetstream.JetStream, streamName string, log logger.Logger) *EventPublisher {
	return newEventPublisher(js, streamName, log)
}

func newEventPublisher(js streamPublisher, streamName string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:     js,
		stream: streamName,
		logger: log,
	}
}

// getSeverityForState maps a classification to an event severity.
func getSeverityForState(state models.StatusName) string {
	switch state {
	case models.StatusDown:
		return "error"
	case models.StatusUnknown:
		return "notice"
	case models.StatusUp:
		return "info"
	default:
		return "info"
	}
}

// PublishServiceState publishes a classification change for one service.
func (p *EventPublisher) PublishServiceState(ctx context.Context, data models.ServiceStateEventData) error {
	return p.publish(ctx, TypeServiceState, SubjectServiceState, data.Timestamp, data,
		getSeverityForState(data.CurrentState))
}

// PublishSnapshotArchived publishes the summary of a merged snapshot.
func (p *EventPublisher) PublishSnapshotArchived(ctx context.Context, data models.SnapshotArchivedEventData) error {
	severity := "info"
	if len(data.Down) > 0 {
		severity = "warning"
	}

	return p.publish(ctx, TypeSnapshotArchived, SubjectSnapshotArchived, data.ArchiveAt, data, severity)
}

func (p *EventPublisher) publish(ctx context.Context, eventType, subject string, ts time.Time, data interface{}, severity string) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ack, err := p.js.Publish(ctx, subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Str("severity", severity).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}

// ConnectWithSecurity creates a NATS connection, using mutual TLS when tlsCfg is set.
func ConnectWithSecurity(natsURL string, tlsCfg *models.NATSTLSConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name("warehouse")}

	if tlsCfg != nil {
		tlsConf, err := TLSConfig(tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// ConnectWithEventPublisher connects to NATS as described by cfg and makes
// sure the event stream exists. The caller owns the returned connection.
func ConnectWithEventPublisher(ctx context.Context, cfg *models.EventsConfig, log logger.Logger) (*EventPublisher, *nats.Conn, error) {
	nc, err := ConnectWithSecurity(cfg.URL, cfg.TLS, log)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := CreateEventPublisherWithDomain(ctx, nc, cfg.Domain, cfg.StreamName, cfg.Subjects, log)
	if err != nil {
		nc.Close()

		return nil, nil, err
	}

	return publisher, nc, nil
}

// CreateEventPublisherWithDomain creates an EventPublisher with optional NATS domain support.
func CreateEventPublisherWithDomain(
	ctx context.Context, nc *nats.Conn, domain, streamName string, subjects []string, log logger.Logger) (*EventPublisher, error) {
	var js jetstream.JetStream

	var err error

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context with domain %s: %w", domain, err)
		}
	} else {
		js, err = jetstream.New(nc)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
	}

	subjects = ensureSubjectList(subjects, SubjectServiceState)
	subjects = ensureSubjectList(subjects, SubjectSnapshotArchived)

	stream, err := js.Stream(ctx, streamName)
	if err == nil {
		info := stream.CachedInfo()

		missing := false

		for _, s := range subjects {
			if !subjectCovered(info.Config.Subjects, s) {
				missing = true

				break
			}
		}

		if !missing {
			return NewEventPublisher(js, streamName, log), nil
		}

		subjects = mergeSubjects(info.Config.Subjects, subjects)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: subjects,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create or get stream %s: %w", streamName, err)
	}

	log.Info().Str("stream", streamName).Strs("subjects", subjects).Msg("Configured NATS JetStream stream")

	return NewEventPublisher(js, streamName, log), nil
}

// ensureSubjectList appends subject unless an existing pattern already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	if subjectCovered(subjects, subject) {
		return subjects
	}

	return append(subjects, subject)
}

func subjectCovered(patterns []string, subject string) bool {
	for _, p := range patterns {
		if matchesSubject(p, subject) {
			return true
		}
	}

	return false
}

func mergeSubjects(existing, wanted []string) []string {
	out := append([]string(nil), existing...)

	for _, s := range wanted {
		out = ensureSubjectList(out, s)
	}

	return out
}

// matchesSubject reports whether a NATS subject pattern with `*` and `>`
// wildcards matches subject.
func matchesSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, pt := range pTokens {
		if pt == ">" {
			return len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if pt != "*" && pt != sTokens[i] {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}
