package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

var errTestFixture = errors.New("fixture error")

type publishedMsg struct {
	subject string
	data    []byte
}

type fakeJetStream struct {
	msgs []publishedMsg
	err  error
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.msgs = append(f.msgs, publishedMsg{subject: subject, data: data})

	return &jetstream.PubAck{Stream: "warehouse", Sequence: uint64(len(f.msgs))}, nil
}

func TestPublishServiceState(t *testing.T) {
	js := &fakeJetStream{}
	p := newEventPublisher(js, "warehouse", logger.NewTestLogger())

	ts := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	err := p.PublishServiceState(context.Background(), models.ServiceStateEventData{
		ServiceID:     "games",
		PreviousState: models.StatusUp,
		CurrentState:  models.StatusDown,
		Reason:        "Non-200 status code",
		StatusCode:    503,
		Timestamp:     ts,
	})
	require.NoError(t, err)
	require.Len(t, js.msgs, 1)
	assert.Equal(t, SubjectServiceState, js.msgs[0].subject)

	var event struct {
		SpecVersion string                       `json:"specversion"`
		ID          string                       `json:"id"`
		Type        string                       `json:"type"`
		Source      string                       `json:"source"`
		Time        time.Time                    `json:"time"`
		Data        models.ServiceStateEventData `json:"data"`
	}

	require.NoError(t, json.Unmarshal(js.msgs[0].data, &event))
	assert.Equal(t, "1.0", event.SpecVersion)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, TypeServiceState, event.Type)
	assert.Equal(t, "warehouse/poller", event.Source)
	assert.True(t, ts.Equal(event.Time))
	assert.Equal(t, "games", event.Data.ServiceID)
	assert.Equal(t, models.StatusDown, event.Data.CurrentState)
}

func TestPublishSnapshotArchived(t *testing.T) {
	js := &fakeJetStream{}
	p := newEventPublisher(js, "warehouse", logger.NewTestLogger())

	err := p.PublishSnapshotArchived(context.Background(), models.SnapshotArchivedEventData{
		DayKey:    "3-7-2025",
		Timestamp: 1741341600000,
		Services:  2,
		Down:      []string{"b"},
		Hash:      "abc",
		ArchiveAt: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, js.msgs, 1)
	assert.Equal(t, SubjectSnapshotArchived, js.msgs[0].subject)
	assert.Contains(t, string(js.msgs[0].data), `"day_key":"3-7-2025"`)
}

func TestPublishErrorIsWrapped(t *testing.T) {
	p := newEventPublisher(&fakeJetStream{err: errTestFixture}, "warehouse", logger.NewTestLogger())

	err := p.PublishServiceState(context.Background(), models.ServiceStateEventData{ServiceID: "a"})
	require.ErrorIs(t, err, errTestFixture)
}

func TestGetSeverityForState(t *testing.T) {
	assert.Equal(t, "error", getSeverityForState(models.StatusDown))
	assert.Equal(t, "info", getSeverityForState(models.StatusUp))
	assert.Equal(t, "notice", getSeverityForState(models.StatusUnknown))
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:     "adds subject when list empty",
			subjects: nil,
			subject:  SubjectServiceState,
			want:     []string{SubjectServiceState},
		},
		{
			name:     "keeps list when wildcard matches",
			subjects: []string{"warehouse.service.*"},
			subject:  SubjectServiceState,
			want:     []string{"warehouse.service.*"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"warehouse.>"},
			subject:  SubjectSnapshotArchived,
			want:     []string{"warehouse.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"logs.syslog.*"},
			subject:  SubjectServiceState,
			want:     []string{"logs.syslog.*", SubjectServiceState},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "warehouse.service.state", "warehouse.service.state", true},
		{"single wildcard", "warehouse.*.state", "warehouse.service.state", true},
		{"greater wildcard", "warehouse.>", "warehouse.service.state", true},
		{"greater wildcard needs a token", "warehouse.>", "warehouse", false},
		{"single wildcard is one token", "warehouse.*", "warehouse.service.state", false},
		{"mismatch", "events.>", "warehouse.service.state", false},
		{"pattern longer than subject", "warehouse.service.state.x", "warehouse.service.state", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestMergeSubjects(t *testing.T) {
	got := mergeSubjects([]string{"warehouse.service.*"}, []string{SubjectServiceState, SubjectSnapshotArchived})
	assert.Equal(t, []string{"warehouse.service.*", SubjectSnapshotArchived}, got)
}

func TestTLSConfigRequiresFiles(t *testing.T) {
	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.NATSTLSConfig{CAFile: "ca.pem"})
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.NATSTLSConfig{CAFile: "missing-ca.pem", CertFile: "missing.pem", KeyFile: "missing.key"})
	require.Error(t, err)
}
