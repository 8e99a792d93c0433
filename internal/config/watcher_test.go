package config

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects the events it receives.
type recordingHandler struct {
	mu     sync.Mutex
	events []ConfigChangeEvent
	err    error
	seen   chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: make(chan struct{}, 16)}
}

func (h *recordingHandler) HandleConfigChange(event ConfigChangeEvent) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	h.seen <- struct{}{}
	return h.err
}

func (h *recordingHandler) wait(t *testing.T) {
	t.Helper()
	select {
	case <-h.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config change event")
	}
}

func (h *recordingHandler) snapshot() []ConfigChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ConfigChangeEvent(nil), h.events...)
}

func TestWatcher_DeliversEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	handler := newRecordingHandler()
	watcher := NewWatcher(client, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	// Publishing before the subscription is live would be lost.
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("*")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Malformed payloads are dropped without stopping the watcher.
	mr.Publish(ChangesChannel, "{not json")

	event := ConfigChangeEvent{
		EventType:  "config.changed",
		EntityType: EntityRoute,
		EntityID:   "r-1",
		Action:     "update",
	}
	require.NoError(t, Publish(ctx, client, event))
	handler.wait(t)

	events := handler.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "r-1", events[0].EntityID)
	assert.True(t, events[0].AffectsRoutes())

	require.NoError(t, watcher.HealthCheck(context.Background()))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestWatcher_HealthCheckFailsWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	watcher := NewWatcher(client, newRecordingHandler())

	assert.Error(t, watcher.HealthCheck(context.Background()))
}

func TestConfigChangeEvent_AffectsRoutes(t *testing.T) {
	tests := []struct {
		entity string
		want   bool
	}{
		{EntityRoute, true},
		{"*", true},
		{"consumer", false},
		{"", false},
	}

	for _, tt := range tests {
		event := ConfigChangeEvent{EntityType: tt.entity}
		assert.Equal(t, tt.want, event.AffectsRoutes(), "entity %q", tt.entity)
	}
}

// fakeReader replays a fixed list of messages, then blocks until the
// context is cancelled.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
	fetchErr  error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.fetchErr != nil {
		err := r.fetchErr
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func TestKafkaWatcher_ConsumesAndCommits(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 1, Value: []byte(`{"entity_type":"route","entity_id":"a","action":"create"}`)},
		{Offset: 2, Value: []byte(`garbage`)},
		{Offset: 3, Value: []byte(`{"entity_type":"route","entity_id":"b","action":"delete"}`)},
	}}
	handler := newRecordingHandler()
	handler.err = errors.New("reload failed")
	watcher := &KafkaWatcher{reader: reader, handler: handler, topic: "changes"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	handler.wait(t)
	handler.wait(t)

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	events := handler.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].EntityID)
	assert.Equal(t, "b", events[1].EntityID)

	reader.mu.Lock()
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	assert.True(t, reader.closed)
	reader.mu.Unlock()
}

func TestKafkaWatcher_FetchError(t *testing.T) {
	reader := &fakeReader{fetchErr: kafka.UnknownTopicOrPartition}
	watcher := &KafkaWatcher{reader: reader, handler: newRecordingHandler(), topic: "changes"}

	err := watcher.Start(context.Background())
	assert.ErrorIs(t, err, kafka.UnknownTopicOrPartition)
	assert.True(t, reader.closed)
}
