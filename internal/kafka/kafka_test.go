package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-registry/internal/db"
	"alert-registry/internal/logging"
	"alert-registry/internal/models"
	"alert-registry/internal/observability"
	"alert-registry/internal/services"
)

func TestSerializeEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := models.AlertEvent{
		Type:       models.AlertDeleted,
		Alert:      models.Alert{ID: 42, Title: "Queda de energia"},
		OccurredAt: at,
	}

	msg, err := serializeEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte("42"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"alert.deleted"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("alert.deleted"), msg.Headers[0].Value)
	assert.Equal(t, "occurred_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[1].Value)

	var back models.AlertEvent
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, ev, back)
}

func newIngestConsumer() (*Consumer, *db.MemoryStore) {
	store := db.NewMemoryStore()
	logger := logging.NewNop()
	svc := services.New(store, logger, observability.NewMetricsForTesting())
	return &Consumer{svc: svc, logger: logger}, store
}

func TestHandleMessage_CreatesAlert(t *testing.T) {
	c, store := newIngestConsumer()

	ok := c.handleMessage(context.Background(), kafkago.Message{
		Value: []byte(`{"title":"Buraco na via","category":"road","latitude":-22.91,"longitude":-47.05,"bairro":"Taquaral"}`),
	})

	assert.True(t, ok)
	require.Equal(t, 1, store.Len())
	alert, err := store.GetAlert(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Taquaral", alert.Neighborhood)
}

func TestHandleMessage_SkipsBadMessages(t *testing.T) {
	c, store := newIngestConsumer()
	ctx := context.Background()

	assert.False(t, c.handleMessage(ctx, kafkago.Message{Value: []byte(`not json`)}))
	assert.False(t, c.handleMessage(ctx, kafkago.Message{Value: []byte(`{"title":"","latitude":0,"longitude":0}`)}))
	assert.Equal(t, 0, store.Len())
}

// scriptedReader replays results in order, then blocks until ctx is done.
type scriptedReader struct {
	mu      sync.Mutex
	results []readResult
	calls   int
}

type readResult struct {
	msg kafkago.Message
	err error
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	r.calls++
	if len(r.results) > 0 {
		next := r.results[0]
		r.results = r.results[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error { return nil }

func (r *scriptedReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestStart_RetriesAfterReadError(t *testing.T) {
	c, store := newIngestConsumer()
	reader := &scriptedReader{results: []readResult{
		{err: errors.New("broker unreachable")},
		{err: errors.New("broker unreachable")},
		{msg: kafkago.Message{Value: []byte(`{"title":"Alagamento","latitude":-22.9,"longitude":-47.06}`)}},
	}}
	c.reader = reader
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	c.Start(ctx, &wg)

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return reader.Calls() == 4 }, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
}

func TestStart_StopsWhenReaderClosed(t *testing.T) {
	c, store := newIngestConsumer()
	reader := &scriptedReader{results: []readResult{{err: io.EOF}}}
	c.reader = reader
	c.backoff = time.Hour

	var wg sync.WaitGroup
	c.Start(context.Background(), &wg)
	wg.Wait()

	assert.Equal(t, 1, reader.Calls())
	assert.Equal(t, 0, store.Len())
}
