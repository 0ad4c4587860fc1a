package provision

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// webhook answers with statuses in order, repeating the last one.
type webhook struct {
	statuses []int
	calls    atomic.Int32
	last     atomic.Value
}

func (h *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(h.calls.Add(1))
	var ev events.MapResolved
	if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
		h.last.Store(ev)
	}
	w.WriteHeader(h.statuses[min(n, len(h.statuses))-1])
}

func newClient(t *testing.T, statuses ...int) (*Client, *webhook) {
	t.Helper()
	hook := &webhook{statuses: statuses}
	srv := httptest.NewServer(hook)
	t.Cleanup(srv.Close)

	c := NewClient(config.ProvisionConfig{
		WebhookURL: srv.URL,
		Timeout:    time.Second,
		MaxRetries: 2,
	}, slog.New(slog.DiscardHandler), metrics.New(prometheus.NewRegistry()))
	c.retryInterval = time.Millisecond
	return c, hook
}

func mapResolved() events.MapResolved {
	return events.MapResolved{
		TournamentID: uuid.New(),
		MatchID:      uuid.New(),
		Round:        bracket.GrandFinal,
		BestOf:       3,
		Maps:         []string{"mirage", "inferno", "dust2"},
		ResolvedAt:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func toMessage(t *testing.T, ev events.MapResolved) *message.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), b)
}

func TestProvisionPostsMapList(t *testing.T) {
	c, hook := newClient(t, http.StatusAccepted)
	ev := mapResolved()

	require.NoError(t, c.Provision(context.Background(), ev))
	assert.Equal(t, int32(1), hook.calls.Load())
	assert.Equal(t, ev, hook.last.Load())
}

func TestProvisionStatusHandling(t *testing.T) {
	c, _ := newClient(t, http.StatusUnprocessableEntity)
	err := c.Provision(context.Background(), mapResolved())
	assert.ErrorIs(t, err, ErrRejected)

	c, _ = newClient(t, http.StatusBadGateway)
	err = c.Provision(context.Background(), mapResolved())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestHandlerRetriesTransientFailures(t *testing.T) {
	c, hook := newClient(t, http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusOK)

	require.NoError(t, c.Handler()(toMessage(t, mapResolved())))
	assert.Equal(t, int32(3), hook.calls.Load())
}

func TestHandlerDoesNotRetryRejections(t *testing.T) {
	c, hook := newClient(t, http.StatusBadRequest)

	require.NoError(t, c.Handler()(toMessage(t, mapResolved())))
	assert.Equal(t, int32(1), hook.calls.Load())
}

func TestHandlerGivesUpAfterMaxRetries(t *testing.T) {
	c, hook := newClient(t, http.StatusInternalServerError)

	assert.NoError(t, c.Handler()(toMessage(t, mapResolved())))
	assert.Equal(t, int32(3), hook.calls.Load())
}

func TestHandlerDropsUndecodablePayload(t *testing.T) {
	c, hook := newClient(t, http.StatusOK)

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	assert.NoError(t, c.Handler()(msg))
	assert.Zero(t, hook.calls.Load())
}

func TestRouterDeliversMapResolved(t *testing.T) {
	c, hook := newClient(t, http.StatusOK)

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	require.NoError(t, err)
	c.AddHandler(router, pubsub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		router.Close()
		pubsub.Close()
	})
	go router.Run(ctx)
	<-router.Running()

	ev := mapResolved()
	require.NoError(t, events.NewPublisher(pubsub).Publish(ctx, ev))

	require.Eventually(t, func() bool { return hook.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ev.MatchID, hook.last.Load().(events.MapResolved).MatchID)
}
