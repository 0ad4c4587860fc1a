// Package provision forwards resolved map lists to an external game-server
// provisioner over an HTTP webhook.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

const handlerName = "provision.map_resolved"

// ErrRejected is returned for 4xx responses. Those are not retried.
var ErrRejected = errors.New("provisioner rejected the request")

type Client struct {
	url           string
	http          *http.Client
	maxRetries    int
	retryInterval time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

func NewClient(cfg config.ProvisionConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:           cfg.WebhookURL,
		http:          &http.Client{Timeout: cfg.Timeout},
		maxRetries:    cfg.MaxRetries,
		retryInterval: 250 * time.Millisecond,
		logger:        logger,
		metrics:       m,
	}
}

// Provision POSTs one resolved veto to the webhook.
func (c *Client) Provision(ctx context.Context, ev events.MapResolved) (err error) {
	defer func() { c.metrics.Provisioned(err) }()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal map list: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "esports-bracket/1.0")
	req.Header.Set("X-Match-ID", ev.MatchID.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call provisioner: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return fmt.Errorf("provisioner returned status %d", resp.StatusCode)
	}
}

func (c *Client) handle(msg *message.Message) ([]*message.Message, error) {
	ev, err := events.Decode[events.MapResolved](msg)
	if err != nil {
		c.logger.Warn("dropping undecodable map list", "message_id", msg.UUID, "error", err)
		return nil, nil
	}
	if err := c.Provision(msg.Context(), ev); err != nil {
		if errors.Is(err, ErrRejected) {
			c.logger.Error("provisioner rejected match", "match_id", ev.MatchID, "error", err)
			return nil, nil
		}
		return nil, err
	}
	c.logger.Info("match provisioned", "match_id", ev.MatchID, "maps", ev.Maps)
	return nil, nil
}

// Handler retries transient failures and then acks the message either way,
// so one unreachable provisioner cannot stall the topic.
func (c *Client) Handler() message.NoPublishHandlerFunc {
	retry := middleware.Retry{
		MaxRetries:      c.maxRetries,
		InitialInterval: c.retryInterval,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		Logger:          watermill.NewSlogLogger(c.logger),
	}
	h := middleware.Recoverer(retry.Middleware(c.handle))
	return func(msg *message.Message) error {
		if _, err := h(msg); err != nil {
			c.logger.Error("giving up on provisioning", "message_id", msg.UUID, "error", err)
		}
		return nil
	}
}

func (c *Client) AddHandler(router *message.Router, sub message.Subscriber) {
	router.AddNoPublisherHandler(handlerName, events.TopicMapResolved, sub, c.Handler())
}
