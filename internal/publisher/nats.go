// Package publisher pushes periodic ETA board snapshots to NATS
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kentrehber/durak/internal/models"
)

// Metrics receives publisher events. A nil Metrics is allowed.
type Metrics interface {
	BoardPublishedInc()
	BoardPublishErrInc()
	NATSSetConnected(connected bool)
}

// BoardSource produces the current arrivals for every stop and the
// encoded GTFS-RT feed for the same instant.
type BoardSource interface {
	Board(now time.Time) ([]models.StopArrivals, []byte, error)
}

// BoardMessage is the JSON body published per stop
type BoardMessage struct {
	StopID    string           `json:"stopId"`
	StopName  string           `json:"stopName"`
	Timestamp time.Time        `json:"timestamp"`
	Arrivals  []models.Arrival `json:"arrivals"`
}

type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	metrics Metrics
}

func NewNATSPublisher(url, prefix string, m Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("durak"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			slog.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			slog.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// Run publishes a board snapshot every interval until ctx is done
func (p *NATSPublisher) Run(ctx context.Context, src BoardSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.PublishBoard(src, time.Now()); err != nil {
			slog.Error("board publish failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PublishBoard sends one message per stop on <prefix>.<stop> and the
// protobuf feed on <prefix>.feed
func (p *NATSPublisher) PublishBoard(src BoardSource, now time.Time) error {
	boards, feed, err := src.Board(now)
	if err != nil {
		return err
	}

	var failed int
	for _, b := range boards {
		msg := BoardMessage{
			StopID:    b.Stop.ID,
			StopName:  b.Stop.Name,
			Timestamp: now,
			Arrivals:  b.Arrivals,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := p.publish(Subject(p.prefix, b.Stop.ID), body); err != nil {
			failed++
		}
	}

	if err := p.publish(Subject(p.prefix, "feed"), feed); err != nil {
		failed++
	}

	if failed > 0 {
		return fmt.Errorf("%d board messages failed to publish", failed)
	}
	return nil
}

func (p *NATSPublisher) publish(subject string, body []byte) error {
	err := p.nc.Publish(subject, body)
	if p.metrics != nil {
		if err != nil {
			p.metrics.BoardPublishErrInc()
		} else {
			p.metrics.BoardPublishedInc()
		}
	}
	return err
}

// Subject joins a prefix and a token into a valid NATS subject
func Subject(prefix, token string) string {
	return prefix + "." + subjectToken(token)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
