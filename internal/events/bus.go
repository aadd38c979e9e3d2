// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package events provides the in-process message bus that connects the
// ingest workers to the websocket hub. Dashboard refreshes are published
// here so connected clients learn about new upstream data without polling.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/borninthedark/starbase/internal/logging"
)

// TopicDashboardRefresh carries notifications that an upstream dataset
// was refreshed and dashboards should be re-rendered.
const TopicDashboardRefresh = "dashboard.refresh"

// RefreshEvent describes a completed upstream refresh.
type RefreshEvent struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Bus is an in-process publish/subscribe bus backed by buffered channels.
// Subscribers receive only events published after they subscribe.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the bus. Output channels are buffered so a slow
// subscriber cannot stall the publishing ingest worker indefinitely.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			newLoggerAdapter(),
		),
	}
}

// PublishRefresh announces that the named source was refreshed.
func (b *Bus) PublishRefresh(source string, fetchedAt time.Time) error {
	payload, err := json.Marshal(RefreshEvent{Source: source, FetchedAt: fetchedAt})
	if err != nil {
		return fmt.Errorf("marshal refresh event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("source", source)

	if err := b.pubsub.Publish(TopicDashboardRefresh, msg); err != nil {
		return fmt.Errorf("publish refresh event: %w", err)
	}
	return nil
}

// SubscribeRefresh returns a channel of refresh notifications. The
// channel closes when the context is canceled or the bus is closed.
func (b *Bus) SubscribeRefresh(ctx context.Context) (<-chan *message.Message, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicDashboardRefresh)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", TopicDashboardRefresh, err)
	}
	return msgs, nil
}

// DecodeRefresh unmarshals a refresh event from a bus message.
func DecodeRefresh(msg *message.Message) (*RefreshEvent, error) {
	var event RefreshEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal refresh event: %w", err)
	}
	return &event, nil
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// loggerAdapter bridges watermill's logging interface to zerolog.
type loggerAdapter struct {
	fields watermill.LogFields
}

func newLoggerAdapter() watermill.LoggerAdapter {
	return &loggerAdapter{}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.WithComponent("events").Error().Err(err), fields).Msg(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.event(logging.WithComponent("events").Info(), fields).Msg(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.WithComponent("events").Debug(), fields).Msg(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.WithComponent("events").Trace(), fields).Msg(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &loggerAdapter{fields: merged}
}

func (l *loggerAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
