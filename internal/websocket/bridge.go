// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package websocket

import (
	"context"
	"fmt"

	"github.com/borninthedark/starbase/internal/events"
	"github.com/borninthedark/starbase/internal/logging"
)

// Bridge forwards refresh events from the message bus to the hub so
// connected dashboards repaint without polling.
type Bridge struct {
	bus *events.Bus
	hub *Hub
}

// NewBridge connects a bus to a hub.
func NewBridge(bus *events.Bus, hub *Hub) *Bridge {
	return &Bridge{bus: bus, hub: hub}
}

// Run consumes refresh events until the context is canceled. Malformed
// payloads are acked and dropped so they cannot wedge the subscription.
func (b *Bridge) Run(ctx context.Context) error {
	msgs, err := b.bus.SubscribeRefresh(ctx)
	if err != nil {
		return fmt.Errorf("bridge subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			event, err := events.DecodeRefresh(msg)
			if err != nil {
				logging.WithComponent("websocket").Warn().Err(err).
					Str("message_uuid", msg.UUID).
					Msg("dropping malformed refresh event")
				msg.Ack()
				continue
			}
			b.hub.BroadcastRefresh(event.Source, event.FetchedAt)
			msg.Ack()
		}
	}
}
