// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

/*
Package websocket pushes live dashboard updates to connected browsers.

It uses gorilla/websocket with a hub-and-spoke layout: a single Hub owns
the client set and fans messages out, and each Client runs a read pump
(pings, connection liveness) and a write pump (outbound frames plus
keepalive pings).

Updates originate on the events bus. A Bridge subscribes to the
dashboard.refresh topic and converts bus events into dashboard_refresh
frames, so pages showing astrometrics, stargazing or advisory data can
repaint as soon as the ingest workers pull fresh upstream data.

Message envelope:

	{"type": "dashboard_refresh", "data": {"source": "nasa-apod", "fetched_at": "..."}}

Clients may send {"type": "ping"} and receive {"type": "pong"}; all
other inbound frames are ignored. Connection liveness uses protocol
pings on a 54 second period with a 60 second pong deadline.
*/
package websocket
