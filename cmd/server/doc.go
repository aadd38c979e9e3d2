// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Command server runs the starbase web application: the portfolio and
// dashboard HTTP surface, the websocket hub, and the background ingest
// pollers, all under a suture supervisor tree.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (STARBASE_CONFIG or ./starbase.yaml), then STARBASE_* environment
// variables.
package main
