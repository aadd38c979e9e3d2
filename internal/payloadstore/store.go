// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package payloadstore persists raw upstream API payloads in BadgerDB.
// Ingest pollers write snapshots here; dashboard services read them as
// last-good fallback when an upstream is down or its breaker is open.
package payloadstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/borninthedark/starbase/internal/logging"
)

// Source keys are owned by the domain packages writing the payloads;
// this package treats them as opaque strings.
const payloadKeyPrefix = "payload:"

// ErrPayloadNotFound is returned when no snapshot exists for a source.
var ErrPayloadNotFound = errors.New("payload not found")

// Snapshot is a stored upstream payload with its fetch time.
type Snapshot struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Payload   []byte    `json:"payload"`
}

// Store is a Badger-backed payload store.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the store at dir. Entries expire after ttl
// via Badger's entry TTL.
func Open(dir string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload store: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Put stores the raw payload for a source, stamped with the current time.
func (s *Store) Put(source string, payload []byte) error {
	snap := Snapshot{
		Source:    source,
		FetchedAt: time.Now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(payloadKeyPrefix+source), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get retrieves the snapshot for a source.
func (s *Store) Get(source string) (*Snapshot, error) {
	var snap Snapshot

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(payloadKeyPrefix + source))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPayloadNotFound
		}
		if err != nil {
			return fmt.Errorf("get payload: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetJSON retrieves the snapshot for a source and unmarshals its
// payload into out. Returns the fetch time.
func (s *Store) GetJSON(source string, out interface{}) (time.Time, error) {
	snap, err := s.Get(source)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(snap.Payload, out); err != nil {
		return time.Time{}, fmt.Errorf("decode payload for %s: %w", source, err)
	}
	return snap.FetchedAt, nil
}

// PutJSON marshals v and stores it for the source.
func (s *Store) PutJSON(source string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", source, err)
	}
	return s.Put(source, data)
}

// Healthy reports whether the underlying store accepts reads.
func (s *Store) Healthy() bool {
	err := s.db.View(func(txn *badger.Txn) error { return nil })
	return err == nil
}

// Close closes the store.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		logging.Error().Err(err).Msg("failed to close payload store")
		return err
	}
	return nil
}
