// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/metrics"
)

// replayInterval is how often the spool attempts redelivery.
const replayInterval = 15 * time.Second

// SpoolingBus wraps a transport with a durable Badger-backed buffer.
// Events that fail to publish are written to disk and replayed in the
// background until the transport accepts them, so a NATS outage never
// loses an entity lifecycle event.
type SpoolingBus struct {
	inner Bus
	db    *badger.DB

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSpoolingBus opens the spool database at path and starts the replay
// loop.
func NewSpoolingBus(inner Bus, path string) (*SpoolingBus, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithCompactL0OnClose(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open event spool at %s: %w", path, err)
	}

	sb := &SpoolingBus{
		inner:  inner,
		db:     db,
		stopCh: make(chan struct{}),
	}
	sb.updateDepthGauge()

	sb.wg.Add(1)
	go sb.replayLoop()

	return sb, nil
}

// Publish delivers the event, spooling it on transport failure. Spooled
// events are reported as accepted; delivery is retried asynchronously.
func (sb *SpoolingBus) Publish(ctx context.Context, e Event) error {
	err := sb.inner.Publish(ctx, e)
	if err == nil {
		return nil
	}

	logging.Warn().Err(err).Str("topic", e.Topic).Msg("event publish failed, spooling")
	if spoolErr := sb.spool(e); spoolErr != nil {
		// Both the transport and the spool failed. Surface the original
		// publish error with the spool failure attached.
		return fmt.Errorf("publish failed (%v) and spool failed: %w", err, spoolErr)
	}
	return nil
}

func (sb *SpoolingBus) spool(e Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return err
	}
	// Keys sort by spool time so replay preserves ordering.
	key := fmt.Sprintf("%020d:%s", time.Now().UnixNano(), e.ID)
	err = sb.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to write spool entry: %w", err)
	}
	sb.updateDepthGauge()
	return nil
}

func (sb *SpoolingBus) replayLoop() {
	defer sb.wg.Done()
	ticker := time.NewTicker(replayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sb.stopCh:
			return
		case <-ticker.C:
			sb.replayOnce()
		}
	}
}

// replayOnce attempts to deliver every spooled event, stopping at the
// first failure to preserve ordering.
func (sb *SpoolingBus) replayOnce() {
	type entry struct {
		key     []byte
		payload []byte
	}

	var entries []entry
	err := sb.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			payload, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, entry{key: key, payload: payload})
		}
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to read event spool")
		return
	}
	if len(entries) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	replayed := 0
	for _, en := range entries {
		e, err := Unmarshal(en.payload)
		if err != nil {
			// Corrupt entry; drop it rather than wedging the spool.
			logging.Error().Err(err).Str("key", string(en.key)).Msg("dropping corrupt spool entry")
			_ = sb.deleteEntry(en.key)
			continue
		}
		if err := sb.inner.Publish(ctx, e); err != nil {
			break
		}
		if err := sb.deleteEntry(en.key); err != nil {
			logging.Error().Err(err).Msg("failed to remove replayed spool entry")
			break
		}
		replayed++
		metrics.EventSpoolReplayed.Inc()
	}

	if replayed > 0 {
		logging.Info().Int("count", replayed).Msg("replayed spooled events")
	}
	sb.updateDepthGauge()
}

func (sb *SpoolingBus) deleteEntry(key []byte) error {
	return sb.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (sb *SpoolingBus) updateDepthGauge() {
	var depth int64
	_ = sb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			depth++
		}
		return nil
	})
	metrics.EventSpoolDepth.Set(float64(depth))
}

// Depth returns the number of spooled events awaiting delivery.
func (sb *SpoolingBus) Depth() int {
	var depth int
	_ = sb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			depth++
		}
		return nil
	})
	return depth
}

// Close stops the replay loop and closes both the spool and the wrapped
// transport.
func (sb *SpoolingBus) Close() error {
	sb.stopOnce.Do(func() { close(sb.stopCh) })
	sb.wg.Wait()

	innerErr := sb.inner.Close()
	if err := sb.db.Close(); err != nil {
		return err
	}
	return innerErr
}
