package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"filesig/snapshot"
)

// TakeSnapshot writes the catalog at the current sequence, then drops the
// entry WAL segments and acked outbox entries it covers.
//
// A snapshot keeps each extension's signatures but not the tree's shape.
// Bootstrap rebuilds the tree by inserting extensions in the written tree's
// pre-order, so the same snapshot always restores the same tree, though
// rebalancing may shape it differently from the one that was written.
// RemoveSignature descends by first signature and can therefore reach a
// different node before and after a restart. The removal is journaled by
// extension, so replaying it is unaffected.
func (s *CatalogService) TakeSnapshot() (uint64, error) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	s.mu.Lock()
	seq := s.seq.Current()
	entries := s.entries()
	s.mu.Unlock()

	w := &snapshot.Writer{Dir: s.cfg.SnapshotDir}
	if err := w.Write(seq, entries); err != nil {
		snapshotsWritten.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	snapshotsWritten.WithLabelValues("ok").Inc()

	if err := s.wal.TruncateBefore(seq); err != nil {
		return seq, fmt.Errorf("truncate entry wal: %w", err)
	}
	if s.outbox != nil {
		purged, err := s.outbox.TruncateAckedUpTo(seq)
		if err != nil {
			return seq, fmt.Errorf("truncate outbox: %w", err)
		}
		s.log.Debug("outbox purged", zap.Int("entries", purged))
	}

	s.log.Info("snapshot written", zap.Uint64("seq", seq), zap.Int("extensions", len(entries)))
	return seq, nil
}

// entries groups the catalog's records by extension. Caller holds mu.
func (s *CatalogService) entries() []snapshot.Entry {
	var out []snapshot.Entry
	for _, rec := range s.catalog.Records() {
		if n := len(out); n > 0 && out[n-1].Extension == rec.Extension {
			out[n-1].Signatures = append(out[n-1].Signatures, rec.Signature)
			continue
		}
		out = append(out, snapshot.Entry{
			Extension:  rec.Extension,
			Signatures: []string{rec.Signature},
			Length:     rec.Length,
		})
	}
	return out
}

// StartSnapshotJob snapshots every interval until ctx is done. A zero
// interval falls back to cfg.SnapshotInterval; if both are zero the job
// does not start. The returned channel closes when the job has exited.
func (s *CatalogService) StartSnapshotJob(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		interval = s.cfg.SnapshotInterval
	}
	if interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := s.TakeSnapshot(); err != nil {
					s.log.Error("snapshot failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
